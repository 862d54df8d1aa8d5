package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 输入错误
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidDataset ErrorCode = "INVALID_DATASET_ID"

	// 存储错误
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"

	// 外部服务错误
	ErrCodeEmbeddingFailed  ErrorCode = "EMBEDDING_FAILED"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"

	// 向量维度不一致（嵌入模型版本变化的信号）
	ErrCodeDimensionMismatch ErrorCode = "DIMENSION_MISMATCH"

	// 通用错误
	ErrCodeInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

// ErrorType 错误类型
type ErrorType int

const (
	ErrorTypeSystem ErrorType = iota
	ErrorTypeInput
	ErrorTypeStorage
	ErrorTypeCollaborator
)

// AppError 应用错误结构体
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Type     ErrorType   `json:"type"`
	HTTPCode int         `json:"-"`
	Details  interface{} `json:"details,omitempty"`
	Cause    error       `json:"-"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause 添加错误原因
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails 添加错误详情
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// NewInputError 创建输入错误（进入流水线前被拒绝）
func NewInputError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Type:     ErrorTypeInput,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewStorageError 创建存储错误
func NewStorageError(message string) *AppError {
	return &AppError{
		Code:     ErrCodeStorage,
		Message:  message,
		Type:     ErrorTypeStorage,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewCollaboratorError 创建外部协作方错误（嵌入/生成服务）
func NewCollaboratorError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Type:     ErrorTypeCollaborator,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewDimensionMismatchError 创建维度不一致错误
func NewDimensionMismatchError(want, got int) *AppError {
	return &AppError{
		Code:     ErrCodeDimensionMismatch,
		Message:  fmt.Sprintf("vector dimension mismatch: expected %d, got %d", want, got),
		Type:     ErrorTypeStorage,
		HTTPCode: http.StatusInternalServerError,
	}
}

// IsAppError 检查是否为AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取AppError，如果不是则包装为系统错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return &AppError{
		Code:     ErrCodeInternalServer,
		Message:  "Internal server error",
		Type:     ErrorTypeSystem,
		HTTPCode: http.StatusInternalServerError,
		Cause:    err,
	}
}
