package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cleanstream/ai-engine-go/app/bootstrap"
	"github.com/cleanstream/ai-engine-go/internal/cleaning"
	apperrors "github.com/cleanstream/ai-engine-go/internal/errors"
	"github.com/cleanstream/ai-engine-go/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

// ProcessRowRequest 单行处理请求
type ProcessRowRequest struct {
	TenantID  string                 `json:"tenantId" validate:"required"`
	DatasetID string                 `json:"datasetId" validate:"required"`
	Row       map[string]interface{} `json:"row" validate:"required"`
}

// CleanController 数据清洗控制器
type CleanController struct {
	BaseController
	pipeline *cleaning.Pipeline
}

func (c *CleanController) Prepare() {
	if c.pipeline == nil {
		c.pipeline = bootstrap.GetApp().Pipeline()
	}
}

// POST /process-row
func (c *CleanController) ProcessRow() {
	body := c.Ctx.Input.RequestBody
	var req ProcessRowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSONError(http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// 畸形的datasetId在任何流水线步骤执行之前就被拒绝
	datasetID, err := uuid.Parse(req.DatasetID)
	if err != nil {
		logger.Error("Invalid dataset ID format",
			zap.String("tenant_id", req.TenantID),
			zap.String("dataset_id", req.DatasetID),
			zap.Error(err))
		c.JSONError(http.StatusBadRequest, fmt.Sprintf("Invalid dataset ID format: %v", err))
		return
	}

	result, err := c.pipeline.ProcessRow(c.Ctx.Request.Context(), req.TenantID, datasetID, req.Row)
	if err != nil {
		logger.Error("Error processing row",
			zap.String("tenant_id", req.TenantID),
			zap.String("dataset_id", req.DatasetID),
			zap.Error(err))
		appErr := apperrors.GetAppError(err)
		c.JSONError(appErr.HTTPCode, fmt.Sprintf("Error processing row: %v", err))
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"tenantId":  req.TenantID,
		"datasetId": req.DatasetID,
		"result":    result,
	})
}
