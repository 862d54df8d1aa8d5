package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cleanstream/ai-engine-go/internal/logger"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// CannedErrorResponse 生成服务不可用时返回的固定JSON
// 生成失败从不作为error向上传播，统一走这个哨兵值再交给归一化。
const CannedErrorResponse = `{"status": "error", "message": "LLM API call failed"}`

// Generator 清洗建议生成接口
// 返回的文本预期包含一个JSON对象，但不做任何保证。
type Generator interface {
	GenerateSuggestion(ctx context.Context, context_, rowData string) (string, error)
}

// GeminiGenerator 使用Google Gemini生成清洗建议
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator 创建Gemini生成器
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return &GeminiGenerator{model: model}, nil
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

// Ready 检查客户端是否可用
func (g *GeminiGenerator) Ready() bool {
	return g.client != nil
}

// Close 释放底层连接
func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// GenerateSuggestion 结合检索到的上下文为数据行生成清洗建议
// 任何上游失败都吸收为CannedErrorResponse，不向调用方抛错。
func (g *GeminiGenerator) GenerateSuggestion(ctx context.Context, context_, rowData string) (string, error) {
	if g.client == nil {
		logger.Warn("Gemini client not configured, returning canned error response")
		return CannedErrorResponse, nil
	}

	prompt := buildCleaningPrompt(context_, rowData)

	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		logger.Error("Gemini API call failed", zap.String("model", g.model), zap.Error(err))
		return CannedErrorResponse, nil
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		logger.Error("Gemini returned empty response", zap.String("model", g.model))
		return CannedErrorResponse, nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// buildCleaningPrompt 构造数据清洗提示词
func buildCleaningPrompt(context_, rowData string) string {
	return fmt.Sprintf(`You are a data cleaning expert. Analyze the following data row and provide cleaning suggestions.

## Context (similar previous rows):
%s

## Row to Clean:
%s

Provide your response as a JSON object with EXACTLY this structure (no markdown, just raw JSON):
{
  "field": "name of the field with issues (if any)",
  "issue_type": "type of issue (missing, invalid_format, inconsistent, etc.)",
  "suggested_fix": "specific suggestion to fix the issue",
  "confidence": 0.85,
  "notes": "any additional notes"
}

If there are no issues, still return JSON with field "status" set to "clean".`, context_, rowData)
}
