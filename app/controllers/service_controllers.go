package controllers

import (
	"net/http"
)

// RootController 根控制器
type RootController struct {
	BaseController
}

// Index 列出可用端点
func (c *RootController) Index() {
	c.JSON(http.StatusOK, map[string]interface{}{
		"service": "Clean Stream AI Engine",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /process-row": "Process a single data row",
			"GET /health":       "Health check",
			"GET /metrics":      "Prometheus metrics",
		},
	})
}

// HealthController 健康检查控制器
type HealthController struct {
	BaseController
}

func (c *HealthController) Health() {
	c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
