package main

import (
	"log"
	"strconv"

	"github.com/beego/beego/v2/server/web"
	"github.com/cleanstream/ai-engine-go/app/bootstrap"
	"github.com/cleanstream/ai-engine-go/app/router"
	"github.com/cleanstream/ai-engine-go/internal/config"
	"github.com/cleanstream/ai-engine-go/internal/logger"
	"go.uber.org/zap"
)

func main() {
	app, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("failed to bootstrap application: %v", err)
	}
	defer app.Shutdown()

	router.Init()

	web.BConfig.AppName = "Clean Stream AI Engine"
	web.BConfig.CopyRequestBody = true

	if p, err := strconv.Atoi(config.AppConfig.Server.Port); err == nil {
		web.BConfig.Listen.HTTPPort = p
	} else {
		web.BConfig.Listen.HTTPPort = 8000
	}

	logger.Info("🚀 Starting Clean Stream AI Engine", zap.Int("port", web.BConfig.Listen.HTTPPort))
	web.Run()
}
