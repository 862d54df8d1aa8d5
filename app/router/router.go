package router

import (
	"github.com/beego/beego/v2/server/web"
	"github.com/cleanstream/ai-engine-go/app/controllers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Init registers all routes. Must be called after bootstrap.
func Init() {
	web.Router("/", &controllers.RootController{}, "get:Index")
	web.Router("/health", &controllers.HealthController{}, "get:Health")
	web.Router("/process-row", &controllers.CleanController{}, "post:ProcessRow")

	web.Handler("/metrics", promhttp.Handler())
}
