package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	metricsOnce sync.Once
	httpMetrics *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the HTTP metrics collector. The collectors live in the
// default registry, so they are created once per process and shared.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	metricsOnce.Do(func() {
		httpMetrics = fiberprometheus.New(serviceName)
	})
	return httpMetrics
}

// MountMetrics registers the /metrics endpoint and the request metrics middleware on app.
func MountMetrics(app *fiber.App, prom *fiberprometheus.FiberPrometheus) {
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}
