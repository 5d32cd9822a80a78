package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picfeed_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// ActiveWebSockets is the number of open notification sockets.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "picfeed_active_websockets",
		Help: "Number of currently open websocket connections",
	})

	// RateLimitRejections counts requests rejected by RateLimit.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "picfeed_rate_limit_rejections_total",
		Help: "Requests rejected by the Redis rate limiter",
	}, []string{"resource"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Fiber Prometheus middleware for the given service name.
// The collectors live in the default registry, so only the first call creates them.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware records request count, latency and in-flight requests.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
