package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/logging"
)

func NewRouter(handler *PaymentHandler, logger logging.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	payments := r.Group("/payments")
	payments.GET("", handler.ListPayments)
	payments.GET("/:id", handler.GetPayment)
	payments.POST("/:id", handler.CreatePayment)
	payments.POST("/:id/update", handler.UpdatePayment)
	payments.POST("/:id/pay", handler.PayPayment)
	payments.POST("/:id/revert", handler.RevertPayment)

	return r
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if len(c.Errors) > 0 {
			fields["err"] = c.Errors.String()
			logger.Error("request failed", fields)
			return
		}
		logger.Info("request", fields)
	}
}
