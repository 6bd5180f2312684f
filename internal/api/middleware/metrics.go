package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"guild-ledger/backend/pkg/metrics"
)

// Metrics 记录请求耗时与状态码，路由取注册模板避免高基数
func Metrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
