package middleware

import (
	"strconv"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/web/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics 接口监控中间件
func Metrics(m *metrics.HTTP) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath() // 路由模板而非实际路径，避免标签基数膨胀
		if path == "" {
			path = "unknown"
		}

		c.Next()

		m.RequestsTotal.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
