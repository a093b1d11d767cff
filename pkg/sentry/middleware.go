package sentry

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// GinMiddleware 为每个请求克隆 Hub 并上报 panic，上报后继续抛出交给外层 Recovery
func (c *Client) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		hub := c.hub.Clone()
		hub.Scope().SetRequest(ctx.Request)
		hub.Scope().SetTag("route", ctx.FullPath())
		ctx.Request = ctx.Request.WithContext(sentry.SetHubOnContext(ctx.Request.Context(), hub))

		defer func() {
			if r := recover(); r != nil {
				c.RecoverWithContext(ctx.Request.Context(), r)
				panic(r)
			}
		}()
		ctx.Next()
	}
}
