// Package handler 引擎的 HTTP 命令接口
package handler

import (
	"context"
	"net/http"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/metrics"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/app"
	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/web"
	weberrors "github.com/MAKORA-ltd/anime-play/pkg/web/errors"
	"github.com/MAKORA-ltd/anime-play/pkg/web/middleware"
	"github.com/gin-gonic/gin"
)

// Services 处理器依赖的引擎服务
type Services struct {
	Hunt        *service.HuntService
	Collection  *service.CollectionService
	Trade       *service.TradeService
	Daily       *service.DailyService
	Leaderboard *service.LeaderboardService
	Catalog     *service.CatalogService
}

// ErrorReporter 上报未映射错误与存储故障
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// Handler 引擎 HTTP 处理器
type Handler struct {
	svc      Services
	metrics  *metrics.EngineMetrics
	reporter ErrorReporter
	logger   logger.Logger
}

// Option 处理器选项
type Option func(*Handler)

// WithReporter 设置错误上报
func WithReporter(r ErrorReporter) Option {
	return func(h *Handler) { h.reporter = r }
}

// New 创建处理器，metrics 可为 nil
func New(s Services, m *metrics.EngineMetrics, l logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		svc:     s,
		metrics: m,
		logger:  l.Named("handler.engine"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 注册路由；auth 为认证中间件，/help 与 /healthz 不需要认证
func (h *Handler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	public := r.Group("/api/v1")
	{
		public.GET("/help", h.Help)
	}

	api := r.Group("/api/v1", auth)
	{
		api.POST("/hunt", h.Hunt)
		api.POST("/catch", h.Catch)
		api.POST("/release", h.Release)
		api.POST("/callback", h.Callback)

		api.GET("/collection", h.Collection)
		api.GET("/collection/tradable", h.Tradable)
		api.POST("/gifts", h.Gift)

		api.GET("/trades", h.ListTrades)
		api.POST("/trades", h.ProposeTrade)
		api.POST("/trades/:id/respond", h.RespondTrade)
		api.POST("/trades/:id/cancel", h.CancelTrade)

		api.POST("/daily", h.Daily)
		api.GET("/leaderboard", h.Leaderboard)
		api.GET("/characters", h.Characters)
		api.GET("/status", h.Status)

		admin := api.Group("/admin", h.requireAdmin)
		{
			admin.POST("/characters", h.AddCharacter)
			admin.POST("/capture", h.AdminCapture)
		}
	}
}

// userID 已认证的用户，缺失时已写入响应
func (h *Handler) userID(c *gin.Context) (int64, bool) {
	uid, ok := middleware.GetUserID(c)
	if !ok || uid <= 0 {
		web.Error(c, http.StatusUnauthorized, weberrors.CodeUnAuthorized, "unauthenticated")
		return 0, false
	}
	return uid, true
}

func (h *Handler) requireAdmin(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		c.Abort()
		return
	}
	if !h.svc.Catalog.IsAdmin(uid) {
		web.AbortWithError(c, http.StatusForbidden, weberrors.CodeForbidden, "admin only")
		return
	}
	c.Next()
}

// Healthz 存活检查
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StatusResponse 运行状态
type StatusResponse struct {
	Version app.Info       `json:"version"`
	Engine  *metrics.Stats `json:"engine,omitempty"`
}

// Status 版本与运行指标
func (h *Handler) Status(c *gin.Context) {
	resp := StatusResponse{Version: app.GetInfo()}
	if h.metrics != nil {
		stats := h.metrics.GetStats()
		resp.Engine = &stats
	}
	web.Success(c, resp)
}

// HelpEntry 一条命令说明
type HelpEntry struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var helpEntries = []HelpEntry{
	{http.MethodPost, "/api/v1/hunt", "Search for a wild character (5 minute cooldown)"},
	{http.MethodPost, "/api/v1/catch", "Try to capture the encountered character"},
	{http.MethodPost, "/api/v1/release", "Let the encountered character go"},
	{http.MethodGet, "/api/v1/collection", "View your collection and hunt stats"},
	{http.MethodPost, "/api/v1/trades", "Offer one of your characters for trade"},
	{http.MethodPost, "/api/v1/trades/:id/respond", "Accept or reject a trade offer"},
	{http.MethodPost, "/api/v1/gifts", "Gift a character to another player"},
	{http.MethodPost, "/api/v1/daily", "Claim daily coins (once every 24 hours)"},
	{http.MethodGet, "/api/v1/leaderboard", "Top hunters by successful captures"},
}

// Help 命令列表
func (h *Handler) Help(c *gin.Context) {
	web.Success(c, gin.H{"commands": helpEntries})
}
