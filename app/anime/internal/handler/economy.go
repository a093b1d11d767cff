package handler

import (
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/web"
	"github.com/gin-gonic/gin"
)

// Daily 每日签到
func (h *Handler) Daily(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	res, err := h.svc.Daily.Claim(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, res)
}

// Leaderboard 排行榜，n 缺省为配置值
func (h *Handler) Leaderboard(c *gin.Context) {
	rows, err := h.svc.Leaderboard.Top(c.Request.Context(), web.GetQueryInt(c, "n", 0))
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, gin.H{"rows": rows})
}

// Characters 图鉴分页
func (h *Handler) Characters(c *gin.Context) {
	limit := web.GetQueryInt(c, "limit", 50)
	offset := web.GetQueryInt(c, "offset", 0)

	list, err := h.svc.Catalog.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, gin.H{"characters": list, "limit": limit, "offset": offset})
}

// AddCharacter 管理员新增角色
func (h *Handler) AddCharacter(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	var req service.NewCharacter
	if !web.BindAndValidate(c, &req) {
		return
	}
	character, err := h.svc.Catalog.AddCharacter(c.Request.Context(), uid, req)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, character)
}
