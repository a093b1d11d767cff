package handler

import (
	"strconv"

	"github.com/MAKORA-ltd/anime-play/pkg/web"
	"github.com/gin-gonic/gin"
)

// GiftRequest 赠送角色
type GiftRequest struct {
	ToUserID    int64 `json:"to_user_id" binding:"required,gt=0"`
	CharacterID int64 `json:"character_id" binding:"required,gt=0"`
}

// Collection 查看收藏，user_id 可查看其他玩家
func (h *Handler) Collection(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	if q := c.Query("user_id"); q != "" {
		other, err := strconv.ParseInt(q, 10, 64)
		if err != nil {
			h.writeError(c, invalidParam("user_id"), nil)
			return
		}
		uid = other
	}

	view, err := h.svc.Collection.View(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, view)
}

// Tradable 可用于交易的角色
func (h *Handler) Tradable(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	entries, err := h.svc.Collection.Tradable(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, gin.H{"entries": entries})
}

// Gift 赠送
func (h *Handler) Gift(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	var req GiftRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	character, err := h.svc.Collection.Gift(c.Request.Context(), uid, req.ToUserID, req.CharacterID)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, gin.H{"character": character, "to_user_id": req.ToUserID})
}
