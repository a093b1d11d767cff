package handler

import (
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/command"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/web"
	"github.com/gin-gonic/gin"
)

// HuntResponse 遭遇，actions 为网关按钮的回调载荷
type HuntResponse struct {
	Character *model.Character `json:"character"`
	Tier      rarity.Tier      `json:"tier"`
	TierLabel string           `json:"tier_label"`
	Token     string           `json:"token"`
	Actions   []string         `json:"actions"`
}

// TokenRequest 携带遭遇令牌的请求
type TokenRequest struct {
	Token string `json:"token" binding:"required,max=4096"`
}

// CaptureRequest 管理员直接结算捕捉
type CaptureRequest struct {
	UserID      int64       `json:"user_id" binding:"required,gt=0"`
	CharacterID int64       `json:"character_id" binding:"required,gt=0"`
	Tier        rarity.Tier `json:"tier" binding:"required"`
}

// Hunt 发起狩猎
func (h *Handler) Hunt(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	res, err := h.svc.Hunt.Hunt(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, HuntResponse{
		Character: res.Character,
		Tier:      res.Tier,
		TierLabel: res.TierLabel,
		Token:     res.Token,
		Actions:   []string{command.Catch(res.Token).String(), command.Release(res.Token).String()},
	})
}

// Catch 捕捉遭遇
func (h *Handler) Catch(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	var req TokenRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	h.dispatch(c, uid, command.Catch(req.Token))
}

// Release 放生遭遇
func (h *Handler) Release(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	var req TokenRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	h.dispatch(c, uid, command.Release(req.Token))
}

// AdminCapture 不经遭遇令牌直接结算一次捕捉
func (h *Handler) AdminCapture(c *gin.Context) {
	var req CaptureRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Hunt.ResolveCapture(c.Request.Context(), req.UserID, req.CharacterID, req.Tier)
	h.writeCapture(c, res, err)
}

// writeCapture 重复捕捉时统计已提交，结果随错误一并返回
func (h *Handler) writeCapture(c *gin.Context, res *service.CaptureResult, err error) {
	if err != nil {
		if res != nil {
			h.writeError(c, err, res)
			return
		}
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, res)
}
