package handler

import (
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/service"
	"github.com/MAKORA-ltd/anime-play/pkg/web"
	"github.com/gin-gonic/gin"
)

// ProposeRequest 发起交易；counterparty_id 为空时为公开提案
type ProposeRequest struct {
	CharacterID    int64 `json:"character_id" binding:"required,gt=0"`
	CounterpartyID int64 `json:"counterparty_id" binding:"gte=0"`
}

// RespondRequest 响应交易
type RespondRequest struct {
	RequestedCharacterID int64  `json:"requested_character_id" binding:"gte=0"`
	Decision             string `json:"decision" binding:"required,oneof=accept reject"`
}

func invalidParam(name string) error {
	return errs.Invalid("invalid %s", name)
}

// ListTrades 与自己相关的未决提案
func (h *Handler) ListTrades(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	list, err := h.svc.Trade.ListOpen(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, gin.H{"trades": list})
}

// ProposeTrade 发起交易
func (h *Handler) ProposeTrade(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	var req ProposeRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.Trade.Propose(c.Request.Context(), uid, req.CharacterID, req.CounterpartyID)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, p)
}

// RespondTrade 接受或拒绝
func (h *Handler) RespondTrade(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}
	var req RespondRequest
	if !web.BindAndValidate(c, &req) {
		return
	}

	p, err := h.svc.Trade.Respond(c.Request.Context(), id, uid, req.RequestedCharacterID, service.Decision(req.Decision))
	if err != nil {
		if p != nil {
			h.writeError(c, err, p)
			return
		}
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, p)
}

// CancelTrade 取消自己的提案
func (h *Handler) CancelTrade(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := web.ParamInt64(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Trade.Cancel(c.Request.Context(), id, uid)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	web.Success(c, p)
}
