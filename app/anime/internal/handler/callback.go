package handler

import (
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/command"
	"github.com/MAKORA-ltd/anime-play/pkg/web"
	"github.com/gin-gonic/gin"
)

// CallbackRequest 网关按钮回调
type CallbackRequest struct {
	Data string `json:"data" binding:"required,callback"`
}

// Callback 解析回调载荷并分发
func (h *Handler) Callback(c *gin.Context) {
	uid, ok := h.userID(c)
	if !ok {
		return
	}
	var req CallbackRequest
	if !web.BindAndValidate(c, &req) {
		return
	}
	cmd, err := command.ParseCallback(req.Data)
	if err != nil {
		h.writeError(c, err, nil)
		return
	}
	h.dispatch(c, uid, cmd)
}

func (h *Handler) dispatch(c *gin.Context, uid int64, cmd command.Command) {
	ctx := c.Request.Context()

	switch cmd.Kind {
	case command.KindCatch:
		res, err := h.svc.Hunt.Catch(ctx, uid, cmd.Token)
		h.writeCapture(c, res, err)
	case command.KindRelease:
		res, err := h.svc.Hunt.Release(ctx, uid, cmd.Token)
		h.writeCapture(c, res, err)
	case command.KindTrade:
		p, err := h.svc.Trade.Propose(ctx, uid, cmd.CharacterID, 0)
		if err != nil {
			h.writeError(c, err, nil)
			return
		}
		web.Success(c, p)
	}
}
