package handler

import (
	"math"
	"net/http"
	"strconv"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/pkg/web"
	weberrors "github.com/MAKORA-ltd/anime-play/pkg/web/errors"
	"github.com/gin-gonic/gin"
)

// 引擎业务错误码
const (
	CodeCooldownActive     = 42001
	CodeEmptyCatalog       = 42002
	CodeDuplicateOwnership = 42003
	CodeNotOwned           = 42004
	CodeUnknownTarget      = 42005
	CodeInvalidTier        = 42006
	CodeStaleProposal      = 42007
)

type errorMapping struct {
	status int
	code   int
}

var kindMappings = map[string]errorMapping{
	"cooldown_active":     {http.StatusTooManyRequests, CodeCooldownActive},
	"empty_catalog":       {http.StatusNotFound, CodeEmptyCatalog},
	"duplicate_ownership": {http.StatusConflict, CodeDuplicateOwnership},
	"not_owned":           {http.StatusConflict, CodeNotOwned},
	"unknown_target":      {http.StatusNotFound, CodeUnknownTarget},
	"invalid_tier":        {http.StatusBadRequest, CodeInvalidTier},
	"stale_proposal":      {http.StatusConflict, CodeStaleProposal},
	"forbidden":           {http.StatusForbidden, weberrors.CodeForbidden},
	"invalid_argument":    {http.StatusBadRequest, weberrors.CodeInvalidParams},
	"store_unavailable":   {http.StatusServiceUnavailable, weberrors.CodeUnavailable},
}

// cooldownData 冷却中的附加数据
type cooldownData struct {
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// writeError 将引擎错误映射为业务码；data 非空时一并返回
func (h *Handler) writeError(c *gin.Context, err error, data any) {
	kind := errs.Kind(err)
	m, ok := kindMappings[kind]
	if !ok {
		h.logger.ErrorContext(c.Request.Context(), "unexpected engine error", "path", c.FullPath(), "error", err)
		h.report(c, kind, err)
		web.Error(c, http.StatusInternalServerError, weberrors.CodeInternalError, "internal error")
		return
	}

	msg := err.Error()
	switch kind {
	case "cooldown_active":
		remaining, _ := errs.RemainingCooldown(err)
		secs := int64(math.Ceil(remaining.Seconds()))
		c.Header("Retry-After", strconv.FormatInt(secs, 10))
		if data == nil {
			data = cooldownData{RemainingSeconds: secs}
		}
	case "store_unavailable":
		h.report(c, kind, err)
		c.Header("Retry-After", "1")
		msg = "store unavailable, retry later"
	}

	if data != nil {
		web.ErrorWithData(c, m.status, m.code, msg, data)
		return
	}
	web.Error(c, m.status, m.code, msg)
}

func (h *Handler) report(c *gin.Context, kind string, err error) {
	if h.reporter == nil {
		return
	}
	h.reporter.Report(c.Request.Context(), err, map[string]string{
		"route": c.FullPath(),
		"kind":  kind,
	})
}
