package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MAKORA-ltd/anime-play/pkg/logger"
	"github.com/MAKORA-ltd/anime-play/pkg/security"
	weberrors "github.com/MAKORA-ltd/anime-play/pkg/web/errors"
	"github.com/gin-gonic/gin"
)

const (
	// ClaimsKey Context 中存储 Claims 的 key
	ClaimsKey = "jwt_claims"
	// UserIDKey Context 与 Payload 中用户 ID 的 key
	UserIDKey = "uid"
)

// Auth JWT 认证中间件
// 通过后将 uid 写入 gin.Context 与请求 context，日志会自动带上 uid
func Auth(m *security.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.ShouldSkip(c.Request.URL.Path) {
			c.Next()
			return
		}

		token := extractToken(c, m.GetConfig())
		if token == "" {
			abortUnauthorized(c, security.ErrTokenMissing)
			return
		}

		claims, err := m.ValidateToken(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		uid, ok := payloadInt64(claims, UserIDKey)
		if !ok {
			abortUnauthorized(c, security.ErrTokenInvalid)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, uid)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), uid))
		c.Next()
	}
}

func extractToken(c *gin.Context, cfg *security.JWTConfig) string {
	header := c.GetHeader(cfg.HeaderName)
	if cfg.TokenPrefix != "" {
		return strings.TrimPrefix(header, cfg.TokenPrefix)
	}
	return header
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    weberrors.CodeUnAuthorized,
		"message": err.Error(),
		"data":    nil,
	})
}

// payloadInt64 JSON 数字解码为 float64，字符串形式的 ID 也接受
func payloadInt64(claims *security.Claims, key string) (int64, bool) {
	switch v := claims.Get(key).(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	if claims.Subject != "" {
		n, err := strconv.ParseInt(claims.Subject, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// GetClaims 从 Context 获取 Claims
func GetClaims(c *gin.Context) (*security.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*security.Claims)
	return claims, ok
}

// GetUserID 从 Context 获取已认证的用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}
