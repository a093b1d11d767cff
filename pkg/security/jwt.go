package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MAKORA-ltd/anime-play/pkg/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig JWT 配置
type JWTConfig struct {
	// 对称签名密钥
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// 签名算法，支持 HS256, HS384, HS512
	Algorithm string `mapstructure:"algorithm" json:"algorithm"`

	// 默认有效期
	ExpiresIn time.Duration `mapstructure:"expires_in" json:"expires_in"`

	Issuer      string `mapstructure:"issuer" json:"issuer"`
	TokenPrefix string `mapstructure:"token_prefix" json:"token_prefix"`
	HeaderName  string `mapstructure:"header_name" json:"header_name"`

	// 跳过验证的路径，支持 /api/v1/public/* 前缀匹配
	SkipPaths []string `mapstructure:"skip_paths" json:"skip_paths"`
}

// Claims 通用 JWT Claims
type Claims struct {
	jwt.RegisteredClaims

	// Payload 自定义载荷，由调用方决定内容
	Payload map[string]any `json:"payload,omitempty"`
}

// DefaultJWTConfig 默认 JWT 配置
func DefaultJWTConfig() *JWTConfig {
	return &JWTConfig{
		Algorithm:   "HS256",
		ExpiresIn:   24 * time.Hour,
		TokenPrefix: "Bearer ",
		HeaderName:  "authorization",
	}
}

// JWTManager JWT 管理器
type JWTManager struct {
	config *JWTConfig
	method jwt.SigningMethod
	now    func() time.Time
}

// NewJWTManager 创建 JWT 管理器
func NewJWTManager(cfg *JWTConfig) (*JWTManager, error) {
	newCfg, err := config.MergeConfig(DefaultJWTConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if newCfg.SecretKey == "" {
		return nil, ErrSecretKeyEmpty
	}

	newCfg.Algorithm = strings.ToUpper(newCfg.Algorithm)
	var method jwt.SigningMethod
	switch newCfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmInvalid, newCfg.Algorithm)
	}

	return &JWTManager{config: newCfg, method: method, now: time.Now}, nil
}

// GenerateToken 签发 Token，ExpiresAt 为空时使用默认有效期
func (m *JWTManager) GenerateToken(claims *Claims) (string, error) {
	now := m.now()

	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.ExpiresIn))
	}
	if m.config.Issuer != "" && claims.Issuer == "" {
		claims.Issuer = m.config.Issuer
	}

	token := jwt.NewWithClaims(m.method, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// GenerateWithTTL 签发指定有效期的 Token
func (m *JWTManager) GenerateWithTTL(subject string, payload map[string]any, ttl time.Duration) (string, error) {
	return m.GenerateToken(&Claims{
		Payload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(m.now().Add(ttl)),
		},
	})
}

// ValidateToken 验证 Token
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = m.stripPrefix(tokenString)
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != m.config.Algorithm {
			return nil, ErrAlgorithmMismatch
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, m.wrapError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (m *JWTManager) stripPrefix(tokenString string) string {
	if m.config.TokenPrefix != "" && strings.HasPrefix(tokenString, m.config.TokenPrefix) {
		return strings.TrimPrefix(tokenString, m.config.TokenPrefix)
	}
	return tokenString
}

func (m *JWTManager) wrapError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrTokenNotValidYet
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, ErrAlgorithmMismatch):
		return ErrAlgorithmMismatch
	default:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
}

// ShouldSkip 检查路径是否跳过验证
func (m *JWTManager) ShouldSkip(path string) bool {
	for _, skipPath := range m.config.SkipPaths {
		if matchPath(skipPath, path) {
			return true
		}
	}
	return false
}

// GetConfig 获取配置
func (m *JWTManager) GetConfig() *JWTConfig {
	return m.config
}

func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

type contextKey string

// ClaimsContextKey context 中存储 Claims 的 key
const ClaimsContextKey contextKey = "jwt_claims"

// SetClaimsToContext 将 Claims 存入 context
func SetClaimsToContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// GetClaimsFromContext 从 context 获取 Claims
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// Unmarshal 将 Payload 解析到结构体
func (c *Claims) Unmarshal(v any) error {
	if c.Payload == nil {
		return nil
	}
	return mapstructure.WeakDecode(c.Payload, v)
}

// Get 获取 Payload 中的值，支持 "a.b.c" 形式的嵌套 key
func (c *Claims) Get(key string) any {
	var current any = c.Payload
	for _, k := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[k]
	}
	return current
}
