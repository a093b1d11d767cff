package encounter

import (
	"strconv"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/pkg/security"
	"github.com/cockroachdb/errors"
)

const tokenSubject = "encounter"

// DefaultTokenTTL 遭遇令牌默认有效期
const DefaultTokenTTL = 10 * time.Minute

// Codec 将遭遇签名为短期令牌交给网关，捕捉时原样带回，防止伪造等级
type Codec struct {
	jwt *security.JWTManager
	ttl time.Duration
}

// NewCodec 创建令牌编解码器
func NewCodec(m *security.JWTManager, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{jwt: m, ttl: ttl}
}

// Encode 签发遭遇令牌
func (c *Codec) Encode(e Encounter) (string, error) {
	return c.jwt.GenerateWithTTL(tokenSubject, map[string]any{
		"uid":  strconv.FormatInt(e.UserID, 10),
		"cid":  strconv.FormatInt(e.CharacterID, 10),
		"tier": int(e.Tier),
		"at":   strconv.FormatInt(e.At.UnixMilli(), 10),
	}, c.ttl)
}

// Decode 校验并解析遭遇令牌，任何校验失败都视为参数错误
func (c *Codec) Decode(token string) (Encounter, error) {
	claims, err := c.jwt.ValidateToken(token)
	if err != nil {
		return Encounter{}, errs.Mark(errors.Wrap(err, "encounter token"), errs.ErrInvalidArgument)
	}
	if claims.Subject != tokenSubject {
		return Encounter{}, errs.Invalid("encounter token: unexpected subject %q", claims.Subject)
	}

	var payload struct {
		UserID      int64 `mapstructure:"uid"`
		CharacterID int64 `mapstructure:"cid"`
		Tier        int   `mapstructure:"tier"`
		At          int64 `mapstructure:"at"`
	}
	if err := claims.Unmarshal(&payload); err != nil {
		return Encounter{}, errs.Mark(errors.Wrap(err, "encounter token payload"), errs.ErrInvalidArgument)
	}
	if payload.UserID == 0 || payload.CharacterID == 0 || payload.At == 0 {
		return Encounter{}, errs.Invalid("encounter token: incomplete payload")
	}

	return Encounter{
		UserID:      payload.UserID,
		CharacterID: payload.CharacterID,
		Tier:        rarity.Tier(payload.Tier),
		At:          time.UnixMilli(payload.At).UTC(),
	}, nil
}
