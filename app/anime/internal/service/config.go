package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/cooldown"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/encounter"
	"github.com/MAKORA-ltd/anime-play/pkg/config"
)

// Config 引擎配置（engine 段）
type Config struct {
	HuntCooldown  time.Duration `mapstructure:"hunt_cooldown" json:"hunt_cooldown" validate:"gte=0"`
	DailyCooldown time.Duration `mapstructure:"daily_cooldown" json:"daily_cooldown" validate:"gte=0"`

	// 每日签到金币区间，闭区间
	DailyCoinsMin int64 `mapstructure:"daily_coins_min" json:"daily_coins_min" validate:"gte=0"`
	DailyCoinsMax int64 `mapstructure:"daily_coins_max" json:"daily_coins_max" validate:"gtefield=DailyCoinsMin"`

	TradeTTL     time.Duration `mapstructure:"trade_ttl" json:"trade_ttl" validate:"gte=0"`
	EncounterTTL time.Duration `mapstructure:"encounter_ttl" json:"encounter_ttl" validate:"gte=0"`

	// AdminIDs 可以新增图鉴角色的用户
	AdminIDs []int64 `mapstructure:"admin_ids" json:"admin_ids"`

	LeaderboardSize int `mapstructure:"leaderboard_size" json:"leaderboard_size" validate:"gte=1,lte=100"`
	ExpireBatchSize int `mapstructure:"expire_batch_size" json:"expire_batch_size" validate:"gte=1"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		HuntCooldown:    cooldown.DefaultHuntWindow,
		DailyCooldown:   cooldown.DefaultDailyWindow,
		DailyCoinsMin:   100,
		DailyCoinsMax:   500,
		TradeTTL:        24 * time.Hour,
		EncounterTTL:    encounter.DefaultTokenTTL,
		LeaderboardSize: 10,
		ExpireBatchSize: 500,
	}
}

// NewConfig 合并默认值并校验
func NewConfig(cfg *Config) (*Config, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge engine config: %w", err)
	}
	if err := config.NewValidator().Validate(newCfg); err != nil {
		return nil, err
	}
	return newCfg, nil
}

// IsAdmin 是否在管理员白名单中
func (c *Config) IsAdmin(userID int64) bool {
	return userID > 0 && slices.Contains(c.AdminIDs, userID)
}
