package idgen

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/sonyflake"
)

// Config Sonyflake 配置
type Config struct {
	// MachineID 0-65535，同一数据库的多个实例必须不同
	MachineID uint16 `mapstructure:"machine_id"`
	// Epoch 起始时间，默认 2025-01-01 UTC；上线后不可修改
	Epoch time.Time `mapstructure:"epoch"`
}

type sonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflake 创建基于 Sonyflake 的 ID 生成器
func NewSonyflake(cfg *Config) (Generator, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	epoch := cfg.Epoch
	if epoch.IsZero() {
		epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	machineID := cfg.MachineID

	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: epoch,
		MachineID: func() (uint16, error) { return machineID, nil },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sonyflake generator")
	}
	return &sonyflakeGenerator{sf: sf}, nil
}

func (g *sonyflakeGenerator) NextID() (int64, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return 0, errors.Wrap(err, "failed to generate id")
	}
	return int64(id), nil
}
