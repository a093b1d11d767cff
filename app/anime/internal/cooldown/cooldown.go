// Package cooldown 按用户与动作类型的时间窗口节流
package cooldown

import (
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
)

const (
	DefaultHuntWindow  = 300 * time.Second
	DefaultDailyWindow = 24 * time.Hour
)

// Gate 单一动作的冷却窗口
type Gate struct {
	window time.Duration
}

// NewGate 创建冷却门，window <= 0 时禁用冷却
func NewGate(window time.Duration) Gate {
	return Gate{window: window}
}

// Window 冷却窗口
func (g Gate) Window() time.Duration { return g.window }

// Remaining 返回剩余冷却时间，0 表示放行
// last 为零值表示从未执行过；时钟回拨导致 elapsed 为负时剩余时间取整个窗口
func (g Gate) Remaining(last, now time.Time) time.Duration {
	if g.window <= 0 || last.IsZero() {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed < 0 {
		return g.window
	}
	if elapsed >= g.window {
		return 0
	}
	return g.window - elapsed
}

// Check 被拦截时返回 errs.CooldownError
func (g Gate) Check(last, now time.Time) error {
	if r := g.Remaining(last, now); r > 0 {
		return errs.Cooldown(r)
	}
	return nil
}
