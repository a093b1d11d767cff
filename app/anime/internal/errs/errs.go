// Package errs 定义收集与经济引擎对外的错误类型
//
// 所有错误都是带类型的结果，调用方通过 errors.Is 判断；只有 ErrStoreUnavailable 可重试。
package errs

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrCooldownActive     = errors.New("cooldown active")
	ErrEmptyCatalog       = errors.New("catalog is empty")
	ErrDuplicateOwnership = errors.New("character already owned")
	ErrNotOwned           = errors.New("character not owned")
	ErrUnknownTarget      = errors.New("unknown target")
	ErrInvalidTier        = errors.New("invalid rarity tier")
	ErrStaleProposal      = errors.New("trade proposal is stale")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// CooldownError 冷却中，携带剩余时间
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: %s remaining", e.Remaining.Round(time.Second))
}

// Is 使 errors.Is(err, ErrCooldownActive) 成立
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// Cooldown 构造冷却错误
func Cooldown(remaining time.Duration) error {
	return &CooldownError{Remaining: remaining}
}

// RemainingCooldown 提取剩余冷却时间
func RemainingCooldown(err error) (time.Duration, bool) {
	var ce *CooldownError
	if errors.As(err, &ce) {
		return ce.Remaining, true
	}
	return 0, false
}

type kindError struct {
	cause error
	kind  error
}

func (e *kindError) Error() string        { return e.cause.Error() }
func (e *kindError) Unwrap() error        { return e.cause }
func (e *kindError) Is(target error) bool { return target == e.kind }

// Mark 将 err 标记为 kind，保留原始错误链；标准库与 cockroachdb 的 errors.Is 都能识别
func Mark(err, kind error) error {
	if err == nil {
		return nil
	}
	return &kindError{cause: err, kind: kind}
}

// Store 标记存储层失败，保留原始错误链
func Store(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return Mark(errors.Wrapf(err, "store: %s", op), ErrStoreUnavailable)
}

// Invalid 构造参数错误
func Invalid(format string, args ...any) error {
	return Mark(errors.Newf(format, args...), ErrInvalidArgument)
}

// Retryable 是否可重试
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Kind 返回错误类型的稳定名称，用于日志与指标标签
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCooldownActive):
		return "cooldown_active"
	case errors.Is(err, ErrEmptyCatalog):
		return "empty_catalog"
	case errors.Is(err, ErrDuplicateOwnership):
		return "duplicate_ownership"
	case errors.Is(err, ErrNotOwned):
		return "not_owned"
	case errors.Is(err, ErrUnknownTarget):
		return "unknown_target"
	case errors.Is(err, ErrInvalidTier):
		return "invalid_tier"
	case errors.Is(err, ErrStaleProposal):
		return "stale_proposal"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
