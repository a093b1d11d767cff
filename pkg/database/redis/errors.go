package redis

import "errors"

var (
	ErrNilConfig = errors.New("redis config is nil")

	// ErrInvalidConfig Standalone 与 Cluster 必须且只能配置一种
	ErrInvalidConfig = errors.New("invalid redis config: must specify exactly one of standalone or cluster mode")

	// ErrLockNotHeld 解锁时锁已过期或被他人持有
	ErrLockNotHeld = errors.New("redis: lock not held")
)
