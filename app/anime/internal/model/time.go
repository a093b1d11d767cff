// Package model 引擎的持久化实体
package model

import "time"

// Millis 时间统一以 UTC 毫秒持久化，零值存 0
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis Millis 的逆操作
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
