package model

import "time"

// UserStats 用户统计，首次狩猎或首次签到时惰性创建
// 对应表：user_stats
type UserStats struct {
	UserID          int64     `json:"user_id"`
	TotalHunts      int64     `json:"total_hunts"`
	SuccessfulHunts int64     `json:"successful_hunts"`
	LastHunt        time.Time `json:"last_hunt"`  // 零值表示从未狩猎
	LastDaily       time.Time `json:"last_daily"` // 零值表示从未签到
	Coins           int64     `json:"coins"`
}

// SuccessRate 成功率，TotalHunts 为 0 时返回 0
func (s *UserStats) SuccessRate() float64 {
	if s.TotalHunts == 0 {
		return 0
	}
	return float64(s.SuccessfulHunts) / float64(s.TotalHunts)
}

// LeaderboardRow 排行榜行
type LeaderboardRow struct {
	Rank            int     `json:"rank"`
	UserID          int64   `json:"user_id"`
	TotalHunts      int64   `json:"total_hunts"`
	SuccessfulHunts int64   `json:"successful_hunts"`
	SuccessRate     float64 `json:"success_rate"`
	CollectionSize  int64   `json:"collection_size"`
}
