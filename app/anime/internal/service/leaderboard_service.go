package service

import (
	"context"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
)

const maxLeaderboardSize = 100

// LeaderboardService 排行榜
type LeaderboardService struct {
	*Core
}

// NewLeaderboardService 创建排行榜服务
func NewLeaderboardService(core *Core) *LeaderboardService {
	return &LeaderboardService{Core: core}
}

// Top 前 n 名，n <= 0 时使用配置的默认值
func (s *LeaderboardService) Top(ctx context.Context, n int) (rows []model.LeaderboardRow, err error) {
	ctx, end := s.begin(ctx, "leaderboard", otel.Int("n", n))
	defer end(&err)

	if n <= 0 {
		n = s.cfg.LeaderboardSize
	}
	n = min(n, maxLeaderboardSize)

	rows, err = s.store.Stats.Top(ctx, s.store.DB(), n)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.LeaderboardRow{}
	}
	return rows, nil
}
