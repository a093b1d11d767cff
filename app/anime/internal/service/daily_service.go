package service

import (
	"context"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
	"github.com/cockroachdb/errors"
)

// DailyResult 签到结果
type DailyResult struct {
	Coins     int64     `json:"coins"`
	Balance   int64     `json:"balance"`
	NextClaim time.Time `json:"next_claim"`
}

// DailyService 每日签到
type DailyService struct {
	*Core
}

// NewDailyService 创建签到服务
func NewDailyService(core *Core) *DailyService {
	return &DailyService{Core: core}
}

// Claim 冷却允许时发放 [min, max] 区间内的随机金币；被拦截时不做任何修改
func (s *DailyService) Claim(ctx context.Context, userID int64) (res *DailyResult, err error) {
	ctx, end := s.begin(ctx, "claim_daily", otel.Int64("user_id", userID))
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		stats, err := s.store.Stats.Ensure(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.dailyGate.Check(stats.LastDaily, now); err != nil {
			return err
		}

		coins := s.cfg.DailyCoinsMin + int64(s.src.IntN(int(s.cfg.DailyCoinsMax-s.cfg.DailyCoinsMin)+1))
		if err := s.store.Stats.ClaimDaily(ctx, tx, userID, coins, now); err != nil {
			return err
		}
		res = &DailyResult{
			Coins:     coins,
			Balance:   stats.Coins + coins,
			NextClaim: now.Add(s.dailyGate.Window()),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errs.ErrCooldownActive) {
			s.metrics.RecordDaily("blocked", 0)
		}
		return nil, err
	}

	s.metrics.RecordDaily("granted", res.Coins)
	s.publish(ctx, events.New(events.DailyClaimed, userID, now, map[string]any{
		"coins":   res.Coins,
		"balance": res.Balance,
	}))
	return res, nil
}
