package service

import (
	"context"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/encounter"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
	"github.com/cockroachdb/errors"
)

// CaptureOutcome 捕捉结算结果
type CaptureOutcome string

const (
	OutcomeCaptured  CaptureOutcome = "captured"
	OutcomeEscaped   CaptureOutcome = "escaped"
	OutcomeDuplicate CaptureOutcome = "duplicate"
	OutcomeReleased  CaptureOutcome = "released"
)

// HuntResult 一次遭遇
type HuntResult struct {
	Encounter encounter.Encounter `json:"-"`
	Character *model.Character    `json:"character"`
	Tier      rarity.Tier         `json:"tier"`
	TierLabel string              `json:"tier_label"`
	Token     string              `json:"token"`
}

// CaptureResult 捕捉结算
type CaptureResult struct {
	Outcome   CaptureOutcome   `json:"outcome"`
	Character *model.Character `json:"character"`
	Tier      rarity.Tier      `json:"tier"`
	TierLabel string           `json:"tier_label"`
	Roll      int              `json:"roll,omitempty"`
	Stats     model.UserStats  `json:"stats"`
}

// HuntService 狩猎、捕捉与放生
type HuntService struct {
	*Core
	selector *encounter.Selector
	codec    *encounter.Codec
}

// NewHuntService 创建狩猎服务
func NewHuntService(core *Core, codec *encounter.Codec) *HuntService {
	return &HuntService{
		Core:     core,
		selector: encounter.NewSelector(core.table, core.src),
		codec:    codec,
	}
}

// Hunt 冷却允许时随机选出一个角色与等级，返回签名后的遭遇令牌；不写入任何状态
func (s *HuntService) Hunt(ctx context.Context, userID int64) (res *HuntResult, err error) {
	ctx, end := s.begin(ctx, "hunt", otel.Int64("user_id", userID))
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	db := s.store.DB()

	stats, err := s.store.Stats.Get(ctx, db, userID)
	switch {
	case errors.Is(err, errs.ErrUnknownTarget):
	case err != nil:
		return nil, err
	default:
		if err := s.huntGate.Check(stats.LastHunt, now); err != nil {
			s.metrics.RecordHunt("blocked")
			return nil, err
		}
	}

	size, err := s.store.Characters.Count(ctx, db)
	if err != nil {
		return nil, err
	}
	idx, tier, err := s.selector.Pick(size)
	if err != nil {
		s.metrics.RecordHunt("empty")
		return nil, err
	}
	character, err := s.store.Characters.AtOffset(ctx, db, idx)
	if err != nil {
		return nil, err
	}

	enc := encounter.Encounter{UserID: userID, CharacterID: character.ID, Tier: tier, At: now}
	token, err := s.codec.Encode(enc)
	if err != nil {
		return nil, errors.Wrap(err, "sign encounter")
	}

	s.metrics.RecordHunt("encounter")
	s.logger.DebugContext(ctx, "encounter", "user_id", userID, "character_id", character.ID, "tier", tier)
	return &HuntResult{
		Encounter: enc,
		Character: character,
		Tier:      tier,
		TierLabel: s.table.Label(tier),
		Token:     token,
	}, nil
}

// Catch 按遭遇令牌结算捕捉
func (s *HuntService) Catch(ctx context.Context, userID int64, token string) (*CaptureResult, error) {
	enc, err := s.decode(userID, token)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, userID, enc.CharacterID, enc.Tier, enc.At)
}

// ResolveCapture 直接结算一次捕捉（不经过遭遇令牌）
func (s *HuntService) ResolveCapture(ctx context.Context, userID, characterID int64, tier rarity.Tier) (*CaptureResult, error) {
	return s.resolve(ctx, userID, characterID, tier, time.Time{})
}

// Release 放生遭遇，记为一次失败的狩猎，不掷骰
func (s *HuntService) Release(ctx context.Context, userID int64, token string) (res *CaptureResult, err error) {
	ctx, end := s.begin(ctx, "release", otel.Int64("user_id", userID))
	defer end(&err)

	enc, err := s.decode(userID, token)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	res = &CaptureResult{Outcome: OutcomeReleased, Tier: enc.Tier, TierLabel: s.table.Label(enc.Tier)}
	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		character, err := s.store.Characters.Get(ctx, tx, enc.CharacterID)
		if err != nil {
			return err
		}
		stats, err := s.store.Stats.Ensure(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.checkUnresolved(stats, enc.At, now); err != nil {
			return err
		}
		if err := s.store.Stats.RecordHunt(ctx, tx, userID, false, now); err != nil {
			return err
		}
		stats.TotalHunts++
		stats.LastHunt = now
		res.Character = character
		res.Stats = *stats
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCapture(string(OutcomeReleased))
	s.publish(ctx, events.New(events.EncounterReleased, userID, now, map[string]any{
		"character_id": enc.CharacterID,
		"tier":         int(enc.Tier),
	}))
	return res, nil
}

func (s *HuntService) decode(userID int64, token string) (encounter.Encounter, error) {
	if err := validUser(userID); err != nil {
		return encounter.Encounter{}, err
	}
	enc, err := s.codec.Decode(token)
	if err != nil {
		return encounter.Encounter{}, err
	}
	if enc.UserID != userID {
		return encounter.Encounter{}, errors.Wrapf(errs.ErrForbidden, "encounter belongs to user %d", enc.UserID)
	}
	return enc, nil
}

// checkUnresolved 遭遇之后已经有过一次结算，说明该遭遇已被结算
func (s *HuntService) checkUnresolved(stats *model.UserStats, encounteredAt, now time.Time) error {
	if encounteredAt.IsZero() || stats.LastHunt.IsZero() || stats.LastHunt.Before(encounteredAt) {
		return nil
	}
	if remaining := s.huntGate.Remaining(stats.LastHunt, now); remaining > 0 {
		return errs.Cooldown(remaining)
	}
	return errs.Invalid("encounter already resolved")
}

func (s *HuntService) resolve(ctx context.Context, userID, characterID int64, tier rarity.Tier, encounteredAt time.Time) (res *CaptureResult, err error) {
	ctx, end := s.begin(ctx, "capture",
		otel.Int64("user_id", userID),
		otel.Int64("character_id", characterID),
		otel.Int("tier", int(tier)),
	)
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}
	weight, err := s.table.Weight(tier)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	res = &CaptureResult{Tier: tier, TierLabel: s.table.Label(tier)}
	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		character, err := s.store.Characters.Get(ctx, tx, characterID)
		if err != nil {
			return err
		}
		res.Character = character

		stats, err := s.store.Stats.Ensure(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.checkUnresolved(stats, encounteredAt, now); err != nil {
			return err
		}

		owned, err := s.store.Collections.Owns(ctx, tx, userID, characterID, true)
		if err != nil {
			return err
		}

		success := false
		switch {
		case owned:
			res.Outcome = OutcomeDuplicate
		default:
			res.Roll = rarity.Roll(s.src)
			success = res.Roll <= weight
			res.Outcome = OutcomeEscaped
			if success {
				if err := s.store.Collections.Grant(ctx, tx, userID, characterID, now); err != nil {
					return err
				}
				res.Outcome = OutcomeCaptured
			}
		}

		if err := s.store.Stats.RecordHunt(ctx, tx, userID, success, now); err != nil {
			return err
		}
		stats.TotalHunts++
		if success {
			stats.SuccessfulHunts++
		}
		stats.LastHunt = now
		res.Stats = *stats
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCapture(string(res.Outcome))
	s.logger.InfoContext(ctx, "capture resolved",
		"user_id", userID,
		"character_id", characterID,
		"tier", tier,
		"roll", res.Roll,
		"outcome", res.Outcome,
	)

	switch res.Outcome {
	case OutcomeDuplicate:
		// 统计已提交，仍以错误告知调用方
		return res, errors.Wrapf(errs.ErrDuplicateOwnership, "user %d character %d", userID, characterID)
	case OutcomeCaptured:
		s.publish(ctx, events.New(events.CharacterCaptured, userID, now, map[string]any{
			"character_id": characterID,
			"tier":         int(tier),
			"roll":         res.Roll,
		}))
	case OutcomeEscaped:
		s.publish(ctx, events.New(events.EncounterEscaped, userID, now, map[string]any{
			"character_id": characterID,
			"tier":         int(tier),
			"roll":         res.Roll,
		}))
	}
	return res, nil
}
