package service

import (
	"context"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
	"github.com/cockroachdb/errors"
)

// CollectionView 用户收藏与统计摘要
type CollectionView struct {
	UserID      int64                   `json:"user_id"`
	Entries     []model.CollectionEntry `json:"entries"`
	Stats       model.UserStats         `json:"stats"`
	SuccessRate float64                 `json:"success_rate"`
}

// CollectionService 收藏查看与赠送
type CollectionService struct {
	*Core
}

// NewCollectionService 创建收藏服务
func NewCollectionService(core *Core) *CollectionService {
	return &CollectionService{Core: core}
}

// View 收藏按等级降序、获得时间降序；从未参与过的用户返回空收藏
func (s *CollectionService) View(ctx context.Context, userID int64) (view *CollectionView, err error) {
	ctx, end := s.begin(ctx, "view_collection", otel.Int64("user_id", userID))
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}

	entries, err := s.entries(ctx, userID)
	if err != nil {
		return nil, err
	}

	view = &CollectionView{UserID: userID, Entries: entries, Stats: model.UserStats{UserID: userID}}
	stats, err := s.store.Stats.Get(ctx, s.store.DB(), userID)
	switch {
	case errors.Is(err, errs.ErrUnknownTarget):
	case err != nil:
		return nil, err
	default:
		view.Stats = *stats
	}
	view.SuccessRate = view.Stats.SuccessRate()
	return view, nil
}

// Tradable 可用于发起交易的角色
func (s *CollectionService) Tradable(ctx context.Context, userID int64) (out []model.CollectionEntry, err error) {
	ctx, end := s.begin(ctx, "list_tradable", otel.Int64("user_id", userID))
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}
	return s.entries(ctx, userID)
}

func (s *CollectionService) entries(ctx context.Context, userID int64) ([]model.CollectionEntry, error) {
	entries, err := s.store.Collections.List(ctx, s.store.DB(), userID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].TierLabel = s.table.Label(entries[i].Character.Tier)
	}
	if entries == nil {
		entries = []model.CollectionEntry{}
	}
	return entries, nil
}

// Gift 将角色从 fromID 转移给 toID；目标须已参与过游戏
func (s *CollectionService) Gift(ctx context.Context, fromID, toID, characterID int64) (character *model.Character, err error) {
	ctx, end := s.begin(ctx, "gift",
		otel.Int64("user_id", fromID),
		otel.Int64("target_id", toID),
		otel.Int64("character_id", characterID),
	)
	defer end(&err)
	defer func() {
		s.metrics.RecordGift(errs.Kind(err))
	}()

	if err := validUser(fromID); err != nil {
		return nil, err
	}
	if err := validUser(toID); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, errs.Invalid("cannot gift to yourself")
	}
	now := s.clock.Now()

	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.store.Characters.Get(ctx, tx, characterID)
		if err != nil {
			return err
		}
		if _, err := s.store.Stats.Get(ctx, tx, toID); err != nil {
			return err
		}

		// 固定按用户 ID 顺序加锁
		first, second := fromID, toID
		if second < first {
			first, second = second, first
		}
		owned := map[int64]bool{}
		for _, uid := range []int64{first, second} {
			ok, err := s.store.Collections.Owns(ctx, tx, uid, characterID, true)
			if err != nil {
				return err
			}
			owned[uid] = ok
		}
		if !owned[fromID] {
			return errors.Wrapf(errs.ErrNotOwned, "user %d character %d", fromID, characterID)
		}
		if owned[toID] {
			return errors.Wrapf(errs.ErrDuplicateOwnership, "user %d character %d", toID, characterID)
		}

		if err := s.store.Collections.Revoke(ctx, tx, fromID, characterID); err != nil {
			return err
		}
		if err := s.store.Collections.Grant(ctx, tx, toID, characterID, now); err != nil {
			return err
		}
		character = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "character gifted", "from", fromID, "to", toID, "character_id", characterID)
	s.publish(ctx, events.New(events.CharacterGifted, fromID, now, map[string]any{
		"to_user_id":   toID,
		"character_id": characterID,
	}))
	return character, nil
}
