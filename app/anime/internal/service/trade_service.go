package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
	"github.com/cockroachdb/errors"
)

// Decision 对手方的响应
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseDecision 解析响应
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionAccept, DecisionReject:
		return d, nil
	default:
		return "", errs.Invalid("unknown decision %q", s)
	}
}

const openTradesLimit = 50

// TradeService 交易提案状态机
//
//	proposed -> accepted | rejected | cancelled | expired
type TradeService struct {
	*Core
}

// NewTradeService 创建交易服务
func NewTradeService(core *Core) *TradeService {
	return &TradeService{Core: core}
}

// Propose 以持有的角色发起提案；counterpartyID 为 0 时首个响应者成为对手方
func (s *TradeService) Propose(ctx context.Context, userID, characterID, counterpartyID int64) (p *model.TradeProposal, err error) {
	ctx, end := s.begin(ctx, "propose_trade",
		otel.Int64("user_id", userID),
		otel.Int64("character_id", characterID),
	)
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}
	if counterpartyID < 0 || counterpartyID == userID {
		return nil, errs.Invalid("invalid counterparty %d", counterpartyID)
	}
	id, err := s.ids.NextID()
	if err != nil {
		return nil, errors.Wrap(err, "generate trade id")
	}
	now := s.clock.Now()

	p = &model.TradeProposal{
		ID:             id,
		ProposerID:     userID,
		CounterpartyID: counterpartyID,
		OfferedID:      characterID,
		Status:         model.TradeProposed,
		CreatedAt:      now,
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.store.Characters.Get(ctx, tx, characterID); err != nil {
			return err
		}
		owned, err := s.store.Collections.Owns(ctx, tx, userID, characterID, false)
		if err != nil {
			return err
		}
		if !owned {
			return errors.Wrapf(errs.ErrNotOwned, "user %d character %d", userID, characterID)
		}
		if counterpartyID != 0 {
			if _, err := s.store.Stats.Get(ctx, tx, counterpartyID); err != nil {
				return err
			}
		}
		return s.store.Trades.Create(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTrade(string(model.TradeProposed))
	s.publish(ctx, events.New(events.TradeProposed, userID, now, map[string]any{
		"trade_id":        p.ID,
		"character_id":    characterID,
		"counterparty_id": counterpartyID,
	}))
	return p, nil
}

// Respond 对手方接受或拒绝提案
//
// 接受时原子交换双方角色；任一方在提交时已不再持有对应角色，提案转为 rejected 并返回 ErrStaleProposal。
// 已超时的提案转为 expired 并返回 ErrStaleProposal。拒绝时忽略 requestedID。
func (s *TradeService) Respond(ctx context.Context, proposalID, responderID, requestedID int64, decision Decision) (p *model.TradeProposal, err error) {
	ctx, end := s.begin(ctx, "respond_trade",
		otel.Int64("trade_id", proposalID),
		otel.Int64("user_id", responderID),
		otel.String("decision", string(decision)),
	)
	defer end(&err)

	if err := validUser(responderID); err != nil {
		return nil, err
	}
	if _, err := ParseDecision(string(decision)); err != nil {
		return nil, err
	}
	if decision == DecisionAccept && requestedID <= 0 {
		return nil, errs.Invalid("requested character is required to accept")
	}
	now := s.clock.Now()

	// 事务内的失败态迁移需要提交，因此以 stale 标记代替返回错误
	var stale bool
	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		stale = false
		cur, err := s.store.Trades.Get(ctx, tx, proposalID, true)
		if err != nil {
			return err
		}
		if cur.Status.Terminal() {
			return errors.Wrapf(errs.ErrStaleProposal, "trade %d is %s", cur.ID, cur.Status)
		}
		if responderID == cur.ProposerID {
			return errors.Wrapf(errs.ErrUnknownTarget, "proposer cannot respond to trade %d", cur.ID)
		}
		if cur.CounterpartyID != 0 && cur.CounterpartyID != responderID {
			return errors.Wrapf(errs.ErrUnknownTarget, "trade %d is addressed to user %d", cur.ID, cur.CounterpartyID)
		}
		// 公开提案只接受已加入的用户响应；指定对手方在发起时已校验
		if cur.CounterpartyID == 0 {
			if _, err := s.store.Stats.Get(ctx, tx, responderID); err != nil {
				return err
			}
		}
		p = cur
		p.ResolvedAt = now

		if p.ExpiredAt(now, s.cfg.TradeTTL) {
			p.Status = model.TradeExpired
			stale = true
			return s.store.Trades.Resolve(ctx, tx, p)
		}

		p.CounterpartyID = responderID
		if decision == DecisionReject {
			p.Status = model.TradeRejected
			return s.store.Trades.Resolve(ctx, tx, p)
		}
		p.RequestedID = requestedID

		if requestedID == p.OfferedID {
			return errs.Invalid("cannot trade a character for itself")
		}
		if _, err := s.store.Characters.Get(ctx, tx, requestedID); err != nil {
			return err
		}

		ok, err := s.lockOwnership(ctx, tx, p)
		if err != nil {
			return err
		}
		if !ok {
			p.Status = model.TradeRejected
			stale = true
			return s.store.Trades.Resolve(ctx, tx, p)
		}

		if err := s.swap(ctx, tx, p, now); err != nil {
			return err
		}
		p.Status = model.TradeAccepted
		return s.store.Trades.Resolve(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, p, now)
	if stale {
		return p, errors.Wrapf(errs.ErrStaleProposal, "trade %d is %s", p.ID, p.Status)
	}
	return p, nil
}

// lockOwnership 按 (user_id, character_id) 顺序锁定四个持有位，返回双方是否仍持有待交换的角色；
// 任一方已经持有对方的角色时返回 ErrDuplicateOwnership
func (s *TradeService) lockOwnership(ctx context.Context, tx dbx.DBTX, p *model.TradeProposal) (bool, error) {
	type slot struct{ user, character int64 }
	var (
		proposerOffered   = slot{p.ProposerID, p.OfferedID}
		counterRequested  = slot{p.CounterpartyID, p.RequestedID}
		counterOffered    = slot{p.CounterpartyID, p.OfferedID}
		proposerRequested = slot{p.ProposerID, p.RequestedID}
	)
	slots := []slot{proposerOffered, counterRequested, counterOffered, proposerRequested}
	slices.SortFunc(slots, func(a, b slot) int {
		if a.user != b.user {
			return cmp.Compare(a.user, b.user)
		}
		return cmp.Compare(a.character, b.character)
	})

	owned := make(map[slot]bool, len(slots))
	for _, sl := range slots {
		ok, err := s.store.Collections.Owns(ctx, tx, sl.user, sl.character, true)
		if err != nil {
			return false, err
		}
		owned[sl] = ok
	}

	if !owned[proposerOffered] || !owned[counterRequested] {
		return false, nil
	}
	if owned[counterOffered] || owned[proposerRequested] {
		return false, errors.Wrapf(errs.ErrDuplicateOwnership, "trade %d would duplicate ownership", p.ID)
	}
	return true, nil
}

func (s *TradeService) swap(ctx context.Context, tx dbx.DBTX, p *model.TradeProposal, now time.Time) error {
	if err := s.store.Collections.Revoke(ctx, tx, p.ProposerID, p.OfferedID); err != nil {
		return err
	}
	if err := s.store.Collections.Grant(ctx, tx, p.CounterpartyID, p.OfferedID, now); err != nil {
		return err
	}
	if err := s.store.Collections.Revoke(ctx, tx, p.CounterpartyID, p.RequestedID); err != nil {
		return err
	}
	return s.store.Collections.Grant(ctx, tx, p.ProposerID, p.RequestedID, now)
}

// Cancel 发起方取消提案
func (s *TradeService) Cancel(ctx context.Context, proposalID, userID int64) (p *model.TradeProposal, err error) {
	ctx, end := s.begin(ctx, "cancel_trade", otel.Int64("trade_id", proposalID), otel.Int64("user_id", userID))
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	err = s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.store.Trades.Get(ctx, tx, proposalID, true)
		if err != nil {
			return err
		}
		if cur.ProposerID != userID {
			return errors.Wrapf(errs.ErrForbidden, "only the proposer can cancel trade %d", cur.ID)
		}
		if cur.Status.Terminal() {
			return errors.Wrapf(errs.ErrStaleProposal, "trade %d is %s", cur.ID, cur.Status)
		}
		cur.Status = model.TradeCancelled
		cur.ResolvedAt = now
		p = cur
		return s.store.Trades.Resolve(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, p, now)
	return p, nil
}

// ListOpen 与用户相关的未决提案，已超时但尚未清理的不返回
func (s *TradeService) ListOpen(ctx context.Context, userID int64) (out []*model.TradeProposal, err error) {
	ctx, end := s.begin(ctx, "list_trades", otel.Int64("user_id", userID))
	defer end(&err)

	if err := validUser(userID); err != nil {
		return nil, err
	}
	list, err := s.store.Trades.ListOpen(ctx, s.store.DB(), userID, openTradesLimit)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out = make([]*model.TradeProposal, 0, len(list))
	for _, p := range list {
		if !p.ExpiredAt(now, s.cfg.TradeTTL) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ExpireStale 将超时的未决提案转为 expired，返回处理数量
func (s *TradeService) ExpireStale(ctx context.Context) (n int, err error) {
	ctx, end := s.begin(ctx, "expire_trades")
	defer end(&err)

	if s.cfg.TradeTTL <= 0 {
		return 0, nil
	}
	now := s.clock.Now()

	ids, err := s.store.Trades.ExpiredIDs(ctx, s.store.DB(), now.Add(-s.cfg.TradeTTL), s.cfg.ExpireBatchSize)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		var expired *model.TradeProposal
		err := s.store.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			p, err := s.store.Trades.Get(ctx, tx, id, true)
			if err != nil {
				return err
			}
			if p.Status.Terminal() || !p.ExpiredAt(now, s.cfg.TradeTTL) {
				return nil
			}
			p.Status = model.TradeExpired
			p.ResolvedAt = now
			if err := s.store.Trades.Resolve(ctx, tx, p); err != nil {
				return err
			}
			expired = p
			return nil
		})
		if err != nil {
			if errs.Retryable(err) {
				return n, err
			}
			// 并发响应抢先结算
			continue
		}
		if expired != nil {
			n++
			s.finish(ctx, expired, now)
		}
	}

	if n > 0 {
		s.logger.InfoContext(ctx, "expired stale trades", "count", n)
	}
	return n, nil
}

// finish 记录已提交的状态迁移
func (s *TradeService) finish(ctx context.Context, p *model.TradeProposal, now time.Time) {
	s.metrics.RecordTrade(string(p.Status))
	s.logger.InfoContext(ctx, "trade resolved",
		"trade_id", p.ID,
		"status", p.Status,
		"proposer_id", p.ProposerID,
		"counterparty_id", p.CounterpartyID,
	)
	s.publish(ctx, events.New(events.TradeResolved, p.ProposerID, now, map[string]any{
		"trade_id":               p.ID,
		"status":                 string(p.Status),
		"counterparty_id":        p.CounterpartyID,
		"offered_character_id":   p.OfferedID,
		"requested_character_id": p.RequestedID,
	}))
}
