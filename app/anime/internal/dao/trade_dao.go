package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
)

var tradeColumns = []string{
	"id", "proposer_id", "counterparty_id", "offered_character_id", "requested_character_id",
	"status", "created_at", "resolved_at",
}

// TradeDAO 交易提案数据访问对象
type TradeDAO struct {
	base
}

// Create 新建提案
func (d *TradeDAO) Create(ctx context.Context, q dbx.DBTX, p *model.TradeProposal) (err error) {
	defer func(start time.Time) { err = d.observe("trade.insert", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Insert("trade_proposals").
		Columns(tradeColumns...).
		Values(p.ID, p.ProposerID, p.CounterpartyID, p.OfferedID, nullID(p.RequestedID),
			string(p.Status), model.Millis(p.CreatedAt), model.Millis(p.ResolvedAt)).
		ToSql()
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, query, args...)
	return err
}

// Get 查询提案，lock 为 true 时加行锁；不存在返回 ErrUnknownTarget
func (d *TradeDAO) Get(ctx context.Context, q dbx.DBTX, id int64, lock bool) (p *model.TradeProposal, err error) {
	defer func(start time.Time) { err = d.observe("trade.select", start, err) }(time.Now())

	b := d.dialect.Builder().
		Select(tradeColumns...).
		From("trade_proposals").
		Where(squirrel.Eq{"id": id})
	if lock {
		b = d.dialect.ForUpdate(b)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	p, err = scanTrade(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errs.ErrUnknownTarget, "trade %d", id)
	}
	return p, err
}

// Resolve 将 proposed 状态的提案迁移到终态；提案已不是 proposed 时返回 ErrStaleProposal
func (d *TradeDAO) Resolve(ctx context.Context, q dbx.DBTX, p *model.TradeProposal) (err error) {
	defer func(start time.Time) { err = d.observe("trade.update", start, err) }(time.Now())

	if !p.Status.Terminal() {
		return errors.AssertionFailedf("resolve trade %d with non-terminal status %s", p.ID, p.Status)
	}

	query, args, err := d.dialect.Builder().
		Update("trade_proposals").
		Set("status", string(p.Status)).
		Set("counterparty_id", p.CounterpartyID).
		Set("requested_character_id", nullID(p.RequestedID)).
		Set("resolved_at", model.Millis(p.ResolvedAt)).
		Where(squirrel.Eq{"id": p.ID, "status": string(model.TradeProposed)}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(errs.ErrStaleProposal, "trade %d", p.ID)
	}
	return nil
}

// ListOpen 用户作为发起方或指定对手方的未决提案，以及未指定对手方的公开提案
func (d *TradeDAO) ListOpen(ctx context.Context, q dbx.DBTX, userID int64, limit int) (out []*model.TradeProposal, err error) {
	defer func(start time.Time) { err = d.observe("trade.list", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select(tradeColumns...).
		From("trade_proposals").
		Where(squirrel.Eq{"status": string(model.TradeProposed)}).
		Where(squirrel.Or{
			squirrel.Eq{"proposer_id": userID},
			squirrel.Eq{"counterparty_id": []int64{userID, 0}},
		}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return d.list(ctx, q, query, args)
}

// ExpiredIDs 创建时间不晚于 cutoff 的未决提案
func (d *TradeDAO) ExpiredIDs(ctx context.Context, q dbx.DBTX, cutoff time.Time, limit int) (ids []int64, err error) {
	defer func(start time.Time) { err = d.observe("trade.list", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select("id").
		From("trade_proposals").
		Where(squirrel.Eq{"status": string(model.TradeProposed)}).
		Where(squirrel.LtOrEq{"created_at": model.Millis(cutoff)}).
		OrderBy("created_at", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (d *TradeDAO) list(ctx context.Context, q dbx.DBTX, query string, args []any) ([]*model.TradeProposal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TradeProposal
	for rows.Next() {
		p, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanTrade(s scanner) (*model.TradeProposal, error) {
	var (
		p                     model.TradeProposal
		requested             sql.NullInt64
		status                string
		createdAt, resolvedAt int64
	)
	if err := s.Scan(&p.ID, &p.ProposerID, &p.CounterpartyID, &p.OfferedID, &requested,
		&status, &createdAt, &resolvedAt); err != nil {
		return nil, err
	}
	p.RequestedID = requested.Int64
	p.Status = model.TradeStatus(status)
	p.CreatedAt = model.FromMillis(createdAt)
	p.ResolvedAt = model.FromMillis(resolvedAt)
	return &p, nil
}

// nullID 未指定的角色写为 NULL，外键只约束真实角色
func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
