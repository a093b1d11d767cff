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

var statsColumns = []string{"user_id", "total_hunts", "successful_hunts", "last_hunt", "last_daily", "coins"}

// StatsDAO 用户统计数据访问对象
type StatsDAO struct {
	base
}

// Ensure 惰性创建统计行并加锁读取，用于写事务开头
func (d *StatsDAO) Ensure(ctx context.Context, q dbx.DBTX, userID int64) (s *model.UserStats, err error) {
	defer func(start time.Time) { err = d.observe("stats.ensure", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Insert("user_stats").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err = q.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	return d.get(ctx, q, userID, true)
}

// Get 读取统计行，不存在返回 ErrUnknownTarget
func (d *StatsDAO) Get(ctx context.Context, q dbx.DBTX, userID int64) (s *model.UserStats, err error) {
	defer func(start time.Time) { err = d.observe("stats.select", start, err) }(time.Now())
	return d.get(ctx, q, userID, false)
}

func (d *StatsDAO) get(ctx context.Context, q dbx.DBTX, userID int64, lock bool) (*model.UserStats, error) {
	b := d.dialect.Builder().
		Select(statsColumns...).
		From("user_stats").
		Where(squirrel.Eq{"user_id": userID})
	if lock {
		b = d.dialect.ForUpdate(b)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		s                   model.UserStats
		lastHunt, lastDaily int64
	)
	err = q.QueryRowContext(ctx, query, args...).
		Scan(&s.UserID, &s.TotalHunts, &s.SuccessfulHunts, &lastHunt, &lastDaily, &s.Coins)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errs.ErrUnknownTarget, "user %d", userID)
	}
	if err != nil {
		return nil, err
	}
	s.LastHunt = model.FromMillis(lastHunt)
	s.LastDaily = model.FromMillis(lastDaily)
	return &s, nil
}

// RecordHunt 狩猎计数 +1，成功时成功计数 +1，并写入最近狩猎时间
func (d *StatsDAO) RecordHunt(ctx context.Context, q dbx.DBTX, userID int64, success bool, at time.Time) (err error) {
	defer func(start time.Time) { err = d.observe("stats.update", start, err) }(time.Now())

	b := d.dialect.Builder().
		Update("user_stats").
		Set("total_hunts", squirrel.Expr("total_hunts + 1")).
		Set("last_hunt", model.Millis(at)).
		Where(squirrel.Eq{"user_id": userID})
	if success {
		b = b.Set("successful_hunts", squirrel.Expr("successful_hunts + 1"))
	}
	return d.execOne(ctx, q, b, userID)
}

// ClaimDaily 增加金币并写入签到时间
func (d *StatsDAO) ClaimDaily(ctx context.Context, q dbx.DBTX, userID, coins int64, at time.Time) (err error) {
	defer func(start time.Time) { err = d.observe("stats.update", start, err) }(time.Now())

	b := d.dialect.Builder().
		Update("user_stats").
		Set("coins", squirrel.Expr("coins + ?", coins)).
		Set("last_daily", model.Millis(at)).
		Where(squirrel.Eq{"user_id": userID})
	return d.execOne(ctx, q, b, userID)
}

func (d *StatsDAO) execOne(ctx context.Context, q dbx.DBTX, b squirrel.UpdateBuilder, userID int64) error {
	query, args, err := b.ToSql()
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
		return errors.Wrapf(errs.ErrUnknownTarget, "user %d", userID)
	}
	return nil
}

// Top 排行榜：成功次数降序，同分按用户 ID 升序，单条语句读取
func (d *StatsDAO) Top(ctx context.Context, q dbx.DBTX, n int) (out []model.LeaderboardRow, err error) {
	defer func(start time.Time) { err = d.observe("stats.top", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select("s.user_id", "s.total_hunts", "s.successful_hunts",
			"(SELECT COUNT(*) FROM user_collections uc WHERE uc.user_id = s.user_id) AS collection_size").
		From("user_stats s").
		OrderBy("s.successful_hunts DESC", "s.user_id ASC").
		Limit(uint64(n)).
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
		var r model.LeaderboardRow
		if err := rows.Scan(&r.UserID, &r.TotalHunts, &r.SuccessfulHunts, &r.CollectionSize); err != nil {
			return nil, err
		}
		r.Rank = len(out) + 1
		r.SuccessRate = (&model.UserStats{TotalHunts: r.TotalHunts, SuccessfulHunts: r.SuccessfulHunts}).SuccessRate()
		out = append(out, r)
	}
	return out, rows.Err()
}
