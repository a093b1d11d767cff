package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/pkg/database/dbx"
	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
)

// CollectionDAO 持有记录（所有权账本）数据访问对象
type CollectionDAO struct {
	base
}

// Grant 授予持有记录，(user, character) 已存在时返回 ErrDuplicateOwnership
func (d *CollectionDAO) Grant(ctx context.Context, q dbx.DBTX, userID, characterID int64, at time.Time) (err error) {
	defer func(start time.Time) { err = d.observe("collection.insert", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Insert("user_collections").
		Columns("user_id", "character_id", "obtained_at").
		Values(userID, characterID, model.Millis(at)).
		Suffix("ON CONFLICT (user_id, character_id) DO NOTHING").
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
		return errors.Wrapf(errs.ErrDuplicateOwnership, "user %d character %d", userID, characterID)
	}
	return nil
}

// Revoke 删除持有记录，不存在时返回 ErrNotOwned
func (d *CollectionDAO) Revoke(ctx context.Context, q dbx.DBTX, userID, characterID int64) (err error) {
	defer func(start time.Time) { err = d.observe("collection.delete", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Delete("user_collections").
		Where(squirrel.Eq{"user_id": userID, "character_id": characterID}).
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
		return errors.Wrapf(errs.ErrNotOwned, "user %d character %d", userID, characterID)
	}
	return nil
}

// Owns 是否持有，lock 为 true 时在支持的方言上加行锁
func (d *CollectionDAO) Owns(ctx context.Context, q dbx.DBTX, userID, characterID int64, lock bool) (owned bool, err error) {
	defer func(start time.Time) { err = d.observe("collection.select", start, err) }(time.Now())

	b := d.dialect.Builder().
		Select("1").
		From("user_collections").
		Where(squirrel.Eq{"user_id": userID, "character_id": characterID})
	if lock {
		b = d.dialect.ForUpdate(b)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return false, err
	}

	var one int
	err = q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// List 用户收藏，按等级降序、获得时间降序
func (d *CollectionDAO) List(ctx context.Context, q dbx.DBTX, userID int64) (out []model.CollectionEntry, err error) {
	defer func(start time.Time) { err = d.observe("collection.list", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select("c.id", "c.name", "c.series", "c.image_ref", "c.tier", "c.created_by", "c.created_at", "uc.obtained_at").
		From("user_collections uc").
		Join("characters c ON c.id = uc.character_id").
		Where(squirrel.Eq{"uc.user_id": userID}).
		OrderBy("c.tier DESC", "uc.obtained_at DESC", "c.id ASC").
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
		var (
			e                   model.CollectionEntry
			tier                int
			createdAt, obtained int64
		)
		if err := rows.Scan(&e.Character.ID, &e.Character.Name, &e.Character.Series, &e.Character.ImageRef,
			&tier, &e.Character.CreatedBy, &createdAt, &obtained); err != nil {
			return nil, err
		}
		e.Character.Tier = rarity.Tier(tier)
		e.Character.CreatedAt = model.FromMillis(createdAt)
		e.ObtainedAt = model.FromMillis(obtained)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count 用户持有数量
func (d *CollectionDAO) Count(ctx context.Context, q dbx.DBTX, userID int64) (n int64, err error) {
	defer func(start time.Time) { err = d.observe("collection.count", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select("COUNT(*)").
		From("user_collections").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, err
	}
	err = q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}
