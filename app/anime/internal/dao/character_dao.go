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

var characterColumns = []string{"id", "name", "series", "image_ref", "tier", "created_by", "created_at"}

// CharacterDAO 图鉴数据访问对象
type CharacterDAO struct {
	base
}

// Create 新增图鉴角色
func (d *CharacterDAO) Create(ctx context.Context, q dbx.DBTX, c *model.Character) (err error) {
	defer func(start time.Time) { err = d.observe("character.insert", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Insert("characters").
		Columns(characterColumns...).
		Values(c.ID, c.Name, c.Series, c.ImageRef, int(c.Tier), c.CreatedBy, model.Millis(c.CreatedAt)).
		ToSql()
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, query, args...)
	return err
}

// Get 按 ID 查询，不存在返回 ErrUnknownTarget
func (d *CharacterDAO) Get(ctx context.Context, q dbx.DBTX, id int64) (c *model.Character, err error) {
	defer func(start time.Time) { err = d.observe("character.select", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select(characterColumns...).
		From("characters").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err = scanCharacter(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errs.ErrUnknownTarget, "character %d", id)
	}
	return c, err
}

// Count 图鉴总数
func (d *CharacterDAO) Count(ctx context.Context, q dbx.DBTX) (n int, err error) {
	defer func(start time.Time) { err = d.observe("character.count", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().Select("COUNT(*)").From("characters").ToSql()
	if err != nil {
		return 0, err
	}
	err = q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// AtOffset 按 ID 顺序取第 offset 个角色，用于均匀抽取
func (d *CharacterDAO) AtOffset(ctx context.Context, q dbx.DBTX, offset int) (c *model.Character, err error) {
	defer func(start time.Time) { err = d.observe("character.select", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select(characterColumns...).
		From("characters").
		OrderBy("id").
		Limit(1).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err = scanCharacter(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		// 并发删除之外不会发生，图鉴只增不减
		return nil, errs.ErrEmptyCatalog
	}
	return c, err
}

// List 分页列出图鉴
func (d *CharacterDAO) List(ctx context.Context, q dbx.DBTX, limit, offset int) (out []*model.Character, err error) {
	defer func(start time.Time) { err = d.observe("character.list", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select(characterColumns...).
		From("characters").
		OrderBy("id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
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
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(s scanner) (*model.Character, error) {
	var (
		c         model.Character
		tier      int
		createdAt int64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Series, &c.ImageRef, &tier, &c.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	c.Tier = rarity.Tier(tier)
	c.CreatedAt = model.FromMillis(createdAt)
	return &c, nil
}

// Exists 是否已有同名同作品的角色
func (d *CharacterDAO) Exists(ctx context.Context, q dbx.DBTX, name, series string) (found bool, err error) {
	defer func(start time.Time) { err = d.observe("character.select", start, err) }(time.Now())

	query, args, err := d.dialect.Builder().
		Select("1").
		From("characters").
		Where(squirrel.Eq{"name": name, "series": series}).
		Limit(1).
		ToSql()
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
