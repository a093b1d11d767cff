package service

import (
	"context"
	"strings"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/events"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/model"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/pkg/otel"
	"github.com/cockroachdb/errors"
)

// NewCharacter 新增图鉴角色的参数
type NewCharacter struct {
	Name     string      `json:"name" yaml:"name" binding:"required,max=128"`
	Series   string      `json:"series" yaml:"series" binding:"max=128"`
	ImageRef string      `json:"image_ref" yaml:"image_ref" binding:"max=1024"`
	Tier     rarity.Tier `json:"tier" yaml:"tier" binding:"required"`
}

// CatalogService 图鉴管理
type CatalogService struct {
	*Core
}

// NewCatalogService 创建图鉴服务
func NewCatalogService(core *Core) *CatalogService {
	return &CatalogService{Core: core}
}

// IsAdmin 是否为管理员
func (s *CatalogService) IsAdmin(userID int64) bool {
	return s.cfg.IsAdmin(userID)
}

// AddCharacter 管理员新增图鉴角色
func (s *CatalogService) AddCharacter(ctx context.Context, adminID int64, in NewCharacter) (c *model.Character, err error) {
	ctx, end := s.begin(ctx, "add_character", otel.Int64("user_id", adminID), otel.Int("tier", int(in.Tier)))
	defer end(&err)

	if !s.cfg.IsAdmin(adminID) {
		return nil, errors.Wrapf(errs.ErrForbidden, "user %d is not an admin", adminID)
	}
	if !s.table.Valid(in.Tier) {
		return nil, errors.Wrapf(errs.ErrInvalidTier, "tier %d", in.Tier)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.Invalid("character name is required")
	}

	id, err := s.ids.NextID()
	if err != nil {
		return nil, errors.Wrap(err, "generate character id")
	}
	c = &model.Character{
		ID:        id,
		Name:      name,
		Series:    strings.TrimSpace(in.Series),
		ImageRef:  strings.TrimSpace(in.ImageRef),
		Tier:      in.Tier,
		CreatedBy: adminID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.Characters.Create(ctx, s.store.DB(), c); err != nil {
		return nil, err
	}

	s.metrics.RecordCatalogAdd()
	s.logger.InfoContext(ctx, "character added", "id", c.ID, "name", c.Name, "tier", c.Tier, "admin_id", adminID)
	s.publish(ctx, events.New(events.CharacterAdded, adminID, c.CreatedAt, map[string]any{
		"character_id": c.ID,
		"name":         c.Name,
		"series":       c.Series,
		"tier":         int(c.Tier),
	}))
	return c, nil
}

// Exists 图鉴中是否已有同名同作品的角色
func (s *CatalogService) Exists(ctx context.Context, name, series string) (bool, error) {
	return s.store.Characters.Exists(ctx, s.store.DB(), strings.TrimSpace(name), strings.TrimSpace(series))
}

// List 分页列出图鉴
func (s *CatalogService) List(ctx context.Context, limit, offset int) (out []*model.Character, err error) {
	ctx, end := s.begin(ctx, "list_characters")
	defer end(&err)

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset = max(offset, 0)

	out, err = s.store.Characters.List(ctx, s.store.DB(), limit, offset)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*model.Character{}
	}
	return out, nil
}
