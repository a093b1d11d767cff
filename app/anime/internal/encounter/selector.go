// Package encounter 遭遇选择与遭遇令牌
package encounter

import (
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
)

// Encounter 一次尚未结算的遭遇
type Encounter struct {
	UserID      int64       `mapstructure:"uid" json:"uid"`
	CharacterID int64       `mapstructure:"cid" json:"cid"`
	Tier        rarity.Tier `mapstructure:"tier" json:"tier"`
	At          time.Time   `mapstructure:"-" json:"-"`
}

// Selector 均匀选择角色，并按稀有度权重独立选择等级
type Selector struct {
	table *rarity.Table
	src   rng.Source
}

// NewSelector 创建选择器
func NewSelector(table *rarity.Table, src rng.Source) *Selector {
	return &Selector{table: table, src: src}
}

// Pick 在大小为 catalogSize 的图鉴中选出角色下标与等级
func (s *Selector) Pick(catalogSize int) (int, rarity.Tier, error) {
	if catalogSize <= 0 {
		return 0, 0, errs.ErrEmptyCatalog
	}
	idx := s.src.IntN(catalogSize)
	tier := s.table.ForRoll(rarity.Roll(s.src))
	return idx, tier, nil
}
