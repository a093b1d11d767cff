// Package rarity 稀有度表：等级到显示名与权重的静态映射
package rarity

import (
	"fmt"
	"strings"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/errs"
	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rng"
	"github.com/cockroachdb/errors"
)

// TotalWeight 所有等级权重之和必须等于该值
const TotalWeight = 100

// Tier 稀有度等级
type Tier int

// Entry 稀有度表中的一行
type Entry struct {
	Tier   Tier   `mapstructure:"tier" yaml:"tier" json:"tier"`
	Label  string `mapstructure:"label" yaml:"label" json:"label"`
	Weight int    `mapstructure:"weight" yaml:"weight" json:"weight"`
}

// Table 不可变的稀有度表，按声明顺序累加权重
type Table struct {
	entries []Entry
	index   map[Tier]int
}

// DefaultEntries 默认稀有度配置
func DefaultEntries() []Entry {
	return []Entry{
		{Tier: 1, Label: "Common", Weight: 50},
		{Tier: 2, Label: "Rare", Weight: 30},
		{Tier: 3, Label: "Legendary", Weight: 15},
		{Tier: 4, Label: "Ultra Rare", Weight: 5},
	}
}

// Default 默认稀有度表
func Default() *Table {
	t, err := New(DefaultEntries())
	if err != nil {
		panic(err)
	}
	return t
}

// New 校验并创建稀有度表：等级唯一、权重为正、显示名非空、权重和为 100
func New(entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, errors.New("rarity: table is empty")
	}

	t := &Table{
		entries: make([]Entry, len(entries)),
		index:   make(map[Tier]int, len(entries)),
	}
	sum := 0
	for i, e := range entries {
		if _, dup := t.index[e.Tier]; dup {
			return nil, errors.Newf("rarity: duplicate tier %d", e.Tier)
		}
		if e.Weight <= 0 {
			return nil, errors.Newf("rarity: tier %d has non-positive weight %d", e.Tier, e.Weight)
		}
		if strings.TrimSpace(e.Label) == "" {
			return nil, errors.Newf("rarity: tier %d has empty label", e.Tier)
		}
		t.entries[i] = e
		t.index[e.Tier] = i
		sum += e.Weight
	}
	if sum != TotalWeight {
		return nil, errors.Newf("rarity: weights sum to %d, want %d", sum, TotalWeight)
	}
	return t, nil
}

// Entries 返回稀有度表副本
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup 查询等级
func (t *Table) Lookup(tier Tier) (Entry, error) {
	i, ok := t.index[tier]
	if !ok {
		return Entry{}, errors.Wrapf(errs.ErrInvalidTier, "tier %d", tier)
	}
	return t.entries[i], nil
}

// Weight 等级权重
func (t *Table) Weight(tier Tier) (int, error) {
	e, err := t.Lookup(tier)
	return e.Weight, err
}

// Label 等级显示名，未知等级返回 "Tier N"
func (t *Table) Label(tier Tier) string {
	if e, err := t.Lookup(tier); err == nil {
		return e.Label
	}
	return fmt.Sprintf("Tier %d", tier)
}

// Valid 等级是否已声明
func (t *Table) Valid(tier Tier) bool {
	_, ok := t.index[tier]
	return ok
}

// ForRoll 将 [1,100] 的掷骰结果映射到第一个累计权重 >= roll 的等级
func (t *Table) ForRoll(roll int) Tier {
	cum := 0
	for _, e := range t.entries {
		cum += e.Weight
		if roll <= cum {
			return e.Tier
		}
	}
	return t.entries[len(t.entries)-1].Tier
}

// Roll 掷一次 [1,100]
func Roll(src rng.Source) int {
	return src.IntN(TotalWeight) + 1
}
