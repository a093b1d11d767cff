package model

import (
	"time"

	"github.com/MAKORA-ltd/anime-play/app/anime/internal/rarity"
)

// Character 图鉴角色（不可变）
// 对应表：characters
type Character struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Series    string      `json:"series"`
	ImageRef  string      `json:"image_ref"`
	Tier      rarity.Tier `json:"tier"`
	CreatedBy int64       `json:"created_by"` // 创建者（管理员）ID
	CreatedAt time.Time   `json:"created_at"`
}

// OwnershipRecord 持有记录，(UserID, CharacterID) 唯一
// 对应表：user_collections
type OwnershipRecord struct {
	UserID      int64     `json:"user_id"`
	CharacterID int64     `json:"character_id"`
	ObtainedAt  time.Time `json:"obtained_at"`
}

// CollectionEntry 收藏列表中的一项
type CollectionEntry struct {
	Character  Character `json:"character"`
	TierLabel  string    `json:"tier_label"`
	ObtainedAt time.Time `json:"obtained_at"`
}
