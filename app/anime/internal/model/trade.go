package model

import "time"

// TradeStatus 交易状态
type TradeStatus string

const (
	TradeProposed  TradeStatus = "proposed"
	TradeAccepted  TradeStatus = "accepted"
	TradeRejected  TradeStatus = "rejected"
	TradeCancelled TradeStatus = "cancelled"
	TradeExpired   TradeStatus = "expired"
)

// Terminal 终态不可再变更
func (s TradeStatus) Terminal() bool {
	return s != TradeProposed
}

// TradeProposal 交易提案
// 对应表：trade_proposals
type TradeProposal struct {
	ID             int64       `json:"id"`
	ProposerID     int64       `json:"proposer_id"`
	CounterpartyID int64       `json:"counterparty_id,omitempty"` // 0 表示未指定，首个响应者成为对手方
	OfferedID      int64       `json:"offered_character_id"`
	RequestedID    int64       `json:"requested_character_id,omitempty"` // 对手方响应前为 0
	Status         TradeStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	ResolvedAt     time.Time   `json:"resolved_at,omitempty"`
}

// ExpiredAt 按 ttl 判断是否超时
func (p *TradeProposal) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && !now.Before(p.CreatedAt.Add(ttl))
}
