package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReferralStatusPending  = "pending"
	ReferralStatusRewarded = "rewarded"
)

// Referral связь пригласившего и приглашённого пользователя.
type Referral struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	ReferrerID   uuid.UUID       `db:"referrer_id" json:"referrer_id"`
	ReferredID   uuid.UUID       `db:"referred_id" json:"referred_id"`
	Status       string          `db:"status" json:"status"`
	RewardAmount decimal.Decimal `db:"reward_amount" json:"reward_amount"`
	RewardedAt   *time.Time      `db:"rewarded_at" json:"rewarded_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
