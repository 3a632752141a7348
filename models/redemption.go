package models

import "time"

// Redemption statuses.
const (
	RedemptionPending   = "pending"
	RedemptionFulfilled = "fulfilled"
	RedemptionRejected  = "rejected"
)

// Redemption debits the user's balance when created; a rejection refunds it.
type Redemption struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	User         User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AmountCents  int64      `gorm:"not null" json:"amount_cents"`
	Description  string     `gorm:"type:text" json:"description"`
	Status       string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	RejectReason *string    `gorm:"type:text" json:"reject_reason,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	ReviewerID   *uint      `json:"reviewer_id"`
}

func (Redemption) TableName() string {
	return "redemptions"
}
