package models

import "time"

// Receipt review statuses.
const (
	ReceiptPending  = "pending"
	ReceiptApproved = "approved"
	ReceiptRejected = "rejected"
)

type Receipt struct {
	ID               uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	User             User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ImageURL         string     `gorm:"type:text;not null" json:"image_url"`
	Note             string     `gorm:"type:text" json:"note"`
	Status           string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PointsValueCents int64      `gorm:"not null;default:0" json:"points_value_cents"`
	RejectReason     *string    `gorm:"type:text" json:"reject_reason,omitempty"`
	SubmittedAt      time.Time  `gorm:"autoCreateTime" json:"submitted_at"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	ReviewerID       *uint      `json:"reviewer_id"`
}

func (Receipt) TableName() string {
	return "receipts"
}
