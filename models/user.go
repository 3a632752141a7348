package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;unique;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"` // empty for Google-only accounts
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin"`
	BalanceCents int64     `gorm:"not null;default:0" json:"balance_cents"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Receipts    []Receipt        `gorm:"foreignKey:UserID" json:"-"`
	Redemptions []Redemption     `gorm:"foreignKey:UserID" json:"-"`
	Feedbacks   []FeedbackResult `gorm:"foreignKey:UserID" json:"-"`
}
