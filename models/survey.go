package models

import "time"

type Survey struct {
	ID                   uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name                 string    `gorm:"column:name;size:255;not null" json:"name"`
	Active               bool      `gorm:"column:active;not null;default:false;index" json:"active"`
	DefaultLanguage      string    `gorm:"column:default_language;size:8;not null;default:'en'" json:"default_language"`
	StartPointsCents     int64     `gorm:"column:start_points_cents;not null;default:0" json:"start_points_cents"`
	PointsPerAnswerCents int64     `gorm:"column:points_per_answer_cents;not null;default:0" json:"points_per_answer_cents"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Questions []FeedbackQuestion `gorm:"foreignKey:SurveyID" json:"-"`
	Results   []FeedbackResult   `gorm:"foreignKey:SurveyID" json:"-"`
}

func (Survey) TableName() string {
	return "surveys"
}
