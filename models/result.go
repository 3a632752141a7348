package models

import (
	"encoding/json"
	"time"
)

// Session statuses for a user's progression through the active survey.
const (
	StatusNotStarted = "not_started"
	StatusAvailable  = "available"
	StatusCompleted  = "completed"
)

// FeedbackResult is one user's session against one survey. Version backs the
// optimistic compare-and-update on every mutation.
type FeedbackResult struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	SurveyID          uint       `gorm:"not null;uniqueIndex:idx_result_survey_user" json:"survey_id"`
	Survey            Survey     `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	UserID            uint       `gorm:"not null;uniqueIndex:idx_result_survey_user" json:"user_id"`
	Status            string     `gorm:"size:20;not null;default:'available'" json:"status"`
	CurrentQuestionID *uint      `json:"current_question_id"`
	EarnedCents       int64      `gorm:"not null;default:0" json:"earned_cents"`
	Credited          bool       `gorm:"not null;default:false" json:"-"`
	Version           int64      `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at"`

	Answers []FeedbackAnswer `gorm:"foreignKey:ResultID" json:"-"`
}

func (FeedbackResult) TableName() string {
	return "feedback_results"
}

type FeedbackAnswer struct {
	ID         uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	ResultID   uint             `gorm:"not null;uniqueIndex:idx_answer_result_question" json:"result_id"`
	Result     FeedbackResult   `gorm:"foreignKey:ResultID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID uint             `gorm:"not null;uniqueIndex:idx_answer_result_question" json:"question_id"`
	Question   FeedbackQuestion `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	// KeysJSON is a JSON array of the selected option keys.
	KeysJSON  string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FeedbackAnswer) TableName() string {
	return "feedback_answers"
}

func (a *FeedbackAnswer) SetKeys(keys []string) error {
	b, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	a.KeysJSON = string(b)
	return nil
}

func (a *FeedbackAnswer) Keys() []string {
	var keys []string
	if err := json.Unmarshal([]byte(a.KeysJSON), &keys); err != nil {
		return nil
	}
	return keys
}
