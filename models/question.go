package models

// Answer types a question can have.
const (
	AnswerTypeSingle   = "single"
	AnswerTypeMultiple = "multiple"
)

type FeedbackQuestion struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SurveyID   uint   `gorm:"not null;uniqueIndex:idx_question_survey_ordinal" json:"survey_id"`
	Survey     Survey `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	Ordinal    int    `gorm:"not null;uniqueIndex:idx_question_survey_ordinal" json:"ordinal"`
	AnswerType string `gorm:"size:16;not null" json:"answer_type"` // single | multiple
	// TextJSON maps language code to question text, e.g. {"en":"...","ru":"..."}
	TextJSON string `gorm:"type:text;not null" json:"-"`

	Options []FeedbackOption `gorm:"foreignKey:QuestionID" json:"options"`
}

func (FeedbackQuestion) TableName() string {
	return "feedback_questions"
}

type FeedbackOption struct {
	ID         uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID uint             `gorm:"not null;uniqueIndex:idx_option_question_key" json:"question_id"`
	Question   FeedbackQuestion `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Key        string           `gorm:"size:64;not null;uniqueIndex:idx_option_question_key" json:"key"`
	Ordinal    int              `gorm:"default:0" json:"ordinal"`
	// Score is an analytic weight; it does not change the payout.
	Score int `gorm:"default:0" json:"score"`
	// LabelJSON maps language code to option label.
	LabelJSON string `gorm:"type:text;not null" json:"-"`
}

func (FeedbackOption) TableName() string {
	return "feedback_options"
}
