package services

import (
	"time"

	"github.com/tenantly/rewards-server/models"
	"github.com/tenantly/rewards-server/utils"
)

// FeedbackState is the discriminated union returned by every engine
// operation. Exactly one of the three concrete shapes is ever produced, and
// the status field discriminates them on the wire.
type FeedbackState interface {
	feedbackState()
}

type NotStartedState struct {
	Status string `json:"status"`
}

type AvailableState struct {
	Status            string       `json:"status"`
	TotalQuestions    int          `json:"total_questions"`
	AnsweredQuestions int          `json:"answered_questions"`
	EarnedCents       int64        `json:"earned_cents"`
	CurrentQuestion   QuestionView `json:"current_question"`
}

type CompletedState struct {
	Status           string    `json:"status"`
	TotalQuestions   int       `json:"total_questions"`
	PointsValueCents int64     `json:"points_value_cents"`
	CompletedAt      time.Time `json:"completed_at"`
}

func (NotStartedState) feedbackState() {}
func (AvailableState) feedbackState()  {}
func (CompletedState) feedbackState()  {}

// QuestionView is the localized question shape shown to the user, including
// any answer already recorded for it when the session is resumed.
type QuestionView struct {
	ID           uint         `json:"id"`
	Ordinal      int          `json:"ordinal"`
	AnswerType   string       `json:"answer_type"`
	Text         string       `json:"text"`
	Options      []OptionView `json:"options"`
	SelectedKeys []string     `json:"selected_keys,omitempty"`
}

type OptionView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func notStarted() FeedbackState {
	return NotStartedState{Status: models.StatusNotStarted}
}

func projectQuestion(q *models.FeedbackQuestion, lang, defaultLang string, selected []string) QuestionView {
	view := QuestionView{
		ID:           q.ID,
		Ordinal:      q.Ordinal,
		AnswerType:   q.AnswerType,
		Text:         utils.ParseTranslations(q.TextJSON).Resolve(lang, defaultLang),
		SelectedKeys: selected,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, OptionView{
			Key:   opt.Key,
			Label: utils.ParseTranslations(opt.LabelJSON).Resolve(lang, defaultLang),
		})
	}
	return view
}

// project maps a loaded session onto its external shape. The survey must carry
// its ordered questions and options; r carries its answer rows.
func project(s *models.Survey, r *models.FeedbackResult, lang string) FeedbackState {
	if r == nil {
		return notStarted()
	}

	switch r.Status {
	case models.StatusCompleted:
		completedAt := time.Time{}
		if r.CompletedAt != nil {
			completedAt = *r.CompletedAt
		}
		return CompletedState{
			Status:           models.StatusCompleted,
			TotalQuestions:   len(s.Questions),
			PointsValueCents: r.EarnedCents,
			CompletedAt:      completedAt,
		}
	case models.StatusAvailable:
		state := AvailableState{
			Status:            models.StatusAvailable,
			TotalQuestions:    len(s.Questions),
			AnsweredQuestions: len(r.Answers),
			EarnedCents:       r.EarnedCents,
		}
		if r.CurrentQuestionID != nil {
			for i := range s.Questions {
				q := &s.Questions[i]
				if q.ID != *r.CurrentQuestionID {
					continue
				}
				var selected []string
				for j := range r.Answers {
					if r.Answers[j].QuestionID == q.ID {
						selected = r.Answers[j].Keys()
						break
					}
				}
				state.CurrentQuestion = projectQuestion(q, lang, s.DefaultLanguage, selected)
				break
			}
		}
		return state
	default:
		return notStarted()
	}
}
