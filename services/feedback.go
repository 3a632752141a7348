package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tenantly/rewards-server/models"
)

// FeedbackService drives a user's progression through the active survey:
// not_started → available → completed, one question at a time. Mutations run
// inside a transaction and guard the session row with an optimistic version
// check, so a rejected answer never leaves a partial write behind.
type FeedbackService struct {
	db     *gorm.DB
	reward RewardCalculator
	now    func() time.Time
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{db: db, now: time.Now}
}

func (s *FeedbackService) loadSurvey(tx *gorm.DB, surveyID uint) (*models.Survey, error) {
	var survey models.Survey
	err := tx.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		First(&survey, surveyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// loadSession returns nil (not an error) when the user has no session yet.
func (s *FeedbackService) loadSession(tx *gorm.DB, surveyID, userID uint) (*models.FeedbackResult, error) {
	var session models.FeedbackResult
	err := tx.
		Preload("Answers").
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// State projects the current session without mutating it.
func (s *FeedbackService) State(userID, surveyID uint, lang string) (FeedbackState, error) {
	survey, err := s.loadSurvey(s.db, surveyID)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(s.db, survey.ID, userID)
	if err != nil {
		return nil, err
	}
	return project(survey, session, lang), nil
}

// ReturnBack re-projects the session after the user navigated away. Valid in
// any state; never transitions.
func (s *FeedbackService) ReturnBack(userID, surveyID uint, lang string) (FeedbackState, error) {
	return s.State(userID, surveyID, lang)
}

// Start moves not_started → available and points the session at the survey's
// first question. Calling it again while the session exists is idempotent and
// returns the session as it stands.
func (s *FeedbackService) Start(userID, surveyID uint, lang string) (FeedbackState, error) {
	survey, err := s.loadSurvey(s.db, surveyID)
	if err != nil {
		return nil, err
	}
	if !survey.Active || len(survey.Questions) == 0 {
		return nil, ErrSurveyNotActive
	}

	session, err := s.loadSession(s.db, survey.ID, userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return project(survey, session, lang), nil
	}

	first := survey.Questions[0]
	session = &models.FeedbackResult{
		SurveyID:          survey.ID,
		UserID:            userID,
		Status:            models.StatusAvailable,
		CurrentQuestionID: &first.ID,
		EarnedCents:       s.reward.StartingTotal(survey),
	}
	if err := s.db.Create(session).Error; err != nil {
		// Unique (survey, user) index: a concurrent Start may have won.
		if existing, lerr := s.loadSession(s.db, survey.ID, userID); lerr == nil && existing != nil {
			return project(survey, existing, lang), nil
		}
		return nil, err
	}
	return project(survey, session, lang), nil
}

// Answer validates the submitted option keys against the current question,
// records them, accrues the reward and advances the pointer. Answering the
// last question completes the session, stamps completed_at and credits the
// earned total to the user's balance exactly once.
func (s *FeedbackService) Answer(userID, surveyID uint, keys []string, lang string) (FeedbackState, error) {
	var out FeedbackState
	err := s.db.Transaction(func(tx *gorm.DB) error {
		survey, err := s.loadSurvey(tx, surveyID)
		if err != nil {
			return err
		}
		if !survey.Active {
			return ErrSurveyNotActive
		}

		session, err := s.loadSession(tx, survey.ID, userID)
		if err != nil {
			return err
		}
		if session == nil || session.Status != models.StatusAvailable || session.CurrentQuestionID == nil {
			return ErrInvalidTransition
		}

		var current, next *models.FeedbackQuestion
		for i := range survey.Questions {
			if survey.Questions[i].ID == *session.CurrentQuestionID {
				current = &survey.Questions[i]
				if i+1 < len(survey.Questions) {
					next = &survey.Questions[i+1]
				}
				break
			}
		}
		if current == nil {
			return ErrNotFound
		}

		validated, err := ValidateAnswer(current, keys)
		if err != nil {
			return err
		}

		answer := models.FeedbackAnswer{ResultID: session.ID, QuestionID: current.ID}
		if err := answer.SetKeys(validated); err != nil {
			return err
		}
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}

		earned := session.EarnedCents + s.reward.Increment(survey, validated)
		updates := map[string]interface{}{
			"earned_cents": earned,
			"version":      session.Version + 1,
		}
		completing := next == nil
		if completing {
			updates["status"] = models.StatusCompleted
			updates["current_question_id"] = nil
			updates["completed_at"] = s.now()
			updates["credited"] = true
		} else {
			updates["current_question_id"] = next.ID
		}

		res := tx.Model(&models.FeedbackResult{}).
			Where("id = ? AND version = ?", session.ID, session.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if completing && !session.Credited {
			if err := tx.Model(&models.User{}).
				Where("id = ?", userID).
				Update("balance_cents", gorm.Expr("balance_cents + ?", earned)).Error; err != nil {
				return err
			}
		}

		reloaded, err := s.loadSession(tx, survey.ID, userID)
		if err != nil {
			return err
		}
		out = project(survey, reloaded, lang)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
