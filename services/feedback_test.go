package services

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedSurvey creates a user and an active 3-question single-choice survey
// with options option1/option2 on each question.
func seedSurvey(t *testing.T, db *gorm.DB, startCents, perAnswerCents int64) (models.User, models.Survey) {
	t.Helper()

	user := models.User{Name: "Tenant", Email: "tenant@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	survey := models.Survey{
		Name:                 "Move-in feedback",
		Active:               true,
		DefaultLanguage:      "en",
		StartPointsCents:     startCents,
		PointsPerAnswerCents: perAnswerCents,
	}
	if err := db.Create(&survey).Error; err != nil {
		t.Fatalf("create survey: %v", err)
	}

	texts := []string{"How was moving in?", "How is the building?", "Would you recommend us?"}
	for i, text := range texts {
		q := models.FeedbackQuestion{
			SurveyID:   survey.ID,
			Ordinal:    i,
			AnswerType: models.AnswerTypeSingle,
			TextJSON:   `{"en":"` + text + `","ru":"вопрос"}`,
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("create question: %v", err)
		}
		for j, key := range []string{"option1", "option2"} {
			opt := models.FeedbackOption{
				QuestionID: q.ID,
				Key:        key,
				Ordinal:    j,
				Score:      j + 1,
				LabelJSON:  `{"en":"label"}`,
			}
			if err := db.Create(&opt).Error; err != nil {
				t.Fatalf("create option: %v", err)
			}
		}
	}
	return user, survey
}

func newSvc(db *gorm.DB) *FeedbackService {
	svc := NewFeedbackService(db)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func availableOrFatal(t *testing.T, state FeedbackState) AvailableState {
	t.Helper()
	s, ok := state.(AvailableState)
	if !ok {
		t.Fatalf("expected AvailableState, got %T (%+v)", state, state)
	}
	return s
}

func TestStateBeforeStartIsNotStarted(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	state, err := svc.State(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if _, ok := state.(NotStartedState); !ok {
		t.Fatalf("expected NotStartedState, got %T", state)
	}
}

func TestStartCreatesAvailableSession(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	state, err := svc.Start(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	s := availableOrFatal(t, state)
	if s.TotalQuestions != 3 || s.AnsweredQuestions != 0 || s.EarnedCents != 0 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.CurrentQuestion.Ordinal != 0 || s.CurrentQuestion.Text != "How was moving in?" {
		t.Fatalf("wrong first question: %+v", s.CurrentQuestion)
	}
	if len(s.CurrentQuestion.Options) != 2 || s.CurrentQuestion.Options[0].Key != "option1" {
		t.Fatalf("wrong options: %+v", s.CurrentQuestion.Options)
	}

	// Restart is idempotent: same session, nothing accrued.
	again, err := svc.Start(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !reflect.DeepEqual(state, again) {
		t.Fatalf("restart changed the session:\n%+v\n%+v", state, again)
	}
}

func TestStartStartingTotal(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 500, 30)
	svc := newSvc(db)

	state, err := svc.Start(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s := availableOrFatal(t, state); s.EarnedCents != 500 {
		t.Fatalf("earned = %d, want start points 500", s.EarnedCents)
	}
}

func TestStartInactiveSurvey(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	db.Model(&models.Survey{}).Where("id = ?", survey.ID).Update("active", false)
	svc := newSvc(db)

	if _, err := svc.Start(user.ID, survey.ID, "en"); !errors.Is(err, ErrSurveyNotActive) {
		t.Fatalf("got %v, want ErrSurveyNotActive", err)
	}
}

func TestStartUnknownSurvey(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	if _, err := svc.Start(user.ID, 9999, "en"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAnswerBeforeStart(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	if _, err := svc.Answer(user.ID, survey.ID, []string{"option1"}, "en"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
}

func TestAnswerProgressionToCompletion(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	if _, err := svc.Start(user.ID, survey.ID, "en"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	state, err := svc.Answer(user.ID, survey.ID, []string{"option1"}, "en")
	if err != nil {
		t.Fatalf("first Answer: %v", err)
	}
	s := availableOrFatal(t, state)
	if s.AnsweredQuestions != 1 || s.EarnedCents != 30 || s.CurrentQuestion.Ordinal != 1 {
		t.Fatalf("after first answer: %+v", s)
	}

	state, err = svc.Answer(user.ID, survey.ID, []string{"option2"}, "en")
	if err != nil {
		t.Fatalf("second Answer: %v", err)
	}
	s = availableOrFatal(t, state)
	if s.AnsweredQuestions != 2 || s.EarnedCents != 60 || s.CurrentQuestion.Ordinal != 2 {
		t.Fatalf("after second answer: %+v", s)
	}

	state, err = svc.Answer(user.ID, survey.ID, []string{"option1"}, "en")
	if err != nil {
		t.Fatalf("third Answer: %v", err)
	}
	done, ok := state.(CompletedState)
	if !ok {
		t.Fatalf("expected CompletedState, got %T (%+v)", state, state)
	}
	if done.TotalQuestions != 3 || done.PointsValueCents != 90 {
		t.Fatalf("completed: %+v", done)
	}
	if done.CompletedAt.IsZero() {
		t.Fatalf("completed_at not stamped")
	}

	// Final total equals start points + per-answer points × questions answered.
	var calc RewardCalculator
	if want := calc.CompletedTotal(&survey, done.TotalQuestions); done.PointsValueCents != want {
		t.Fatalf("final total %d, want %d", done.PointsValueCents, want)
	}

	// Current question pointer is cleared and the balance credited once.
	var result models.FeedbackResult
	if err := db.Where("survey_id = ? AND user_id = ?", survey.ID, user.ID).First(&result).Error; err != nil {
		t.Fatalf("load result: %v", err)
	}
	if result.CurrentQuestionID != nil {
		t.Fatalf("current question pointer not cleared")
	}
	var u models.User
	if err := db.First(&u, user.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if u.BalanceCents != 90 {
		t.Fatalf("balance = %d, want 90", u.BalanceCents)
	}

	// Answering a completed session fails and changes nothing.
	if _, err := svc.Answer(user.ID, survey.ID, []string{"option1"}, "en"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
	if err := db.First(&u, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.BalanceCents != 90 {
		t.Fatalf("balance changed after rejected answer: %d", u.BalanceCents)
	}
}

func TestAnswerCountRejectedLeavesSessionUnchanged(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	if _, err := svc.Start(user.ID, survey.ID, "en"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Answer(user.ID, survey.ID, []string{"option1", "option2"}, "en"); !errors.Is(err, ErrInvalidAnswerCount) {
		t.Fatalf("got %v, want ErrInvalidAnswerCount", err)
	}

	state, err := svc.State(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	s := availableOrFatal(t, state)
	if s.AnsweredQuestions != 0 || s.EarnedCents != 0 || s.CurrentQuestion.Ordinal != 0 {
		t.Fatalf("session mutated by rejected answer: %+v", s)
	}

	var answers int64
	db.Model(&models.FeedbackAnswer{}).Count(&answers)
	if answers != 0 {
		t.Fatalf("answer row written despite validation failure")
	}
}

func TestAnswerUnknownKeyLeavesSessionUnchanged(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	if _, err := svc.Start(user.ID, survey.ID, "en"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Answer(user.ID, survey.ID, []string{"unknown-key"}, "en"); !errors.Is(err, ErrUnknownOptionKey) {
		t.Fatalf("got %v, want ErrUnknownOptionKey", err)
	}

	state, err := svc.State(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	s := availableOrFatal(t, state)
	if s.AnsweredQuestions != 0 || s.CurrentQuestion.Ordinal != 0 {
		t.Fatalf("session mutated: %+v", s)
	}
}

func TestMultipleChoiceQuestion(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)

	// Swap the first question to multiple choice.
	db.Model(&models.FeedbackQuestion{}).
		Where("survey_id = ? AND ordinal = 0", survey.ID).
		Update("answer_type", models.AnswerTypeMultiple)

	svc := newSvc(db)
	if _, err := svc.Start(user.ID, survey.ID, "en"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Answer(user.ID, survey.ID, []string{}, "en"); !errors.Is(err, ErrInvalidAnswerCount) {
		t.Fatalf("empty set: got %v, want ErrInvalidAnswerCount", err)
	}
	if _, err := svc.Answer(user.ID, survey.ID, []string{"option1", "option1"}, "en"); !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("duplicate: got %v, want ErrDuplicateAnswer", err)
	}

	state, err := svc.Answer(user.ID, survey.ID, []string{"option1", "option2"}, "en")
	if err != nil {
		t.Fatalf("valid multiple answer: %v", err)
	}
	s := availableOrFatal(t, state)
	if s.AnsweredQuestions != 1 || s.EarnedCents != 30 {
		t.Fatalf("reward is per question, not per key: %+v", s)
	}
}

func TestReturnBackIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	if _, err := svc.Start(user.ID, survey.ID, "en"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Answer(user.ID, survey.ID, []string{"option1"}, "en"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	first, err := svc.ReturnBack(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("ReturnBack: %v", err)
	}
	second, err := svc.ReturnBack(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("ReturnBack again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("projections differ:\n%+v\n%+v", first, second)
	}

	s := availableOrFatal(t, first)
	if s.AnsweredQuestions != 1 || s.EarnedCents != 30 || s.CurrentQuestion.Ordinal != 1 {
		t.Fatalf("ReturnBack mutated the session: %+v", s)
	}
}

func TestAnswerConflictOnStaleSession(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	if _, err := svc.Start(user.ID, survey.ID, "en"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Bump the session version right after the answer row is written, before
	// the compare-and-update runs, the way a concurrent Answer would.
	bumped := false
	err := db.Callback().Create().After("gorm:create").Register("bump_session_version", func(d *gorm.DB) {
		if d.Statement.Table != "feedback_answers" || bumped {
			return
		}
		bumped = true
		d.Session(&gorm.Session{NewDB: true}).
			Model(&models.FeedbackResult{}).
			Where("survey_id = ? AND user_id = ?", survey.ID, user.ID).
			Update("version", gorm.Expr("version + 1"))
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := svc.Answer(user.ID, survey.ID, []string{"option1"}, "en"); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}

	// The whole transaction rolled back: no answer row, session untouched.
	var answers int64
	db.Model(&models.FeedbackAnswer{}).Count(&answers)
	if answers != 0 {
		t.Fatalf("answer row survived the conflict")
	}
	state, err := svc.State(user.ID, survey.ID, "en")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	s := availableOrFatal(t, state)
	if s.AnsweredQuestions != 0 || s.EarnedCents != 0 || s.CurrentQuestion.Ordinal != 0 {
		t.Fatalf("session mutated by conflicting answer: %+v", s)
	}
}

func TestProjectionLocalizationFallback(t *testing.T) {
	db := newTestDB(t)
	user, survey := seedSurvey(t, db, 0, 30)
	svc := newSvc(db)

	// "ru" is present on the question text.
	state, err := svc.Start(user.ID, survey.ID, "ru")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s := availableOrFatal(t, state); s.CurrentQuestion.Text != "вопрос" {
		t.Fatalf("ru text not used: %q", s.CurrentQuestion.Text)
	}

	// "de" is not; fall back to the survey default.
	state, err = svc.State(user.ID, survey.ID, "de")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if s := availableOrFatal(t, state); s.CurrentQuestion.Text != "How was moving in?" {
		t.Fatalf("default language fallback not applied: %q", s.CurrentQuestion.Text)
	}
}
