package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/middleware"
	"github.com/tenantly/rewards-server/models"
	"github.com/tenantly/rewards-server/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
	config.DB = db
	return db
}

// Deleting a question must keep ordinals dense even when the database scans
// rows in an order that opposes ordinal order, which the unique
// (survey_id, ordinal) index turns into a constraint failure if the shift is
// done as one bulk UPDATE. Questions are inserted with descending ordinals so
// physical row order is the reverse of ordinal order.
func TestDeleteQuestionCompactsOrdinals(t *testing.T) {
	db := setupTestDB(t)

	survey := models.Survey{Name: "Move-out feedback", DefaultLanguage: "en"}
	if err := db.Create(&survey).Error; err != nil {
		t.Fatalf("create survey: %v", err)
	}

	idByOrdinal := map[int]uint{}
	for _, ord := range []int{3, 2, 1, 0} {
		q := models.FeedbackQuestion{
			SurveyID:   survey.ID,
			Ordinal:    ord,
			AnswerType: models.AnswerTypeSingle,
			TextJSON:   fmt.Sprintf(`{"en":"question %d"}`, ord),
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("create question: %v", err)
		}
		opt := models.FeedbackOption{QuestionID: q.ID, Key: "a", LabelJSON: `{"en":"a"}`}
		if err := db.Create(&opt).Error; err != nil {
			t.Fatalf("create option: %v", err)
		}
		idByOrdinal[ord] = q.ID
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/questions/:id", DeleteQuestion)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/questions/%d", idByOrdinal[0]), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}

	var remaining []models.FeedbackQuestion
	if err := db.Where("survey_id = ?", survey.ID).Order("ordinal ASC").Find(&remaining).Error; err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(remaining) != 3 {
		t.Fatalf("got %d questions, want 3", len(remaining))
	}
	for i, q := range remaining {
		if q.Ordinal != i {
			t.Fatalf("ordinals not dense: %+v", remaining)
		}
	}
	if remaining[0].ID != idByOrdinal[1] || remaining[1].ID != idByOrdinal[2] || remaining[2].ID != idByOrdinal[3] {
		t.Fatalf("question order scrambled: %+v", remaining)
	}

	var orphanOptions int64
	db.Model(&models.FeedbackOption{}).Where("question_id = ?", idByOrdinal[0]).Count(&orphanOptions)
	if orphanOptions != 0 {
		t.Fatalf("options of the deleted question survived")
	}
}

func TestGetActiveSurveyOptionalIdentity(t *testing.T) {
	db := setupTestDB(t)
	t.Setenv("JWT_SECRET", "test-secret")

	user := models.User{Name: "Tenant", Email: "tenant@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	survey := models.Survey{Name: "Move-in feedback", Active: true, DefaultLanguage: "en"}
	if err := db.Create(&survey).Error; err != nil {
		t.Fatalf("create survey: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/surveys/active", middleware.OptionalAuth(), GetActiveSurvey)

	// Anonymous read works and carries no session status.
	req := httptest.NewRequest(http.MethodGet, "/surveys/active", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous: status %d: %s", w.Code, w.Body.String())
	}
	var anon map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &anon); err != nil {
		t.Fatalf("decode anonymous body: %v", err)
	}
	if _, ok := anon["my_status"]; ok {
		t.Fatalf("anonymous response should not carry my_status: %s", w.Body.String())
	}

	// Authenticated read reports the caller's session status.
	token, err := utils.GenerateToken(fmt.Sprintf("%d", user.ID), "user")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/surveys/active", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated: status %d: %s", w.Code, w.Body.String())
	}
	var authed struct {
		MyStatus string `json:"my_status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &authed); err != nil {
		t.Fatalf("decode authenticated body: %v", err)
	}
	if authed.MyStatus != models.StatusNotStarted {
		t.Fatalf("my_status = %q, want %q", authed.MyStatus, models.StatusNotStarted)
	}
}
