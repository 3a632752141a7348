package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/middleware"
	"github.com/tenantly/rewards-server/models"
	"github.com/tenantly/rewards-server/utils"
)

type createSurveyReq struct {
	Name                 string `json:"name" binding:"required,min=1"`
	DefaultLanguage      string `json:"default_language"`
	StartPointsCents     int64  `json:"start_points_cents"`
	PointsPerAnswerCents int64  `json:"points_per_answer_cents"`
}

// POST /api/admin/surveys
func CreateSurvey(c *gin.Context) {
	var req createSurveyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}
	if req.DefaultLanguage == "" {
		req.DefaultLanguage = "en"
	}
	if req.StartPointsCents < 0 || req.PointsPerAnswerCents < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Point values must not be negative"})
		return
	}

	survey := models.Survey{
		Name:                 req.Name,
		DefaultLanguage:      req.DefaultLanguage,
		StartPointsCents:     req.StartPointsCents,
		PointsPerAnswerCents: req.PointsPerAnswerCents,
	}
	if err := config.DB.Create(&survey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create survey"})
		return
	}

	c.JSON(http.StatusCreated, survey)
}

// GET /api/admin/surveys
func ListSurveys(c *gin.Context) {
	var surveys []models.Survey
	if err := config.DB.Order("created_at DESC").Find(&surveys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list surveys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}

// GET /api/admin/surveys/:id
func GetSurveyDetail(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var questions []models.FeedbackQuestion
	if err := config.DB.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Where("survey_id = ?", survey.ID).
		Order("ordinal ASC").
		Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load questions"})
		return
	}

	out := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		options := make([]gin.H, 0, len(q.Options))
		for _, opt := range q.Options {
			options = append(options, gin.H{
				"id":    opt.ID,
				"key":   opt.Key,
				"score": opt.Score,
				"label": utils.ParseTranslations(opt.LabelJSON),
			})
		}
		out = append(out, gin.H{
			"id":          q.ID,
			"ordinal":     q.Ordinal,
			"answer_type": q.AnswerType,
			"text":        utils.ParseTranslations(q.TextJSON),
			"options":     options,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"survey":    survey,
		"questions": out,
	})
}

// PUT /api/admin/surveys/:id/activate — at most one survey is active; any
// other active survey is deactivated in the same transaction.
func ActivateSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var questions int64
	config.DB.Model(&models.FeedbackQuestion{}).Where("survey_id = ?", survey.ID).Count(&questions)
	if questions == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Survey has no questions"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Survey{}).
			Where("active = ? AND id <> ?", true, survey.ID).
			Update("active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Survey{}).
			Where("id = ?", survey.ID).
			Update("active", true).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not activate survey"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "activated", "survey_id": survey.ID})
}

// PUT /api/admin/surveys/:id/deactivate
func DeactivateSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	if err := config.DB.Model(&models.Survey{}).
		Where("id = ?", survey.ID).
		Update("active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not deactivate survey"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deactivated", "survey_id": survey.ID})
}

// GET /api/surveys/active — the survey users are currently invited to answer.
// Public; when the caller is authenticated the response also carries their
// session status for it.
func GetActiveSurvey(c *gin.Context) {
	var survey models.Survey
	if err := config.DB.Where("active = ?", true).First(&survey).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No active survey"})
		return
	}

	resp := gin.H{"survey": survey}
	if v, ok := c.Get(middleware.CtxUser); ok {
		u := v.(models.User)
		status := models.StatusNotStarted
		var result models.FeedbackResult
		if err := config.DB.
			Where("survey_id = ? AND user_id = ?", survey.ID, u.ID).
			First(&result).Error; err == nil {
			status = result.Status
		}
		resp["my_status"] = status
	}
	c.JSON(http.StatusOK, resp)
}

type optionReq struct {
	Key   string            `json:"key" binding:"required,min=1,max=64"`
	Score int               `json:"score"`
	Label map[string]string `json:"label" binding:"required"`
}

type addQuestionReq struct {
	Type    string            `json:"type" binding:"required"`
	Text    map[string]string `json:"text" binding:"required"`
	Options []optionReq       `json:"options" binding:"required,min=1"`
}

// POST /api/admin/surveys/:id/questions — ordinal is MAX+1; option keys must
// be unique within the question. Questions are frozen while the survey is
// active.
func AddQuestion(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)
	if survey.Active {
		c.JSON(http.StatusConflict, gin.H{"message": "Survey is active; questions are frozen"})
		return
	}

	var req addQuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	if req.Type != models.AnswerTypeSingle && req.Type != models.AnswerTypeMultiple {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": fmt.Sprintf("Unknown answer type %q", req.Type)})
		return
	}
	seen := map[string]struct{}{}
	for _, opt := range req.Options {
		if _, dup := seen[opt.Key]; dup {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": fmt.Sprintf("Duplicate option key %q", opt.Key)})
			return
		}
		seen[opt.Key] = struct{}{}
	}

	textJSON, err := utils.TranslationsJSON(req.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid question text"})
		return
	}

	// next ordinal = MAX(ordinal)+1, 0-based
	type nextRes struct{ Next int }
	var r nextRes
	_ = config.DB.Model(&models.FeedbackQuestion{}).
		Where("survey_id = ?", survey.ID).
		Select("COALESCE(MAX(ordinal), -1) + 1 AS next").
		Scan(&r).Error

	question := models.FeedbackQuestion{
		SurveyID:   survey.ID,
		Ordinal:    r.Next,
		AnswerType: req.Type,
		TextJSON:   textJSON,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for i, opt := range req.Options {
			labelJSON, err := utils.TranslationsJSON(opt.Label)
			if err != nil {
				return err
			}
			o := models.FeedbackOption{
				QuestionID: question.ID,
				Key:        opt.Key,
				Ordinal:    i,
				Score:      opt.Score,
				LabelJSON:  labelJSON,
			}
			if err := tx.Create(&o).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not add question"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"question_id": question.ID, "survey_id": survey.ID})
}

type updateQuestionReq struct {
	Text map[string]string `json:"text" binding:"required"`
}

// PUT /api/admin/questions/:id — text only; structure changes go through
// delete + re-add while the survey is inactive.
func UpdateQuestion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid question id"})
		return
	}

	var question models.FeedbackQuestion
	if err := config.DB.Preload("Survey").First(&question, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Question not found"})
		return
	}
	if question.Survey.Active {
		c.JSON(http.StatusConflict, gin.H{"message": "Survey is active; questions are frozen"})
		return
	}

	var req updateQuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	textJSON, err := utils.TranslationsJSON(req.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid question text"})
		return
	}

	if err := config.DB.Model(&question).Update("text_json", textJSON).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update question"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// DELETE /api/admin/questions/:id — later questions shift down one ordinal so
// the order stays dense.
func DeleteQuestion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid question id"})
		return
	}

	var question models.FeedbackQuestion
	if err := config.DB.Preload("Survey").First(&question, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Question not found"})
		return
	}
	if question.Survey.Active {
		c.JSON(http.StatusConflict, gin.H{"message": "Survey is active; questions are frozen"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", question.ID).Delete(&models.FeedbackOption{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&question).Error; err != nil {
			return err
		}
		// Shift later questions down one at a time in ascending ordinal
		// order; a bulk UPDATE can collide with the unique (survey_id,
		// ordinal) index when the database scans rows out of ordinal order.
		var later []models.FeedbackQuestion
		if err := tx.
			Where("survey_id = ? AND ordinal > ?", question.SurveyID, question.Ordinal).
			Order("ordinal ASC").
			Find(&later).Error; err != nil {
			return err
		}
		for i := range later {
			if err := tx.Model(&later[i]).
				Update("ordinal", later[i].Ordinal-1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// GET /api/admin/surveys/:id/dashboard — per-question answer distribution.
// This is where the analytic option scores surface.
func GetSurveyDashboard(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var questions []models.FeedbackQuestion
	if err := config.DB.
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Where("survey_id = ?", survey.ID).
		Order("ordinal ASC").
		Find(&questions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load questions"})
		return
	}

	var sessions, completed int64
	config.DB.Model(&models.FeedbackResult{}).Where("survey_id = ?", survey.ID).Count(&sessions)
	config.DB.Model(&models.FeedbackResult{}).
		Where("survey_id = ? AND status = ?", survey.ID, models.StatusCompleted).
		Count(&completed)

	results := []gin.H{}
	for _, q := range questions {
		var answers []models.FeedbackAnswer
		config.DB.
			Joins("JOIN feedback_results fr ON fr.id = feedback_answers.result_id").
			Where("feedback_answers.question_id = ? AND fr.survey_id = ?", q.ID, survey.ID).
			Find(&answers)

		counts := map[string]int{}
		total := 0
		for _, a := range answers {
			for _, key := range a.Keys() {
				counts[key]++
				total++
			}
		}

		scoreByKey := map[string]int{}
		for _, opt := range q.Options {
			scoreByKey[opt.Key] = opt.Score
		}

		stats := []gin.H{}
		scoreSum := 0
		for _, opt := range q.Options {
			count := counts[opt.Key]
			percent := 0.0
			if total > 0 {
				percent = float64(count) * 100 / float64(total)
			}
			scoreSum += count * scoreByKey[opt.Key]
			stats = append(stats, gin.H{
				"key":     opt.Key,
				"count":   count,
				"percent": percent,
				"score":   opt.Score,
			})
		}

		avgScore := 0.0
		if total > 0 {
			avgScore = float64(scoreSum) / float64(total)
		}

		results = append(results, gin.H{
			"question_id": q.ID,
			"ordinal":     q.Ordinal,
			"answer_type": q.AnswerType,
			"text":        utils.ParseTranslations(q.TextJSON).Resolve(survey.DefaultLanguage, survey.DefaultLanguage),
			"answers":     len(answers),
			"avg_score":   avgScore,
			"stats":       stats,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"survey_id": survey.ID,
		"sessions":  sessions,
		"completed": completed,
		"results":   results,
	})
}
