package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/middleware"
	"github.com/tenantly/rewards-server/models"
	"github.com/tenantly/rewards-server/services"
)

func feedbackSvc() *services.FeedbackService {
	return services.NewFeedbackService(config.DB)
}

// feedbackStatus maps engine errors to HTTP status codes.
func feedbackStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSurveyNotActive):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidAnswerCount),
		errors.Is(err, services.ErrDuplicateAnswer),
		errors.Is(err, services.ErrUnknownOptionKey):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func surveyParam(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid survey id"})
		return 0, false
	}
	return uint(id), true
}

// POST /api/feedback/:id/start
func StartFeedback(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	surveyID, ok := surveyParam(c)
	if !ok {
		return
	}

	state, err := feedbackSvc().Start(u.ID, surveyID, c.Query("lang"))
	if err != nil {
		c.JSON(feedbackStatus(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

type answerFeedbackReq struct {
	Answers []string `json:"answers" binding:"required"`
	Lang    string   `json:"lang"`
}

// POST /api/feedback/:id/answer
func AnswerFeedback(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	surveyID, ok := surveyParam(c)
	if !ok {
		return
	}

	var req answerFeedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	state, err := feedbackSvc().Answer(u.ID, surveyID, req.Answers, req.Lang)
	if err != nil {
		c.JSON(feedbackStatus(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// POST /api/feedback/:id/back
func FeedbackBack(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	surveyID, ok := surveyParam(c)
	if !ok {
		return
	}

	state, err := feedbackSvc().ReturnBack(u.ID, surveyID, c.Query("lang"))
	if err != nil {
		c.JSON(feedbackStatus(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// GET /api/feedback/:id
func GetFeedbackState(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	surveyID, ok := surveyParam(c)
	if !ok {
		return
	}

	state, err := feedbackSvc().State(u.ID, surveyID, c.Query("lang"))
	if err != nil {
		c.JSON(feedbackStatus(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}
