package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/models"
)

// CheckSurvey loads the survey named by :id into the context so the handler
// behind it does not repeat the lookup.
func CheckSurvey() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid survey id"})
			return
		}

		var survey models.Survey
		if err := config.DB.First(&survey, id).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Survey not found"})
			return
		}

		c.Set(CtxSurvey, survey)
		c.Next()
	}
}
