package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tenantly/rewards-server/config"
	"github.com/tenantly/rewards-server/models"
	"github.com/tenantly/rewards-server/utils"
)

const (
	CtxUser   = "user"
	CtxSurvey = "surveyObj"
)

// AuthJWT checks Authorization: Bearer <token>, validates the JWT, loads the
// user and injects it into the context.
func AuthJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := userFromHeader(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		c.Set(CtxUser, user)
		c.Next()
	}
}

// OptionalAuth injects the user when a valid token is present and stays quiet
// otherwise.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := userFromHeader(c); ok {
			c.Set(CtxUser, user)
		}
		c.Next()
	}
}

func userFromHeader(c *gin.Context) (models.User, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return models.User{}, false
	}
	rawToken := strings.TrimSpace(authHeader[7:])

	claims, err := utils.VerifyToken(rawToken)
	if err != nil {
		return models.User{}, false
	}

	uid, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return models.User{}, false
	}

	var user models.User
	if err := config.DB.First(&user, uid).Error; err != nil {
		return models.User{}, false
	}
	return user, true
}

// RequireAdmin blocks routes reserved for admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		u := v.(models.User)
		if !u.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}
