package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/tenantly/rewards-server/controllers"
	"github.com/tenantly/rewards-server/middleware"
)

func SetupRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", controllers.HealthCheck)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.POST("/google/login", controllers.GoogleLoginHandler)
		}

		api.GET("/surveys/active", middleware.OptionalAuth(), controllers.GetActiveSurvey)

		protected := api.Group("/")
		protected.Use(middleware.AuthJWT())
		{
			protected.GET("/me", controllers.Me)

			feedback := protected.Group("/feedback")
			{
				feedback.GET("/:id", controllers.GetFeedbackState)
				feedback.POST("/:id/start", controllers.StartFeedback)
				feedback.POST("/:id/answer", middleware.RateLimitFeedbackAnswer(), controllers.AnswerFeedback)
				feedback.POST("/:id/back", controllers.FeedbackBack)
			}

			receipts := protected.Group("/receipts")
			{
				receipts.POST("", middleware.RateLimitReceiptSubmit(), controllers.SubmitReceipt)
				receipts.GET("", controllers.MyReceipts)
			}

			redemptions := protected.Group("/redemptions")
			{
				redemptions.POST("", controllers.CreateRedemption)
				redemptions.GET("", controllers.MyRedemptions)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/surveys", controllers.CreateSurvey)
				admin.GET("/surveys", controllers.ListSurveys)
				admin.GET("/surveys/:id", middleware.CheckSurvey(), controllers.GetSurveyDetail)
				admin.PUT("/surveys/:id/activate", middleware.CheckSurvey(), controllers.ActivateSurvey)
				admin.PUT("/surveys/:id/deactivate", middleware.CheckSurvey(), controllers.DeactivateSurvey)
				admin.POST("/surveys/:id/questions", middleware.CheckSurvey(), controllers.AddQuestion)
				admin.GET("/surveys/:id/dashboard", middleware.CheckSurvey(), controllers.GetSurveyDashboard)
				admin.POST("/surveys/:id/export", middleware.CheckSurvey(), controllers.CreateExport)
				admin.GET("/exports/:job_id", controllers.GetExport)

				admin.PUT("/questions/:id", controllers.UpdateQuestion)
				admin.DELETE("/questions/:id", controllers.DeleteQuestion)

				admin.GET("/receipts", controllers.ListReceipts)
				admin.PUT("/receipts/:id/review", controllers.ReviewReceipt)

				admin.GET("/redemptions", controllers.ListRedemptions)
				admin.PUT("/redemptions/:id/review", controllers.ReviewRedemption)
			}
		}
	}
}
