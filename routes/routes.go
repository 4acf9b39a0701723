package routes

import (
	"journal-management-api/controllers"
	"journal-management-api/middleware"
	"journal-management-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Journal Management API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Manuscripts
			manuscripts := protected.Group("/manuscripts")
			{
				manuscripts.GET("", controllers.GetManuscripts)
				manuscripts.GET("/:id", controllers.GetManuscript)

				// Authors submit manuscripts and revisions
				manuscripts.POST("", middleware.RequireRole(models.RoleAuthor), controllers.SubmitManuscript)
				manuscripts.POST("/:id/revisions", middleware.RequireRole(models.RoleAuthor), controllers.SubmitRevision)

				// Editors drive the workflow
				manuscripts.POST("/:id/reviewers", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.AssignReviewers)
				manuscripts.POST("/:id/decision", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.RecordDecision)
				manuscripts.POST("/:id/publish", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.PublishManuscript)
				manuscripts.DELETE("/:id", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.DeleteManuscript)

				// Review aggregation and revision history
				manuscripts.GET("/:id/reviews/aggregate", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.GetReviewAggregate)
				manuscripts.GET("/:id/revisions", controllers.GetRevisionHistory)
				manuscripts.GET("/:id/revisions/compare", controllers.CompareRevisions)

				// DOI lifecycle
				manuscripts.GET("/:id/doi", controllers.GetDoiStatus)
				manuscripts.POST("/:id/doi/deposit", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.DepositDoi)
				manuscripts.POST("/:id/doi/retry", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.RetryDoi)
				manuscripts.POST("/:id/doi/manual", middleware.RequireRole(models.RoleAdmin), controllers.ManualAssignDoi)
			}

			// Bulk DOI retry lives outside the per-manuscript tree
			protected.POST("/doi/bulk-retry", middleware.RequireRole(models.RoleAdmin), controllers.BulkRetryDoi)

			// Reviews
			reviews := protected.Group("/reviews")
			{
				reviews.GET("/mine", middleware.RequireRole(models.RoleReviewer), controllers.GetMyReviews)
				reviews.POST("/:id/respond", middleware.RequireRole(models.RoleReviewer), controllers.RespondToInvitation)
				reviews.POST("/:id/submit", middleware.RequireRole(models.RoleReviewer), controllers.SubmitReview)
				reviews.POST("/:id/remind", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.SendReviewReminder)
			}

			// Issues
			issues := protected.Group("/issues")
			{
				issues.GET("", controllers.GetIssues)
				issues.GET("/:id", controllers.GetIssue)
				issues.POST("", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.CreateIssue)
				issues.POST("/:id/manuscripts", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.AssignManuscriptToIssue)
				issues.POST("/:id/publish", middleware.RequireRole(models.RoleEditor, models.RoleAdmin), controllers.PublishIssue)
			}

			// Files
			files := protected.Group("/files")
			{
				files.POST("/upload", controllers.UploadFile)
				files.GET("/download/:file_id", controllers.DownloadFile)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetMyNotifications)
				notifications.PUT("/:notification_id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}
		}
	}
}
