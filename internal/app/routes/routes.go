package routes

import (
	"net/http"
	"time"

	"github.com/attachtrack/attachtrack/internal/app/controllers"
	"github.com/attachtrack/attachtrack/internal/app/models"
	"github.com/attachtrack/attachtrack/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Auth       *controllers.AuthController
	Student    *controllers.StudentController
	Supervisor *controllers.SupervisorController
	Attachment *controllers.AttachmentController
	Logbook    *controllers.LogbookController
}

// RateLimit configures the limiter in front of the sign-in routes
type RateLimit struct {
	Limiter  middleware.Limiter
	Requests int
	Window   time.Duration
}

// HealthCheck reports whether the store is reachable
type HealthCheck func(*gin.Context) error

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	handlers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimit RateLimit,
	health HealthCheck,
) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(c *gin.Context) {
		if err := health(c); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	auth.Use(middleware.RateLimit(rateLimit.Limiter, rateLimit.Requests, rateLimit.Window))
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/password-reset", handlers.Auth.ResetPassword)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	admin := authMiddleware.RoleRequired(models.CredentialAdmin)
	staff := authMiddleware.RoleRequired(models.CredentialAdmin, models.CredentialSupervisor)

	students := authenticated.Group("/students")
	{
		students.GET("", staff, handlers.Student.List)
		students.POST("", admin, handlers.Student.BulkAdd)
		students.PUT("/:id", admin, handlers.Student.Update)
		students.DELETE("", admin, handlers.Student.Delete)
		students.POST("/:id/attachments",
			authMiddleware.RoleRequired(models.CredentialAdmin, models.CredentialStudent),
			handlers.Attachment.Create)
	}

	supervisors := authenticated.Group("/supervisors")
	supervisors.Use(admin)
	{
		supervisors.GET("", handlers.Supervisor.List)
		supervisors.POST("", handlers.Supervisor.BulkAdd)
		supervisors.PUT("/:id", handlers.Supervisor.Update)
		supervisors.DELETE("", handlers.Supervisor.Delete)
	}

	attachments := authenticated.Group("/attachments")
	{
		attachments.GET("", staff, handlers.Attachment.List)
		attachments.PUT("/:id", handlers.Attachment.Update)
		attachments.DELETE("", admin, handlers.Attachment.Delete)
		attachments.GET("/:id/logs", handlers.Logbook.List)
		attachments.POST("/:id/logs", handlers.Logbook.Add)
	}

	logs := authenticated.Group("/logs")
	{
		logs.PUT("/:id", handlers.Logbook.Edit)
		logs.DELETE("/:id", handlers.Logbook.Delete)
	}
}
