package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/handler"
	"github.com/kasu/retention-backend/internal/metrics"
	"github.com/kasu/retention-backend/internal/middleware"
	"github.com/kasu/retention-backend/internal/model"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Assessment    *handler.AssessmentHandler
	Student       *handler.StudentHandler
	StudentPortal *handler.StudentPortalHandler
	Intervention  *handler.InterventionHandler
	Dashboard     *handler.DashboardHandler
	Model         *handler.ModelHandler
	System        *handler.SystemHandler
	WS            *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(metrics.Middleware())
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", metrics.Handler())

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register/student", handlers.Auth.RegisterStudent)
		auth.POST("/register/lecturer", handlers.Auth.RegisterLecturer)
		auth.GET("/register/student-ids", middleware.CacheControl(60), handlers.Auth.RegistrableStudentIDs)
	}

	// ─── 1. Authenticated (any role) ───────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.NoStore(),
		middleware.RequireJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		api.POST("/auth/logout", handlers.Auth.Logout)
		api.GET("/auth/me", handlers.Auth.Me)
	}

	// ─── 2. Student Portal ─────────────────────────────────────────────
	student := api.Group("/student")
	student.Use(middleware.RequireStudent())
	{
		student.GET("/dashboard", handlers.StudentPortal.Dashboard)
	}

	// ─── 3. Staff (admin, advisor, lecturer) ───────────────────────────
	staff := api.Group("")
	staff.Use(middleware.RequireStaff())
	{
		staff.POST("/assessments", handlers.Assessment.Assess)

		staff.GET("/students", handlers.Student.List)
		staff.GET("/students/:id", handlers.Student.Get)
		staff.GET("/students/:id/assessment", handlers.Assessment.Latest)
		staff.GET("/students/:id/predictions", handlers.Assessment.History)

		staff.POST("/students/:id/interventions", handlers.Intervention.Create)
		staff.GET("/students/:id/interventions", handlers.Intervention.List)
		staff.PATCH("/interventions/:id", handlers.Intervention.Update)

		staff.GET("/analytics", handlers.Dashboard.Analytics)

		staff.GET("/dashboard",
			middleware.RequireRole(model.RoleAdmin, model.RoleAdvisor),
			handlers.Dashboard.Summary,
		)
		staff.GET("/dashboard/lecturer",
			middleware.RequireRole(model.RoleLecturer, model.RoleAdmin),
			handlers.Dashboard.Lecturer,
		)
	}

	// ─── 4. Administration ─────────────────────────────────────────────
	admin := api.Group("/admin")
	{
		admin.POST("/rescore",
			middleware.RequireRole(model.RoleAdmin, model.RoleAdvisor),
			handlers.Assessment.Rescore,
		)

		admin.GET("/model", middleware.RequireRole(model.RoleAdmin), handlers.Model.Status)
		admin.POST("/model/reload", middleware.RequireRole(model.RoleAdmin), handlers.Model.Reload)
		admin.GET("/system/metrics", middleware.RequireRole(model.RoleAdmin), handlers.System.SystemMetricsSSE)
	}

	// ─── 5. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.CheckSession(authService),
		middleware.RequireStaff(),
	)
	{
		ws.GET("/alerts", handlers.WS.AlertStream)
	}

	return router
}
