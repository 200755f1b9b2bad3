package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/config"
	"github.com/yukikurage/team-tasks-api/internal/identity"
	"github.com/yukikurage/team-tasks-api/internal/logger"
	"github.com/yukikurage/team-tasks-api/internal/middleware"
	"github.com/yukikurage/team-tasks-api/internal/repository"
	"github.com/yukikurage/team-tasks-api/internal/services"
	"github.com/yukikurage/team-tasks-api/internal/session"
	"gorm.io/gorm"
)

// NewRouter wires repositories, services and handlers into a gin engine.
// aiService may be nil, in which case draft generation reports 503.
func NewRouter(cfg *config.Config, db *gorm.DB, store sessions.Store, aiService *services.AIService) *gin.Engine {
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	authService := services.NewAuthService(userRepo)
	orgService := services.NewOrganizationService(orgRepo, userRepo)
	inviteService := services.NewInviteService(inviteRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, aiService)
	dashboardService := services.NewDashboardService(taskService)

	authHandler := NewAuthHandler(authService, identity.NewVerifier(cfg.IdentitySecret, cfg.IdentityIssuer, cfg.IdentityAudience))
	orgHandler := NewOrganizationHandler(orgService)
	inviteHandler := NewInviteHandler(inviteService)
	taskHandler := NewTaskHandler(taskService)
	dashboardHandler := NewDashboardHandler(dashboardService)

	r := gin.New()
	r.Use(logger.GinRecovery())
	r.Use(logger.GinLogger())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(session.Middleware(store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Team Tasks API is running",
		})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/session", middleware.RateLimit(cfg.SignInRPS, cfg.SignInBurst), authHandler.SignIn)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.Me)
		}

		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("/members", orgHandler.ListMembers)
		}

		invites := api.Group("/invites")
		invites.Use(middleware.RequireAuth())
		{
			invites.GET("/check", inviteHandler.CheckInvite)
			invites.POST("", inviteHandler.CreateInvite)
			invites.GET("", inviteHandler.ListInvites)
			invites.POST("/:id/accept", inviteHandler.AcceptInvite)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/generate", taskHandler.GenerateTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
			tasks.POST("/:id/assignments", taskHandler.AssignTask)
			tasks.DELETE("/:id/assignments/:assigneeId", taskHandler.RemoveAssignment)
		}

		api.GET("/dashboard", middleware.RequireAuth(), dashboardHandler.GetDashboard)
	}

	return r
}
