package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/teamdesk/taskflow-api/internal/blobstore"
	"github.com/teamdesk/taskflow-api/internal/config"
	"github.com/teamdesk/taskflow-api/internal/constants"
	"github.com/teamdesk/taskflow-api/internal/database"
	"github.com/teamdesk/taskflow-api/internal/handlers"
	"github.com/teamdesk/taskflow-api/internal/logging"
	"github.com/teamdesk/taskflow-api/internal/middleware"
	"github.com/teamdesk/taskflow-api/internal/notifier"
	"github.com/teamdesk/taskflow-api/internal/repository"
	"github.com/teamdesk/taskflow-api/internal/services"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	logging.Init(cfg.LogFile)
	log := logging.Logger

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Notification pipeline
	directoryService := services.NewDirectoryService(userRepo, log)
	webhookClient := notifier.NewWebhookClient(log)
	dispatcher := notifier.NewDispatcher(notificationRepo, teamRepo, directoryService, webhookClient, log)
	defer dispatcher.Flush()

	// Services
	authService := services.NewAuthService(userRepo)
	teamService := services.NewTeamService(teamRepo)
	projectService := services.NewProjectService(projectRepo, teamRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, teamRepo, userRepo, sessionRepo, dispatcher)
	sessionService := services.NewSessionService(sessionRepo, taskRepo, projectRepo, teamRepo, dispatcher)
	commentService := services.NewCommentService(commentRepo, taskRepo, projectRepo, teamRepo, dispatcher)

	// Blob storage for attachments
	blobStore := blobstore.NewDiskStore(cfg.BlobDir, cfg.BlobBaseURL)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	teamHandler := handlers.NewTeamHandler(teamService, sessionService)
	projectHandler := handlers.NewProjectHandler(projectService, taskService)
	taskHandler := handlers.NewTaskHandler(taskService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	commentHandler := handlers.NewCommentHandler(commentService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	attachmentHandler := handlers.NewAttachmentHandler(blobStore, log)

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Uploaded blobs are served statically
	r.Static(cfg.BlobBaseURL, cfg.BlobDir)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.Me)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", teamHandler.Create)
			teams.GET("", teamHandler.List)
			teams.POST("/join", teamHandler.Join)
			teams.GET("/:id", middleware.RequireTeamAccess(), teamHandler.Get)
			teams.PATCH("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamOwner(), teamHandler.Update)
			teams.PUT("/:id/webhook", middleware.RequireTeamAccess(), middleware.RequireTeamOwner(), teamHandler.SetWebhook)
			teams.POST("/:id/invite", middleware.RequireTeamAccess(), middleware.RequireTeamOwner(), teamHandler.RegenerateInvite)
			teams.DELETE("/:id/members/:userId", middleware.RequireTeamAccess(), middleware.RequireTeamOwner(), teamHandler.RemoveMember)
			teams.GET("/:id/projects", middleware.RequireTeamAccess(), projectHandler.List)
			teams.GET("/:id/sessions", middleware.RequireTeamAccess(), teamHandler.OpenSessions)
			teams.GET("/:id/tasks/:seq", middleware.RequireTeamAccess(), taskHandler.GetByKey)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.Create)
			projects.GET("/:id", projectHandler.Get)
			projects.PATCH("/:id", projectHandler.Update)
			projects.DELETE("/:id", projectHandler.Delete)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.List)
			tasks.POST("", taskHandler.Create)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.Get)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.Update)
			tasks.POST("/:id/assignees", middleware.RequireTaskAccess(), taskHandler.Assign)
			tasks.DELETE("/:id/assignees", middleware.RequireTaskAccess(), taskHandler.Unassign)
			tasks.POST("/:id/transition", middleware.RequireTaskAccess(), taskHandler.Transition)
			tasks.POST("/:id/sessions", middleware.RequireTaskAccess(), sessionHandler.Start)
			tasks.GET("/:id/sessions", middleware.RequireTaskAccess(), sessionHandler.ListByTask)
			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), commentHandler.Create)
			tasks.GET("/:id/comments", middleware.RequireTaskAccess(), commentHandler.List)
		}

		// Work session routes (protected)
		workSessions := api.Group("/sessions")
		workSessions.Use(middleware.RequireAuth())
		{
			workSessions.GET("/:sessionId", sessionHandler.Get)
			workSessions.POST("/:sessionId/pause", sessionHandler.Pause)
			workSessions.POST("/:sessionId/submit", sessionHandler.Submit)
		}

		// Comment routes (protected)
		comments := api.Group("/comments")
		comments.Use(middleware.RequireAuth())
		{
			comments.PATCH("/:commentId", commentHandler.Update)
			comments.DELETE("/:commentId", commentHandler.Delete)
		}

		// Notification inbox (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:notificationId/read", notificationHandler.MarkRead)
		}

		// Attachment upload (protected)
		api.POST("/attachments", middleware.RequireAuth(), attachmentHandler.Upload)
	}

	// Start server
	log.Infof("Server starting on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
