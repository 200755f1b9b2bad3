package main

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-tasks-api/internal/config"
	"github.com/yukikurage/team-tasks-api/internal/database"
	"github.com/yukikurage/team-tasks-api/internal/handlers"
	"github.com/yukikurage/team-tasks-api/internal/logger"
	"github.com/yukikurage/team-tasks-api/internal/services"
	"github.com/yukikurage/team-tasks-api/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	store, err := session.NewStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session store")
	}

	// AI drafts are optional
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, task draft generation disabled")
	}

	r := handlers.NewRouter(cfg, db, store, aiService)

	logger.Info().Str("port", cfg.Port).Str("session_store", cfg.SessionStore).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
