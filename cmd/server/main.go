package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hausledger/backend/internal/advisor"
	"github.com/hausledger/backend/internal/auth"
	"github.com/hausledger/backend/internal/config"
	"github.com/hausledger/backend/internal/logger"
	"github.com/hausledger/backend/internal/routes"
	"github.com/hausledger/backend/internal/service"
	"github.com/hausledger/backend/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	var st store.Store
	if cfg.UseMemoryStore {
		log.Info().Msg("using in-memory store for local development")
		st = store.NewMemoryStore()
	} else {
		if cfg.DatabaseURL == "" {
			log.Fatal().Msg("DATABASE_URL is required unless USE_MEMORY_STORE=true")
		}
		pg, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		st = pg
	}

	// Memory store always runs with mock auth so local development needs no
	// Firebase project.
	var authMiddleware gin.HandlerFunc
	if cfg.UseMemoryStore || cfg.SkipAuth {
		log.Warn().Msg("authentication disabled, injecting local dev user")
		authMiddleware = auth.LocalDevMiddleware()
	} else {
		fb, err := auth.NewFirebaseAuth(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Firebase auth")
		}
		authMiddleware = auth.Middleware(fb)
	}

	var suggester advisor.Suggester
	if cfg.GeminiAPIKey != "" {
		s, err := advisor.NewGeminiSuggester(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create Gemini suggester")
		}
		suggester = s
	} else {
		log.Info().Msg("no Gemini API key configured, advisory categorization disabled")
	}

	svc := service.NewLedgerService(st, service.Config{
		PreliminaryMarker: cfg.PreliminaryMarker,
		Suggester:         suggester,
		Recurring: service.RecurringConfig{
			MinMonthsBack:     cfg.RecurringMinMonthsBack,
			MaxMonthsBack:     cfg.RecurringMaxMonthsBack,
			AmountTolerance:   cfg.RecurringAmountTolerance,
			ForwardWindowDays: cfg.RecurringForwardWindowDays,
		},
	})

	if err := svc.SeedDefaultCategories(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default categories")
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, svc, authMiddleware)

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
