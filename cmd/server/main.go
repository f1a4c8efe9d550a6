package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/VisageDvachevsky/wink-ai-model/internal/config"
	"github.com/VisageDvachevsky/wink-ai-model/internal/db"
	"github.com/VisageDvachevsky/wink-ai-model/internal/engine"
	"github.com/VisageDvachevsky/wink-ai-model/internal/handler"
	"github.com/VisageDvachevsky/wink-ai-model/internal/interpreter"
	"github.com/VisageDvachevsky/wink-ai-model/internal/middleware"
	"github.com/VisageDvachevsky/wink-ai-model/internal/repository"
	"github.com/VisageDvachevsky/wink-ai-model/internal/router"
	"github.com/VisageDvachevsky/wink-ai-model/internal/service"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "scriptreview-api")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	tax, err := loadTaxonomy(cfg.TaxonomyFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TaxonomyFile).Msg("failed to load category taxonomy")
	}

	rater := engine.New(engine.Config{BaseURL: cfg.EngineURL, Timeout: cfg.EngineTimeout})
	cache := service.NewCacheService(cfg.RedisURL, cfg.SimulationCacheTTL)
	defer cache.Close()

	scripts := repository.NewScriptRepo(pool)
	detections := repository.NewDetectionRepo(pool)
	corrections := repository.NewCorrectionRepo(pool)

	scriptSvc := service.NewScriptService(scripts, rater, cache)
	detectionSvc := service.NewDetectionService(scripts, detections, corrections, rater, cache)
	simulationSvc := service.NewSimulationService(interpreter.New(), rater, scripts, cache)

	validate := middleware.NewValidator()
	handlers := &router.Handlers{
		Script:     handler.NewScriptHandler(scriptSvc, validate),
		Detection:  handler.NewDetectionHandler(detectionSvc, validate),
		Simulation: handler.NewSimulationHandler(simulationSvc, validate),
		Taxonomy:   handler.NewTaxonomyHandler(tax),
		Export:     handler.NewExportHandler(detectionSvc, tax),
		Health:     handler.NewHealthHandler(pool, cache.Client(), rater),
	}

	limiters := &router.Limiters{}
	if cfg.RateLimitEnabled {
		limiters.Simulation = middleware.NewSimulationRateLimiter()
		limiters.Detection = middleware.NewDetectionRateLimiter()
		defer limiters.Simulation.Stop()
		defer limiters.Detection.Stop()
	}

	handler.InitMetrics(pool)

	app := fiber.New(fiber.Config{
		AppName:      "Script Review API",
		ServerHeader: "ScriptReview",
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		// Detection passes and what-if runs wait on the engine.
		WriteTimeout: cfg.EngineTimeout + 10*time.Second,
		JSONEncoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:  jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})
	router.Setup(app, handlers, limiters, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Str("engine", cfg.EngineURL).
		Int("categories", len(tax.Entries())).
		Msg("script review backend starting")

	if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Default()
	}
	return taxonomy.Load(path)
}
