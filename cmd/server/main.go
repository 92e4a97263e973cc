package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/omraut/carbon-terminal/internal/ai"
	"github.com/omraut/carbon-terminal/internal/config"
	"github.com/omraut/carbon-terminal/internal/database"
	"github.com/omraut/carbon-terminal/internal/handler"
	"github.com/omraut/carbon-terminal/internal/history"
	"github.com/omraut/carbon-terminal/internal/localstore"
	"github.com/omraut/carbon-terminal/internal/model"
	"github.com/omraut/carbon-terminal/internal/queue"
	"github.com/omraut/carbon-terminal/internal/repository"
	"github.com/omraut/carbon-terminal/internal/router"
	"github.com/omraut/carbon-terminal/internal/security"
	"github.com/omraut/carbon-terminal/internal/service"
	"github.com/omraut/carbon-terminal/internal/state"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		logger.Fatal("schema bootstrap failed", zap.Error(err))
	}
	cancel()

	// Redis is optional: rate limiting, caching and the shared lockout
	// counters degrade gracefully without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, limiter and cache disabled, lockout is local only")
	}

	local, err := localstore.Open(cfg.StatePath)
	if err != nil {
		logger.Fatal("state file open failed", zap.String("path", cfg.StatePath), zap.Error(err))
	}

	creds := repository.NewCredentialRepo(db)
	profiles := repository.NewProfileRepo(db)
	tokens := repository.NewTokenRepo(db)
	emissions := repository.NewEmissionRepo(db)
	activityLogs := repository.NewActivityLogRepo(db)

	configStore := state.NewConfigStore(model.DefaultGlobalConfig(cfg.ProjectNumber))
	vitals := security.NewVitalsStore(rdb, local)
	hist := history.New(emissions, local, logger)
	pub := service.NewPublisher(cfg.AMQPURL, logger)

	var aiClient *ai.Client
	if cfg.GeminiAPIKey != "" {
		aiClient, err = ai.New(context.Background(), cfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Warn("ai client init failed, ai routes disabled", zap.Error(err))
		}
	} else {
		logger.Info("no GEMINI_API_KEY set, ai routes disabled")
	}

	go queue.StartActivityConsumer(cfg.AMQPURL, activityLogs, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Auth: &handler.AuthHandler{
			Cfg: cfg, Creds: creds, Profiles: profiles, Tokens: tokens,
			Vitals: vitals, Local: local, Pub: pub, Log: logger,
		},
		Emissions: &handler.EmissionHandler{
			State: configStore, History: hist, Pub: pub, Log: logger,
		},
		Authority: &handler.AuthorityHandler{
			Cfg: cfg, State: configStore, Users: profiles, Creds: creds,
			Profiles: profiles, Logs: activityLogs, Sessions: tokens,
			History: hist, Pub: pub, Log: logger,
		},
		AI: &handler.AIHandler{Client: aiClient, History: hist, Log: logger},
	}, cfg, rdb)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
