package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcastillo/reqtx"
	"github.com/mcastillo/reqtx/engine"
	"github.com/mcastillo/reqtx/internal/infrastructure/api"
	"github.com/mcastillo/reqtx/internal/infrastructure/auth"
	"github.com/mcastillo/reqtx/internal/infrastructure/cache"
	"github.com/mcastillo/reqtx/internal/infrastructure/config"
	"github.com/mcastillo/reqtx/internal/infrastructure/database"
	"github.com/mcastillo/reqtx/internal/infrastructure/logging"
	"github.com/mcastillo/reqtx/internal/infrastructure/metrics"
	"github.com/mcastillo/reqtx/internal/infrastructure/postgres"
)

func main() {
	logger := newLogger()
	logger.Info("reqtx starting up")

	if err := run(logger); err != nil {
		logger.Error("application failed", "error", err.Error())
		os.Exit(1)
	}
}

// newLogger honors LOG_LEVEL (debug, info, warn, error); unset or invalid
// values fall back to the default info level.
func newLogger() *logging.Logger {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return logging.New()
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return logging.New()
	}
	return logging.NewWithLevel(level)
}

func run(logger *logging.Logger) error {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err.Error())
		return err
	}

	// establish database connection
	conn, err := database.New(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	// run migrations
	migrator := database.NewMigrator(conn, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := migrator.Run(ctx); err != nil {
		return err
	}

	// verify health after migrations
	if err := conn.HealthCheck(ctx); err != nil {
		return err
	}

	logger.Info("reqtx infrastructure ready", "schema", conn.Schema())

	// initialize prometheus metrics
	appMetrics := metrics.New()
	logger.Info("prometheus metrics initialized")

	// initialize jwt validator
	jwtValidator := auth.NewJWTValidator(cfg.Auth.JWTSecret)

	// initialize repositories for the read side
	pool := conn.Pool()
	articleRepo := postgres.NewArticleRepository(pool)
	authorRepo := postgres.NewAuthorRepository(pool)

	// initialize redis (optional - disabled if REDIS_URL is empty)
	var redisClient *cache.RedisClient
	if cfg.Redis.URL != "" {
		redisClient, err = cache.NewRedisClient(cache.RedisConfig{URL: cfg.Redis.URL}, logger)
		if err != nil {
			logger.Error("failed to create redis client", "error", err.Error())
			return err
		}

		if err := redisClient.Connect(ctx); err != nil {
			logger.Warn("redis connection failed, continuing without cache", "error", err.Error())
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info("redis article list cache enabled")
		}
	}

	// register the model graph. relations resolve in one pass, including the
	// author <-> article and article <-> comment cycles.
	registry := engine.NewRegistry(pool)
	err = registry.Register(
		engine.NewModel("Author", "articles.authors").
			HasMany("ArticlesRel", "Article", "author_id"),
		engine.NewModel("Article", "articles.articles").
			BelongsTo("AuthorRel", "Author", "author_id").
			HasMany("CommentsRel", "Comment", "article_id"),
		engine.NewModel("Comment", "articles.comments").
			BelongsTo("ArticleRel", "Article", "article_id"),
	)
	if err != nil {
		logger.Error("model registration failed", "error", err.Error())
		return err
	}

	// bridge request transactions into the pipeline
	bridge := reqtx.New(engine.NewDB(pool), registry,
		reqtx.WithHooks(appMetrics.Hooks()),
		reqtx.WithLogger(logger.WithComponent("reqtx").Logger),
	)

	// initialize http server
	serverConfig := api.DefaultServerConfig()
	if port := os.Getenv("PORT"); port != "" {
		serverConfig.Port = ":" + port
	}

	server := api.NewServer(serverConfig, logger)

	// register routes
	api.RegisterRoutes(server.Echo(), api.RouterConfig{
		Bridge:       bridge,
		ArticleRepo:  articleRepo,
		AuthorRepo:   authorRepo,
		Cache:        redisClient,
		DB:           conn,
		JWTValidator: jwtValidator,
		Logger:       logger,
		Metrics:      appMetrics,
	})

	// start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server error", "error", err.Error())
		}
	}()

	// wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("reqtx shutting down")

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err.Error())
		return err
	}

	logger.Info("reqtx shutdown complete")
	return nil
}
