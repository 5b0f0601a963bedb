package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/permitology/permit-system/internal/api"
	"github.com/permitology/permit-system/internal/infrastructure/config"
	mongodb "github.com/permitology/permit-system/internal/infrastructure/db/mongo"
	redisdb "github.com/permitology/permit-system/internal/infrastructure/db/redis"
	"github.com/permitology/permit-system/internal/infrastructure/queue"
	"github.com/permitology/permit-system/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		_ = rdb.Close()
	}()

	// --- Audit export ---
	dispatcher := queue.NewDispatcher(cfg.ExportWorkers, queue.LogSink{Log: log}, log)
	dispatcher.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(db, rdb, cfg.JWTSecret, dispatcher, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("permit system listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// ensureIndexes creates every collection index the repositories rely on,
// including the unique email indexes backing actor creation.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := mongodb.NewActorRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongodb.NewCaseRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := mongodb.NewActionRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return mongodb.NewAuthRepository(db).EnsureIndexes(ctx)
}
