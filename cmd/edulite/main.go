package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Freeeeeet/edulite_core/internal/app"
	"github.com/Freeeeeet/edulite_core/internal/config"
	"github.com/Freeeeeet/edulite_core/internal/events"
	"github.com/Freeeeeet/edulite_core/internal/notify"
	"github.com/Freeeeeet/edulite_core/internal/render"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to the .env file")
	migrateOnly := pflag.Bool("migrate-only", false, "apply migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, *migrateOnly, logger); err != nil {
		logger.Error("EduLite core stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, migrateOnly bool, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting EduLite core",
		zap.String("environment", cfg.Environment),
		zap.Bool("env_file_loaded", cfg.EnvFileLoaded),
		zap.Bool("notifications", cfg.NotificationsEnabled()))

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return err
	}
	if migrateOnly {
		return nil
	}

	store := repository.NewPostgresStore(pool, logger)

	handler, err := newEventHandler(cfg, store, logger)
	if err != nil {
		return err
	}
	dispatcher := events.NewDispatcher(handler, cfg.EventQueueSize, logger.Named("events"))
	// Detached from the signal so Stop can still drain queued events.
	dispatcher.Start(context.WithoutCancel(ctx))

	services := app.NewServices(store, cfg.Policy(), render.NewMarkdown(), dispatcher, logger)

	scheduler := app.NewScheduler(services.Suggestions, cfg.SuggestionInterval, logger.Named("scheduler"))
	scheduler.Start(ctx)

	logger.Info("EduLite core is running")
	<-ctx.Done()

	logger.Info("Shutting down")
	scheduler.Stop()
	dispatcher.Stop()
	return nil
}

func newEventHandler(cfg *config.Config, store repository.Store, logger *zap.Logger) (events.Handler, error) {
	if !cfg.NotificationsEnabled() {
		return notify.NewLogHandler(logger.Named("notify")), nil
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return notify.NewTelegramHandler(b, store, logger.Named("notify")), nil
}
