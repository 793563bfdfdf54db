// Command auth runs the House Manager identity service: registration,
// login, bearer-token session validation, and profile management.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/housekeeper/internal/auth/password"
	"github.com/skillsenselab/housekeeper/internal/auth/token"
	"github.com/skillsenselab/housekeeper/internal/config"
	"github.com/skillsenselab/housekeeper/internal/database"
	"github.com/skillsenselab/housekeeper/internal/logger"
	"github.com/skillsenselab/housekeeper/internal/server"
	"github.com/skillsenselab/housekeeper/internal/telemetry"
	"github.com/skillsenselab/housekeeper/internal/user"
)

const serviceName = "auth"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auth: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.Config
	if err := config.Load(serviceName, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Init(cfg.Logging, cfg.Name)
	log := logger.GetGlobalLogger()
	log.Info("Starting identity service", logger.Fields(
		"version", cfg.Version,
		"environment", cfg.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Name, cfg.Version, log)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown error", logger.ErrorFields("telemetry.shutdown", err))
		}
	}()

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.MigrateUp(user.MigrationsFS, user.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	hasher := password.NewHasher(cfg.Auth.Password)
	tokens, err := token.NewService(cfg.Auth.JWT)
	if err != nil {
		return fmt.Errorf("init token service: %w", err)
	}

	store := user.NewStore(db)
	svc := user.NewService(store, hasher, tokens, log, tel.Metrics)
	handler := user.NewHandler(svc, log)

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware(tel.Metrics)

	engine := srv.GinEngine()
	engine.GET("/", server.Welcome("Auth Service"))
	engine.GET("/health", server.Health(cfg.Name, db))
	engine.GET("/info", server.Info(cfg.Name))
	handler.RegisterRoutes(engine)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
