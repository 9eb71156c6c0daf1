package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/clintrack/trial-registry/internal/api"
	"github.com/clintrack/trial-registry/internal/core/domain"
	"github.com/clintrack/trial-registry/internal/infrastructure/db/mongo"
	"github.com/clintrack/trial-registry/internal/infrastructure/db/redis"
	"github.com/clintrack/trial-registry/internal/pkg/config"
	"github.com/clintrack/trial-registry/pkg/logger"
)

// @title        Clinical Trial Registry API
// @version      1.0
// @description  Role-based registry for managing clinical trial records.
// @BasePath     /api
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Development(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	if err := ensureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	if err := bootstrapAdmin(ctx, db, cfg.Admin, log); err != nil {
		log.Fatal().Err(err).Msg("admin bootstrap failed")
	}

	e := api.NewRouter(cfg, db, rdb, log)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func ensureIndexes(ctx context.Context, db *mongodriver.Database) error {
	if err := mongo.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	return mongo.NewTrialRepository(db).EnsureIndexes(ctx)
}

// bootstrapAdmin inserts the administrator account described by the
// ADMIN_* environment variables. Admin accounts are never created through
// the public API. A no-op when the variables are unset or the account
// already exists.
func bootstrapAdmin(ctx context.Context, db *mongodriver.Database, admin config.AdminConfig, log zerolog.Logger) error {
	if admin.Username == "" || admin.Email == "" || admin.Password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	users := mongo.NewUserRepository(db)
	_, err = users.Create(ctx, &domain.User{
		Username:     admin.Username,
		Email:        strings.ToLower(admin.Email),
		PasswordHash: string(hash),
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         domain.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	switch {
	case errors.Is(err, domain.ErrUserExists):
		log.Debug().Str("username", admin.Username).Msg("admin account already provisioned")
		return nil
	case err != nil:
		return err
	}

	log.Info().Str("username", admin.Username).Msg("admin account provisioned")
	return nil
}
