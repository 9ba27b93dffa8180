// Package bootstrap wires the database, Redis and development fixtures that
// every command needs before it can serve or administer the API.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"cinelog/internal/cache"
	"cinelog/internal/config"
	"cinelog/internal/database"
	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/repository"
	"cinelog/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	defaultDevAdminEmail    = "admin@cinelog.local"
	defaultDevAdminNickname = "admin"
)

// Options control runtime initialization behavior.
type Options struct {
	// SkipRedis leaves the Redis client nil, for one-shot tools.
	SkipRedis bool
}

// InitRuntime connects to the database and Redis and ensures the development
// admin when configured.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	var rdb *redis.Client
	if !opts.SkipRedis {
		// May leave a nil client when Redis is unreachable.
		cache.InitRedis(cfg.RedisURL)
		rdb = cache.GetClient()
	}

	if err := EnsureDevAdmin(ctx, cfg, repository.NewUserRepository(db)); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}
	return db, rdb, nil
}

// EnsureDevAdmin creates or promotes the development admin account. It only
// acts in the development environment with DEV_BOOTSTRAP_ADMIN set.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository) error {
	if cfg == nil || users == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = defaultDevAdminEmail
	}
	if cfg.DevAdminPassword == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.IsAdmin {
			return nil
		}
		if err := users.SetAdmin(ctx, existing.ID, true); err != nil {
			return err
		}
		middleware.Logger.Info("development admin promoted", "user_id", existing.ID, "email", email)
		return nil
	}

	hash, err := service.HashPassword(cfg.DevAdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	nickname := defaultDevAdminNickname
	if taken, err := users.NicknameTaken(ctx, nickname, 0); err != nil {
		return err
	} else if taken {
		nickname = "cinelog_admin"
	}

	admin := &models.User{
		Email:          email,
		Password:       hash,
		Nickname:       nickname,
		FavoriteGenres: models.StringList{},
		SocialProvider: models.SocialProviderLocal,
		IsVerified:     true,
		IsAdmin:        true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	middleware.Logger.Info("development admin created", "user_id", admin.ID, "email", email)
	return nil
}
