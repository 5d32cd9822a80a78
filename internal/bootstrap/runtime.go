// Package bootstrap prepares the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"picfeed/internal/cache"
	"picfeed/internal/config"
	"picfeed/internal/database"
	"picfeed/internal/middleware"
	"picfeed/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and, in development,
// makes sure the configured root admin exists. The Redis client is nil when
// Redis is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(context.Background(), cache.OptionsFromConfig(cfg))

	if err := EnsureDevRootAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}
	return db, rdb, nil
}

// EnsureDevRootAdmin creates or promotes the DEV_ROOT_* account when
// DEV_BOOTSTRAP_ROOT is set in the development environment.
func EnsureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "picfeed_root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@picfeed.local"
	}
	if cfg.DevRootPassword == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		err := tx.Where("username = ?", username).First(&root).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			root = models.User{
				Username: username,
				Email:    email,
				Password: string(hashed),
				Language: models.LanguageEnglish,
				IsAdmin:  true,
			}
			if err := tx.Create(&root).Error; err != nil {
				return err
			}
			middleware.Logger.Info("development root admin created", "username", username)
		case err != nil:
			return err
		default:
			if err := tx.Model(&models.User{}).Where("id = ?", root.ID).
				Updates(map[string]any{"is_admin": true, "is_deleted": false, "deleted_at": nil}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
