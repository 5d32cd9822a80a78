package database

import (
	"fmt"

	"picfeed/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models,
// ordered so that referenced tables are created first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.PostView{},
	}
}

// Migrate creates or updates the schema for every persistent model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
