package database

import "cinelog/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Movie{},
		&models.Review{},
		&models.ReviewLike{},
		&models.Comment{},
	}
}
