package repository

import (
	"garment-tracker/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema. Prefer a migration tool in production.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Account{}, &model.Product{}, &model.Order{}, &model.TrackingEntry{})
}
