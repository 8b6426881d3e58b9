package database

import (
	"fmt"

	"gorm.io/gorm"

	"contest-tracker/internal/model"
)

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Contest{}, &model.ContestAuditEntry{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
