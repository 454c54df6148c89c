package db

import (
	"fmt"

	"github.com/mohammadpnp/parts-import/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables owned by this service.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.ImportJob{}, &models.InventoryItem{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
