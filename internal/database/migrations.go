package database

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/rmitchellscott/bayerlab/internal/logging"
)

// RunMigrations runs any pending database migrations using gormigrate
func RunMigrations(db *gorm.DB) error {
	logging.InfoWithComponent(logging.ComponentDatabase, "Running database migrations")

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202610160000_create_saved_palettes",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&SavedPalette{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("saved_palettes")
			},
		},
		{
			ID: "202610160001_create_render_records",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&RenderRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("render_records")
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Pick up columns added to models after their create migration
	for _, model := range GetAllModels() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	logging.InfoWithComponent(logging.ComponentDatabase, "Database migrations completed")
	return nil
}
