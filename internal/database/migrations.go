package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Kyz7/pixelarts/internal/logger"
	"gorm.io/gorm"
)

type Migration struct {
	ID        uint   `gorm:"primaryKey"`
	Version   string `gorm:"uniqueIndex;size:255"`
	AppliedAt time.Time
}

// RunMigrations applies every *.sql file in dir that has not been recorded yet,
// in file name order. The files hold postgres-only DDL, so other dialects skip them.
func RunMigrations(db *gorm.DB, dir string) error {
	if db.Dialector.Name() != "postgres" {
		logger.L().Infof("⏭️  Skipping SQL migrations for %s", db.Dialector.Name())
		return nil
	}

	if err := db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)

		var applied int64
		if err := db.Model(&Migration{}).Where("version = ?", filename).Count(&applied).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", filename, err)
		}
		if applied > 0 {
			logger.L().Debugf("⏭️  Skipping migration: %s (already applied)", filename)
			continue
		}

		sqlContent, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		logger.L().Infof("▶️  Applying migration: %s", filename)
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(sqlContent)).Error; err != nil {
				return err
			}
			return tx.Create(&Migration{Version: filename, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", filename, err)
		}

		logger.L().Infof("✅ Applied migration: %s", filename)
	}

	return nil
}
