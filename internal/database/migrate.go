package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/recipebox/backend/internal/model"
)

// SchemaMigrationsDDL creates the bookkeeping table shared by RunMigrations
// and cmd/migrate.
const SchemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(64) PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// RunMigrations brings the schema up to date. sqlite databases, and any
// database without a migrations directory, use gorm auto-migration; postgres
// applies the SQL files in migrationsDir in name order.
func RunMigrations(db *gorm.DB, migrationsDir string, log *slog.Logger) error {
	if db.Dialector.Name() == "sqlite" || migrationsDir == "" {
		log.Info("using gorm auto-migration", slog.String("dialect", db.Dialector.Name()))
		return db.AutoMigrate(&model.Recipe{}, &model.Ingredient{})
	}

	files, err := MigrationFiles(migrationsDir)
	if err != nil {
		return err
	}

	if err := db.Exec(SchemaMigrationsDDL).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, name := range files {
		version := MigrationVersion(name)

		var count int64
		if err := db.Table("schema_migrations").Where("version = ?", version).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Debug("skipping migration", slog.String("name", name))
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return err
			}
			return tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, name).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}

		log.Info("applied migration", slog.String("name", name))
	}

	return nil
}

// MigrationFiles lists the forward migrations (*.sql minus *_rollback.sql)
// in dir, sorted by name.
func MigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".sql" || strings.HasSuffix(name, "_rollback.sql") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// MigrationVersion extracts the VERSION part of a VERSION_NAME.sql file name.
func MigrationVersion(name string) string {
	return strings.SplitN(strings.TrimSuffix(name, ".sql"), "_", 2)[0]
}

// RollbackFile names the rollback script paired with a migration.
func RollbackFile(name string) string {
	return strings.TrimSuffix(name, ".sql") + "_rollback.sql"
}
