package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationNormalizeStatuses    = "2026-09-01_normalize_record_statuses"
	migrationStripOwnerIDPrefixes = "2026-09-15_strip_owner_id_provider_prefix"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeStatuses, apply: normalizeStatuses},
		{name: migrationStripOwnerIDPrefixes, apply: stripOwnerIDPrefixes},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// normalizeStatuses lower-cases and trims status columns written by older importers.
func normalizeStatuses(db *gorm.DB) error {
	for _, entity := range catalog.Entities() {
		if entity.Statuses() == nil {
			continue
		}
		statement := fmt.Sprintf("UPDATE %s SET status = lower(trim(status)) WHERE status <> lower(trim(status));", entity.String())
		if err := db.Exec(statement).Error; err != nil {
			return err
		}
	}
	return nil
}

// stripOwnerIDPrefixes rewrites "provider:subject" owner ids to the canonical subject.
func stripOwnerIDPrefixes(db *gorm.DB) error {
	const prefix = "google:"
	start := len(prefix) + 1
	for _, entity := range catalog.Entities() {
		statement := fmt.Sprintf("UPDATE %s SET owner_id = substr(owner_id, %d) WHERE owner_id LIKE '%s%%';", entity.String(), start, prefix)
		if err := db.Exec(statement).Error; err != nil {
			return err
		}
	}
	return nil
}
