package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errMissingDatabase = errors.New("database handle is required")

// SQLiteSource serves the catalogue from a GORM database.
type SQLiteSource struct {
	db     *gorm.DB
	logger *zap.Logger
}

// SQLiteSourceConfig describes the dependencies of a SQLiteSource.
type SQLiteSourceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// NewSQLiteSource constructs a database-backed Source.
func NewSQLiteSource(cfg SQLiteSourceConfig) (*SQLiteSource, error) {
	if cfg.Database == nil {
		return nil, newServiceError("catalog.sqlite_source.new", "missing_database", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteSource{db: cfg.Database, logger: logger}, nil
}

// List loads the entity's records in insertion order.
func (s *SQLiteSource) List(ctx context.Context, entity Entity, scope Scope, into any) error {
	if _, err := entity.model(); err != nil {
		return newServiceError(opList, reasonUnknownEntity, err)
	}
	query := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if scope.OwnerID != "" {
		query = query.Where("owner_id = ?", scope.OwnerID)
	}
	if err := query.Find(into).Error; err != nil {
		s.logError(opList, reasonQueryFailed, err, zap.String("entity", entity.String()))
		return newServiceError(opList, reasonQueryFailed, err)
	}
	return nil
}

// Owner looks up the owner id of one record.
func (s *SQLiteSource) Owner(ctx context.Context, entity Entity, id string) (string, error) {
	model, err := entity.model()
	if err != nil {
		return "", newServiceError(opOwner, reasonUnknownEntity, err)
	}
	var owner struct {
		OwnerID string
	}
	err = s.db.WithContext(ctx).Model(model).Select("owner_id").Where("id = ?", id).Take(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", newServiceError(opOwner, reasonNotFound, ErrRecordNotFound)
	}
	if err != nil {
		s.logError(opOwner, reasonQueryFailed, err,
			zap.String("entity", entity.String()), zap.String("record_id", id))
		return "", newServiceError(opOwner, reasonQueryFailed, err)
	}
	return owner.OwnerID, nil
}

// UpdateStatus sets the status column of one record.
func (s *SQLiteSource) UpdateStatus(ctx context.Context, entity Entity, id, status string) error {
	model, err := entity.model()
	if err != nil {
		return newServiceError(opUpdateStatus, reasonUnknownEntity, err)
	}
	normalized, err := entity.ValidateStatus(status)
	if err != nil {
		return newServiceError(opUpdateStatus, reasonInvalidStatus, err)
	}
	result := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Update("status", normalized)
	if result.Error != nil {
		s.logError(opUpdateStatus, reasonQueryFailed, result.Error,
			zap.String("entity", entity.String()), zap.String("record_id", id))
		return newServiceError(opUpdateStatus, reasonQueryFailed, result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opUpdateStatus, reasonNotFound, ErrRecordNotFound)
	}
	return nil
}

// Delete removes one record.
func (s *SQLiteSource) Delete(ctx context.Context, entity Entity, id string) error {
	model, err := entity.model()
	if err != nil {
		return newServiceError(opDelete, reasonUnknownEntity, err)
	}
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if result.Error != nil {
		s.logError(opDelete, reasonQueryFailed, result.Error,
			zap.String("entity", entity.String()), zap.String("record_id", id))
		return newServiceError(opDelete, reasonQueryFailed, result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDelete, reasonNotFound, ErrRecordNotFound)
	}
	return nil
}

// Create inserts records, a pointer to a model or a slice of models, in batches.
func (s *SQLiteSource) Create(ctx context.Context, records any) error {
	if err := s.db.WithContext(ctx).CreateInBatches(records, 200).Error; err != nil {
		s.logError(opCreate, reasonInsertFailed, err)
		return newServiceError(opCreate, reasonInsertFailed, err)
	}
	return nil
}

func (s *SQLiteSource) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("catalog source error", attrs...)
}
