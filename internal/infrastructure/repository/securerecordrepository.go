package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"adapta/internal/infrastructure/persistence/models"
	"adapta/internal/infrastructure/securestore"
	"adapta/internal/shared/logger"
)

// SecureRecordRepository is the gorm backend for the encrypted session
// store. It only ever sees sealed envelopes.
type SecureRecordRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSecureRecordRepository(db *gorm.DB, log logger.Interface) securestore.Backend {
	return &SecureRecordRepository{
		db:     db,
		logger: log,
	}
}

func (r *SecureRecordRepository) Get(ctx context.Context, namespace, key string) (string, error) {
	var model models.SecureRecordModel

	if err := r.db.WithContext(ctx).
		Where("namespace = ? AND record_key = ?", namespace, key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		r.logger.Errorw("failed to get secure record", "namespace", namespace, "error", err)
		return "", fmt.Errorf("failed to get secure record: %w", err)
	}

	return model.Envelope, nil
}

func (r *SecureRecordRepository) Set(ctx context.Context, namespace, key, envelope string) error {
	model := models.SecureRecordModel{
		Namespace: namespace,
		Key:       key,
		Envelope:  envelope,
	}

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"envelope", "updated_at"}),
		}).
		Create(&model).Error; err != nil {
		r.logger.Errorw("failed to set secure record", "namespace", namespace, "error", err)
		return fmt.Errorf("failed to set secure record: %w", err)
	}

	return nil
}

func (r *SecureRecordRepository) Delete(ctx context.Context, namespace, key string) error {
	if err := r.db.WithContext(ctx).
		Where("namespace = ? AND record_key = ?", namespace, key).
		Delete(&models.SecureRecordModel{}).Error; err != nil {
		r.logger.Errorw("failed to delete secure record", "namespace", namespace, "error", err)
		return fmt.Errorf("failed to delete secure record: %w", err)
	}
	return nil
}
