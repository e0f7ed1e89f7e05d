package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"adapta/internal/domain/identity"
	"adapta/internal/infrastructure/persistence/mappers"
	"adapta/internal/infrastructure/persistence/models"
	"adapta/internal/shared/logger"
)

// InviteRecordRepository implements the invite record repository interface
// over gorm
type InviteRecordRepository struct {
	db     *gorm.DB
	mapper mappers.InviteRecordMapper
	logger logger.Interface
}

func NewInviteRecordRepository(db *gorm.DB, log logger.Interface) identity.InviteRecordRepository {
	return &InviteRecordRepository{
		db:     db,
		mapper: mappers.NewInviteRecordMapper(),
		logger: log,
	}
}

func (r *InviteRecordRepository) GetByCode(ctx context.Context, code string) (*identity.InviteRecord, error) {
	var model models.InviteRecordModel

	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get invite record", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get invite record: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *InviteRecordRepository) GetByOwnerID(ctx context.Context, ownerID string) ([]*identity.InviteRecord, error) {
	var recordModels []*models.InviteRecordModel

	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&recordModels).Error; err != nil {
		r.logger.Errorw("failed to list invite records", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("failed to list invite records: %w", err)
	}

	records := make([]*identity.InviteRecord, 0, len(recordModels))
	for _, model := range recordModels {
		entity, err := r.mapper.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map invite record: %w", err)
		}
		records = append(records, entity)
	}

	return records, nil
}

func (r *InviteRecordRepository) Create(ctx context.Context, record *identity.InviteRecord) error {
	model := r.mapper.ToModel(record)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create invite record", "code", record.Code(), "error", err)
		return fmt.Errorf("failed to create invite record: %w", err)
	}

	return nil
}

func (r *InviteRecordRepository) Update(ctx context.Context, record *identity.InviteRecord) error {
	model := r.mapper.ToModel(record)

	result := r.db.WithContext(ctx).
		Model(&models.InviteRecordModel{}).
		Where("code = ?", record.Code()).
		Updates(map[string]any{
			"clicks":          model.Clicks,
			"registrations":   model.Registrations,
			"rewards_claimed": model.RewardsClaimed,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update invite record", "code", record.Code(), "error", result.Error)
		return fmt.Errorf("failed to update invite record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("invite record not found: %s", record.Code())
	}

	return nil
}
