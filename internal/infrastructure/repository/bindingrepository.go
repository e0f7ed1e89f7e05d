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

// BindingRepository implements the binding repository interface over gorm
type BindingRepository struct {
	db     *gorm.DB
	mapper mappers.BindingMapper
	logger logger.Interface
}

func NewBindingRepository(db *gorm.DB, log logger.Interface) identity.BindingRepository {
	return &BindingRepository{
		db:     db,
		mapper: mappers.NewBindingMapper(),
		logger: log,
	}
}

func (r *BindingRepository) GetByAnonymousID(ctx context.Context, anonymousID string) (*identity.Binding, error) {
	var model models.BindingModel

	if err := r.db.WithContext(ctx).Where("anonymous_id = ?", anonymousID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get binding", "anonymous_id", anonymousID, "error", err)
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *BindingRepository) Create(ctx context.Context, binding *identity.Binding) error {
	model := r.mapper.ToModel(binding)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create binding",
			"anonymous_id", binding.AnonymousID(),
			"account_id", binding.AccountID(),
			"error", err,
		)
		return fmt.Errorf("failed to create binding: %w", err)
	}

	r.logger.Infow("binding created", "anonymous_id", binding.AnonymousID(), "account_id", binding.AccountID())
	return nil
}
