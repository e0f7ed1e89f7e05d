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

// IdentityRepository implements the identity repository interface over gorm
type IdentityRepository struct {
	db     *gorm.DB
	mapper mappers.IdentityMapper
	logger logger.Interface
}

func NewIdentityRepository(db *gorm.DB, log logger.Interface) identity.Repository {
	return &IdentityRepository{
		db:     db,
		mapper: mappers.NewIdentityMapper(),
		logger: log,
	}
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*identity.Identity, error) {
	var model models.IdentityModel

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get identity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map identity model to entity", "id", id, "error", err)
		return nil, fmt.Errorf("failed to map identity: %w", err)
	}

	return entity, nil
}

func (r *IdentityRepository) Create(ctx context.Context, ident *identity.Identity) error {
	model, err := r.mapper.ToModel(ident)
	if err != nil {
		r.logger.Errorw("failed to map identity entity to model", "error", err)
		return fmt.Errorf("failed to map identity entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create identity", "id", ident.ID(), "error", err)
		return fmt.Errorf("failed to create identity: %w", err)
	}

	r.logger.Infow("identity created", "id", ident.ID(), "kind", ident.Kind())
	return nil
}

func (r *IdentityRepository) Update(ctx context.Context, ident *identity.Identity) error {
	model, err := r.mapper.ToModel(ident)
	if err != nil {
		r.logger.Errorw("failed to map identity entity to model", "error", err)
		return fmt.Errorf("failed to map identity entity: %w", err)
	}

	result := r.db.WithContext(ctx).
		Model(&models.IdentityModel{}).
		Where("id = ?", ident.ID()).
		Updates(map[string]any{
			"display_name": model.DisplayName,
			"email":        model.Email,
			"phone":        model.Phone,
			"avatar_url":   model.AvatarURL,
			"roles":        model.Roles,
			"permissions":  model.Permissions,
			"vip_level":    model.VIPLevel,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update identity", "id", ident.ID(), "error", result.Error)
		return fmt.Errorf("failed to update identity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("identity not found: %s", ident.ID())
	}

	return nil
}
