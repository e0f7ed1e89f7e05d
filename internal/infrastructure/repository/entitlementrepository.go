package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"adapta/internal/domain/entitlement"
	"adapta/internal/infrastructure/persistence/mappers"
	"adapta/internal/infrastructure/persistence/models"
	"adapta/internal/shared/biztime"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/logger"
)

// EntitlementRepository implements the entitlement repository interface
// over gorm
type EntitlementRepository struct {
	db     *gorm.DB
	mapper mappers.EntitlementStateMapper
	logger logger.Interface
}

func NewEntitlementRepository(db *gorm.DB, log logger.Interface) entitlement.Repository {
	return &EntitlementRepository{
		db:     db,
		mapper: mappers.NewEntitlementStateMapper(),
		logger: log,
	}
}

func (r *EntitlementRepository) GetByIdentityID(ctx context.Context, identityID string) (*entitlement.State, error) {
	var model models.EntitlementStateModel

	if err := r.db.WithContext(ctx).Where("identity_id = ?", identityID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get entitlement state", "identity_id", identityID, "error", err)
		return nil, fmt.Errorf("failed to get entitlement state: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *EntitlementRepository) Create(ctx context.Context, state *entitlement.State) error {
	model := r.mapper.ToModel(state)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create entitlement state", "identity_id", state.IdentityID(), "error", err)
		return fmt.Errorf("failed to create entitlement state: %w", err)
	}

	return nil
}

// Save persists the state guarded by its version. A zero-row update means
// a concurrent writer got there first.
func (r *EntitlementRepository) Save(ctx context.Context, state *entitlement.State) error {
	model := r.mapper.ToModel(state)

	result := r.db.WithContext(ctx).
		Model(&models.EntitlementStateModel{}).
		Where("identity_id = ? AND version = ?", state.IdentityID(), state.Version()-1).
		Updates(map[string]any{
			"adaptation_used":      model.AdaptationUsed,
			"adaptation_limit":     model.AdaptationLimit,
			"weekly_click_rewards": model.WeeklyClickRewards,
			"last_monthly_reset":   model.LastMonthlyReset,
			"last_weekly_reset":    model.LastWeeklyReset,
			"updated_at":           model.UpdatedAt,
			"version":              model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to save entitlement state", "identity_id", state.IdentityID(), "error", result.Error)
		return fmt.Errorf("failed to save entitlement state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("entitlement state version conflict for %s", state.IdentityID())
	}

	return nil
}

// IncrementUsage bumps the counter in a single UPDATE so concurrent
// increments never read the same stale value, then re-reads the row.
func (r *EntitlementRepository) IncrementUsage(ctx context.Context, identityID string) (*entitlement.State, error) {
	var model models.EntitlementStateModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			fmt.Sprintf(
				"UPDATE %s SET adaptation_used = adaptation_used + 1, updated_at = ?, version = version + 1 WHERE identity_id = ?",
				constants.TableEntitlementStates,
			),
			biztime.NowUTC(), identityID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("identity_id = ?", identityID).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("entitlement state not found: %s", identityID)
		}
		r.logger.Errorw("failed to increment usage", "identity_id", identityID, "error", err)
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *EntitlementRepository) Delete(ctx context.Context, identityID string) error {
	if err := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Delete(&models.EntitlementStateModel{}).Error; err != nil {
		r.logger.Errorw("failed to delete entitlement state", "identity_id", identityID, "error", err)
		return fmt.Errorf("failed to delete entitlement state: %w", err)
	}
	return nil
}
