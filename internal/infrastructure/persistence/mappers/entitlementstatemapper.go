package mappers

import (
	"adapta/internal/domain/entitlement"
	"adapta/internal/infrastructure/persistence/models"
)

// EntitlementStateMapper handles the conversion between entitlement states
// and persistence models
type EntitlementStateMapper interface {
	ToEntity(model *models.EntitlementStateModel) (*entitlement.State, error)
	ToModel(entity *entitlement.State) *models.EntitlementStateModel
}

type EntitlementStateMapperImpl struct{}

func NewEntitlementStateMapper() EntitlementStateMapper {
	return &EntitlementStateMapperImpl{}
}

func (m *EntitlementStateMapperImpl) ToEntity(model *models.EntitlementStateModel) (*entitlement.State, error) {
	if model == nil {
		return nil, nil
	}
	return entitlement.ReconstructState(
		model.IdentityID,
		model.AdaptationUsed,
		model.AdaptationLimit,
		model.WeeklyClickRewards,
		model.LastMonthlyReset,
		model.LastWeeklyReset,
		model.UpdatedAt,
		model.Version,
	)
}

func (m *EntitlementStateMapperImpl) ToModel(entity *entitlement.State) *models.EntitlementStateModel {
	if entity == nil {
		return nil
	}
	return &models.EntitlementStateModel{
		IdentityID:         entity.IdentityID(),
		AdaptationUsed:     entity.AdaptationUsed(),
		AdaptationLimit:    entity.AdaptationLimit(),
		WeeklyClickRewards: entity.WeeklyClickRewards(),
		LastMonthlyReset:   entity.LastMonthlyReset(),
		LastWeeklyReset:    entity.LastWeeklyReset(),
		UpdatedAt:          entity.UpdatedAt(),
		Version:            entity.Version(),
	}
}
