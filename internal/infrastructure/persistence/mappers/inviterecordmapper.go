package mappers

import (
	"adapta/internal/domain/identity"
	"adapta/internal/infrastructure/persistence/models"
)

// InviteRecordMapper handles the conversion between invite records and
// persistence models
type InviteRecordMapper interface {
	ToEntity(model *models.InviteRecordModel) (*identity.InviteRecord, error)
	ToModel(entity *identity.InviteRecord) *models.InviteRecordModel
}

type InviteRecordMapperImpl struct{}

func NewInviteRecordMapper() InviteRecordMapper {
	return &InviteRecordMapperImpl{}
}

func (m *InviteRecordMapperImpl) ToEntity(model *models.InviteRecordModel) (*identity.InviteRecord, error) {
	if model == nil {
		return nil, nil
	}
	return identity.ReconstructInviteRecord(
		model.Code,
		model.OwnerID,
		model.Clicks,
		model.Registrations,
		model.RewardsClaimed,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *InviteRecordMapperImpl) ToModel(entity *identity.InviteRecord) *models.InviteRecordModel {
	if entity == nil {
		return nil
	}
	return &models.InviteRecordModel{
		Code:           entity.Code(),
		OwnerID:        entity.OwnerID(),
		Clicks:         entity.Clicks(),
		Registrations:  entity.Registrations(),
		RewardsClaimed: entity.RewardsClaimed(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}
}
