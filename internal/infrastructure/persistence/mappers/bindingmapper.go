package mappers

import (
	"adapta/internal/domain/identity"
	"adapta/internal/infrastructure/persistence/models"
)

// BindingMapper handles the conversion between bindings and persistence
// models
type BindingMapper interface {
	ToEntity(model *models.BindingModel) (*identity.Binding, error)
	ToModel(entity *identity.Binding) *models.BindingModel
}

type BindingMapperImpl struct{}

func NewBindingMapper() BindingMapper {
	return &BindingMapperImpl{}
}

func (m *BindingMapperImpl) ToEntity(model *models.BindingModel) (*identity.Binding, error) {
	if model == nil {
		return nil, nil
	}
	return identity.ReconstructBinding(model.AnonymousID, model.AccountID, model.BoundAt)
}

func (m *BindingMapperImpl) ToModel(entity *identity.Binding) *models.BindingModel {
	if entity == nil {
		return nil
	}
	return &models.BindingModel{
		AnonymousID: entity.AnonymousID(),
		AccountID:   entity.AccountID(),
		BoundAt:     entity.BoundAt(),
	}
}
