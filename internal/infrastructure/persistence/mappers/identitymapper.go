package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"adapta/internal/domain/identity"
	"adapta/internal/infrastructure/persistence/models"
)

// IdentityMapper handles the conversion between domain identities and
// persistence models
type IdentityMapper interface {
	ToEntity(model *models.IdentityModel) (*identity.Identity, error)
	ToModel(entity *identity.Identity) (*models.IdentityModel, error)
}

type IdentityMapperImpl struct{}

func NewIdentityMapper() IdentityMapper {
	return &IdentityMapperImpl{}
}

func (m *IdentityMapperImpl) ToEntity(model *models.IdentityModel) (*identity.Identity, error) {
	if model == nil {
		return nil, nil
	}

	if model.Kind == string(identity.KindAnonymous) {
		return identity.ReconstructAnonymous(model.ID)
	}

	roles, err := decodeStringSlice(model.Roles)
	if err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	permissions, err := decodeStringSlice(model.Permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	vipLevel := identity.ParseVIPLevel(model.VIPLevel)

	return identity.ReconstructAccount(
		model.ID,
		model.DisplayName,
		model.Email,
		model.Phone,
		model.AvatarURL,
		roles,
		permissions,
		vipLevel,
	)
}

func (m *IdentityMapperImpl) ToModel(entity *identity.Identity) (*models.IdentityModel, error) {
	if entity == nil {
		return nil, nil
	}

	roles, err := encodeStringSlice(entity.Roles())
	if err != nil {
		return nil, fmt.Errorf("failed to encode roles: %w", err)
	}
	permissions, err := encodeStringSlice(entity.Permissions())
	if err != nil {
		return nil, fmt.Errorf("failed to encode permissions: %w", err)
	}

	return &models.IdentityModel{
		ID:          entity.ID(),
		Kind:        string(entity.Kind()),
		DisplayName: entity.DisplayName(),
		Email:       entity.Email(),
		Phone:       entity.Phone(),
		AvatarURL:   entity.AvatarURL(),
		Roles:       roles,
		Permissions: permissions,
		VIPLevel:    string(entity.VIPLevel()),
	}, nil
}

func decodeStringSlice(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeStringSlice(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
