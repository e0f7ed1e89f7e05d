package models

import (
	"time"

	"gorm.io/datatypes"

	"adapta/internal/shared/constants"
)

// IdentityModel is the persistence model for identities, both anonymous
// visitors and provider-backed accounts.
type IdentityModel struct {
	ID          string         `gorm:"primaryKey;size:64"`
	Kind        string         `gorm:"not null;size:16;index:idx_identities_kind"`
	DisplayName string         `gorm:"size:100"`
	Email       string         `gorm:"size:255;index:idx_identities_email"`
	Phone       string         `gorm:"size:32"`
	AvatarURL   string         `gorm:"size:500"`
	Roles       datatypes.JSON `gorm:"type:json"`
	Permissions datatypes.JSON `gorm:"type:json"`
	VIPLevel    string         `gorm:"column:vip_level;size:16;default:none"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (IdentityModel) TableName() string {
	return constants.TableIdentities
}
