package models

import (
	"time"

	"adapta/internal/shared/constants"
)

// InviteRecordModel is the persistence model for invite codes and their
// click and registration counters.
type InviteRecordModel struct {
	Code           string `gorm:"primaryKey;size:64"`
	OwnerID        string `gorm:"not null;size:64;index:idx_invite_records_owner"`
	Clicks         int    `gorm:"not null;default:0"`
	Registrations  int    `gorm:"not null;default:0"`
	RewardsClaimed int    `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (InviteRecordModel) TableName() string {
	return constants.TableInviteRecords
}
