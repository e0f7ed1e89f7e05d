package models

import (
	"time"

	"gorm.io/gorm"

	"adapta/internal/shared/constants"
)

// EntitlementStateModel is the persistence model for per-identity usage
// counters. AdaptationLimit zero means unlimited.
type EntitlementStateModel struct {
	IdentityID         string `gorm:"primaryKey;size:64"`
	AdaptationUsed     int    `gorm:"not null;default:0"`
	AdaptationLimit    int    `gorm:"not null;default:0"`
	WeeklyClickRewards int    `gorm:"not null;default:0"`
	LastMonthlyReset   time.Time
	LastWeeklyReset    time.Time
	UpdatedAt          time.Time
	Version            int `gorm:"not null;default:1"`
}

func (EntitlementStateModel) TableName() string {
	return constants.TableEntitlementStates
}

func (m *EntitlementStateModel) BeforeCreate(tx *gorm.DB) error {
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
