package models

import (
	"time"

	"adapta/internal/shared/constants"
)

// SecureRecordModel stores sealed session envelopes. The envelope column
// only ever holds ciphertext.
type SecureRecordModel struct {
	Namespace string `gorm:"primaryKey;size:64"`
	Key       string `gorm:"primaryKey;size:128;column:record_key"`
	Envelope  string `gorm:"not null;type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SecureRecordModel) TableName() string {
	return constants.TableSecureRecords
}
