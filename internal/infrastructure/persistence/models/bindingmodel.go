package models

import (
	"time"

	"adapta/internal/shared/constants"
)

// BindingModel marks an anonymous identity as consumed by an account.
// One row per anonymous id keeps binding idempotent.
type BindingModel struct {
	AnonymousID string `gorm:"primaryKey;size:64"`
	AccountID   string `gorm:"not null;size:64;index:idx_identity_bindings_account"`
	BoundAt     time.Time
}

func (BindingModel) TableName() string {
	return constants.TableIdentityBindings
}
