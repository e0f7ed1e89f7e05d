package identity

import (
	"fmt"
	"time"

	"adapta/internal/shared/biztime"
)

// Binding marks an anonymous id as consumed by an account. Its existence is
// the idempotency guard: a second bind attempt with the same anonymous id is
// a no-op returning the already-bound result.
type Binding struct {
	anonymousID string
	accountID   string
	boundAt     time.Time
}

// NewBinding records the one-time consumption of an anonymous id.
func NewBinding(anonymousID, accountID string) (*Binding, error) {
	if anonymousID == "" {
		return nil, fmt.Errorf("anonymous id is required")
	}
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}
	return &Binding{
		anonymousID: anonymousID,
		accountID:   accountID,
		boundAt:     biztime.NowUTC(),
	}, nil
}

// ReconstructBinding rebuilds a binding from persistence.
func ReconstructBinding(anonymousID, accountID string, boundAt time.Time) (*Binding, error) {
	if anonymousID == "" {
		return nil, fmt.Errorf("anonymous id is required")
	}
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}
	return &Binding{anonymousID: anonymousID, accountID: accountID, boundAt: boundAt}, nil
}

// AnonymousID returns the consumed anonymous id.
func (b *Binding) AnonymousID() string {
	return b.anonymousID
}

// AccountID returns the account that consumed it.
func (b *Binding) AccountID() string {
	return b.accountID
}

// BoundAt returns when the binding happened.
func (b *Binding) BoundAt() time.Time {
	return b.boundAt
}
