package entitlement

import "context"

// Repository persists counter states keyed by identity id.
//
// IncrementUsage must be atomic at the storage level: two near-simultaneous
// increments for the same identity may not both read the same stale value.
type Repository interface {
	// GetByIdentityID returns nil, nil when no state exists for the id.
	GetByIdentityID(ctx context.Context, identityID string) (*State, error)
	Create(ctx context.Context, state *State) error
	// Save persists the state using its version for optimistic locking.
	Save(ctx context.Context, state *State) error
	// IncrementUsage applies used = used + 1 atomically and returns the
	// resulting state.
	IncrementUsage(ctx context.Context, identityID string) (*State, error)
	Delete(ctx context.Context, identityID string) error
}
