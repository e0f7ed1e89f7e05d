package identity

import "context"

// Repository persists account identities keyed by provider subject.
type Repository interface {
	GetByID(ctx context.Context, subject string) (*Identity, error)
	Create(ctx context.Context, ident *Identity) error
	Update(ctx context.Context, ident *Identity) error
}

// BindingRepository persists consumed anonymous ids.
type BindingRepository interface {
	// GetByAnonymousID returns nil, nil when the anonymous id was never consumed.
	GetByAnonymousID(ctx context.Context, anonymousID string) (*Binding, error)
	Create(ctx context.Context, binding *Binding) error
}

// InviteRecordRepository persists invite attribution records.
type InviteRecordRepository interface {
	// GetByCode returns nil, nil when the code is unknown.
	GetByCode(ctx context.Context, code string) (*InviteRecord, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*InviteRecord, error)
	Create(ctx context.Context, record *InviteRecord) error
	Update(ctx context.Context, record *InviteRecord) error
}
