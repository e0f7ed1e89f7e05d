package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
	"adapta/internal/infrastructure/securestore"
	"adapta/internal/shared/logger"
)

// ---------------------------------------------------------------------------
// In-memory repository fakes
// ---------------------------------------------------------------------------

type memIdentityRepo struct {
	mu      sync.Mutex
	items   map[string]*identity.Identity
	getErr  error
	creates int
	updates int
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{items: make(map[string]*identity.Identity)}
}

func (r *memIdentityRepo) GetByID(ctx context.Context, subject string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.items[subject], nil
}

func (r *memIdentityRepo) Create(ctx context.Context, ident *identity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[ident.ID()]; ok {
		return fmt.Errorf("identity %s already exists", ident.ID())
	}
	r.items[ident.ID()] = ident
	r.creates++
	return nil
}

func (r *memIdentityRepo) Update(ctx context.Context, ident *identity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[ident.ID()]; !ok {
		return fmt.Errorf("identity %s not found", ident.ID())
	}
	r.items[ident.ID()] = ident
	r.updates++
	return nil
}

type memBindingRepo struct {
	mu        sync.Mutex
	items     map[string]*identity.Binding
	createErr error
}

func newMemBindingRepo() *memBindingRepo {
	return &memBindingRepo{items: make(map[string]*identity.Binding)}
}

func (r *memBindingRepo) GetByAnonymousID(ctx context.Context, anonymousID string) (*identity.Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[anonymousID], nil
}

func (r *memBindingRepo) Create(ctx context.Context, binding *identity.Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.items[binding.AnonymousID()]; ok {
		return fmt.Errorf("binding for %s already exists", binding.AnonymousID())
	}
	r.items[binding.AnonymousID()] = binding
	return nil
}

type memEntitlementRepo struct {
	mu     sync.Mutex
	items  map[string]*entitlement.State
	getErr error
}

func newMemEntitlementRepo() *memEntitlementRepo {
	return &memEntitlementRepo{items: make(map[string]*entitlement.State)}
}

func (r *memEntitlementRepo) GetByIdentityID(ctx context.Context, identityID string) (*entitlement.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.items[identityID], nil
}

func (r *memEntitlementRepo) Create(ctx context.Context, state *entitlement.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[state.IdentityID()]; ok {
		return fmt.Errorf("state for %s already exists", state.IdentityID())
	}
	r.items[state.IdentityID()] = state
	return nil
}

func (r *memEntitlementRepo) Save(ctx context.Context, state *entitlement.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[state.IdentityID()] = state
	return nil
}

func (r *memEntitlementRepo) IncrementUsage(ctx context.Context, identityID string) (*entitlement.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.items[identityID]
	if !ok {
		return nil, fmt.Errorf("state for %s not found", identityID)
	}
	state.IncrementUsage()
	return state, nil
}

func (r *memEntitlementRepo) Delete(ctx context.Context, identityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, identityID)
	return nil
}

// ---------------------------------------------------------------------------
// Secure store backed by memory
// ---------------------------------------------------------------------------

type memBackend struct {
	mu    sync.Mutex
	items map[string]string
}

func newMemBackend() *memBackend {
	return &memBackend{items: make(map[string]string)}
}

func (b *memBackend) key(namespace, key string) string {
	return namespace + "/" + key
}

func (b *memBackend) Get(ctx context.Context, namespace, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items[b.key(namespace, key)], nil
}

func (b *memBackend) Set(ctx context.Context, namespace, key, envelope string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[b.key(namespace, key)] = envelope
	return nil
}

func (b *memBackend) Delete(ctx context.Context, namespace, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, b.key(namespace, key))
	return nil
}

func newTestSecureStore(t *testing.T) (*securestore.Store, *memBackend) {
	t.Helper()
	cipher, err := securestore.NewCipher("test-secret")
	require.NoError(t, err)
	backend := newMemBackend()
	return securestore.NewStore(cipher, backend, logger.NewLogger()), backend
}

// staticExpander returns a fixed permission set regardless of roles.
type staticExpander struct {
	perms []string
}

func (e *staticExpander) ExpandRoles(roles []string) ([]string, error) {
	return e.perms, nil
}
