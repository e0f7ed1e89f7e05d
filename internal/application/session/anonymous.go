package session

import (
	"context"
	"fmt"
	"sync"

	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
	"adapta/internal/shared/id"
	"adapta/internal/shared/logger"
)

// AnonymousIdentityProvider hands out a stable pre-login identity per
// device. The id lives in the visitor's cookie; the server only validates
// the hint, backfills missing rows and mints a fresh id when no valid hint
// arrives. Ids are never shared between devices.
type AnonymousIdentityProvider struct {
	identityRepo    identity.Repository
	entitlementRepo entitlement.Repository
	defaultLimit    int
	logger          logger.Interface

	mu sync.Mutex
}

func NewAnonymousIdentityProvider(
	identityRepo identity.Repository,
	entitlementRepo entitlement.Repository,
	defaultLimit int,
	log logger.Interface,
) *AnonymousIdentityProvider {
	return &AnonymousIdentityProvider{
		identityRepo:    identityRepo,
		entitlementRepo: entitlementRepo,
		defaultLimit:    defaultLimit,
		logger:          log,
	}
}

// GetOrCreateID returns the caller's anonymous id. A clientHint carrying a
// well-formed anonymous id (from the device cookie) is honored as-is; any
// other hint, including an empty one, yields a freshly minted id so two
// devices can never observe each other's identity or counters.
func (p *AnonymousIdentityProvider) GetOrCreateID(ctx context.Context, clientHint string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if clientHint != "" && id.HasPrefix(clientHint, id.PrefixAnonymous) {
		if err := p.ensureIdentity(ctx, clientHint); err != nil {
			return "", err
		}
		return clientHint, nil
	}

	ident, err := identity.NewAnonymous()
	if err != nil {
		return "", fmt.Errorf("failed to create anonymous identity: %w", err)
	}

	if err := p.persistIdentity(ctx, ident); err != nil {
		return "", err
	}

	p.logger.Infow("anonymous identity created", "id", ident.ID())
	return ident.ID(), nil
}

// ensureIdentity backfills the identity and entitlement rows for an id the
// client presented but the server has never seen (fresh database, old cookie).
func (p *AnonymousIdentityProvider) ensureIdentity(ctx context.Context, anonID string) error {
	existing, err := p.identityRepo.GetByID(ctx, anonID)
	if err != nil {
		return fmt.Errorf("failed to look up anonymous identity: %w", err)
	}
	if existing != nil {
		return nil
	}

	ident, err := identity.ReconstructAnonymous(anonID)
	if err != nil {
		return fmt.Errorf("failed to reconstruct anonymous identity: %w", err)
	}
	return p.persistIdentity(ctx, ident)
}

func (p *AnonymousIdentityProvider) persistIdentity(ctx context.Context, ident *identity.Identity) error {
	if err := p.identityRepo.Create(ctx, ident); err != nil {
		return fmt.Errorf("failed to persist anonymous identity: %w", err)
	}

	state, err := entitlement.NewState(ident.ID(), p.defaultLimit)
	if err != nil {
		return fmt.Errorf("failed to create entitlement state: %w", err)
	}
	if err := p.entitlementRepo.Create(ctx, state); err != nil {
		return fmt.Errorf("failed to persist entitlement state: %w", err)
	}

	return nil
}
