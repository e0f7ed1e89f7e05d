package session

import (
	"context"
	"fmt"

	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
	"adapta/internal/shared/logger"
)

// IdentityBindingService merges anonymous-phase state onto a freshly
// authenticated account, exactly once per anonymous id. Binding failures
// degrade to a fresh entitlement state; they never fail the login.
type IdentityBindingService struct {
	identityRepo    identity.Repository
	bindingRepo     identity.BindingRepository
	entitlementRepo entitlement.Repository
	defaultLimit    int
	logger          logger.Interface
}

func NewIdentityBindingService(
	identityRepo identity.Repository,
	bindingRepo identity.BindingRepository,
	entitlementRepo entitlement.Repository,
	defaultLimit int,
	log logger.Interface,
) *IdentityBindingService {
	return &IdentityBindingService{
		identityRepo:    identityRepo,
		bindingRepo:     bindingRepo,
		entitlementRepo: entitlementRepo,
		defaultLimit:    defaultLimit,
		logger:          log,
	}
}

// Bind persists the authenticated identity and carries the anonymous
// entitlement state over when the account has none of its own. A consumed
// anonymous id makes the call a no-op returning the already-bound account.
func (s *IdentityBindingService) Bind(ctx context.Context, anonymousID string, ident *identity.Identity) (*identity.Identity, error) {
	if ident == nil || ident.IsAnonymous() {
		return nil, fmt.Errorf("bind requires an authenticated identity")
	}

	existing, err := s.bindingRepo.GetByAnonymousID(ctx, anonymousID)
	if err != nil {
		s.logger.Warnw("binding lookup failed, proceeding as unbound", "anonymous_id", anonymousID, "error", err)
	}
	if existing != nil {
		s.logger.Infow("anonymous id already consumed",
			"anonymous_id", anonymousID,
			"account_id", existing.AccountID(),
		)
		return s.loadBoundIdentity(ctx, existing.AccountID(), ident)
	}

	if err := s.upsertIdentity(ctx, ident); err != nil {
		return nil, err
	}

	s.adoptOrDiscardEntitlements(ctx, anonymousID, ident.ID())

	binding, err := identity.NewBinding(anonymousID, ident.ID())
	if err != nil {
		s.logger.Warnw("failed to build binding marker", "anonymous_id", anonymousID, "error", err)
		return ident, nil
	}
	if err := s.bindingRepo.Create(ctx, binding); err != nil {
		// Likely a concurrent bind won the race; the marker exists either way.
		s.logger.Warnw("failed to persist binding marker", "anonymous_id", anonymousID, "error", err)
	}

	return ident, nil
}

func (s *IdentityBindingService) loadBoundIdentity(ctx context.Context, accountID string, fallback *identity.Identity) (*identity.Identity, error) {
	bound, err := s.identityRepo.GetByID(ctx, accountID)
	if err != nil || bound == nil {
		if err != nil {
			s.logger.Warnw("failed to load bound identity", "account_id", accountID, "error", err)
		}
		if upsertErr := s.upsertIdentity(ctx, fallback); upsertErr != nil {
			return nil, upsertErr
		}
		return fallback, nil
	}
	return bound, nil
}

func (s *IdentityBindingService) upsertIdentity(ctx context.Context, ident *identity.Identity) error {
	existing, err := s.identityRepo.GetByID(ctx, ident.ID())
	if err != nil {
		return fmt.Errorf("failed to look up identity: %w", err)
	}
	if existing == nil {
		if err := s.identityRepo.Create(ctx, ident); err != nil {
			return fmt.Errorf("failed to create identity: %w", err)
		}
		return nil
	}
	if err := s.identityRepo.Update(ctx, ident); err != nil {
		return fmt.Errorf("failed to update identity: %w", err)
	}
	return nil
}

// adoptOrDiscardEntitlements implements the carry-over rule: an account
// with its own state keeps it untouched and the anonymous counters are
// discarded; an account without one adopts the anonymous state verbatim.
// Counters are never summed. Any storage error falls back to a fresh state.
func (s *IdentityBindingService) adoptOrDiscardEntitlements(ctx context.Context, anonymousID, accountID string) {
	accountState, err := s.entitlementRepo.GetByIdentityID(ctx, accountID)
	if err != nil {
		s.logger.Warnw("entitlement lookup failed during bind, using fresh state", "account_id", accountID, "error", err)
		s.createFreshState(ctx, accountID)
		return
	}
	if accountState != nil {
		s.logger.Debugw("account keeps existing entitlement state", "account_id", accountID)
		return
	}

	anonState, err := s.entitlementRepo.GetByIdentityID(ctx, anonymousID)
	if err != nil {
		s.logger.Warnw("anonymous entitlement lookup failed, using fresh state", "anonymous_id", anonymousID, "error", err)
		s.createFreshState(ctx, accountID)
		return
	}

	if anonState == nil {
		s.createFreshState(ctx, accountID)
		return
	}

	adopted, err := anonState.AdoptForIdentity(accountID)
	if err != nil {
		s.logger.Warnw("failed to adopt anonymous entitlement state", "anonymous_id", anonymousID, "error", err)
		s.createFreshState(ctx, accountID)
		return
	}
	if err := s.entitlementRepo.Create(ctx, adopted); err != nil {
		s.logger.Warnw("failed to persist adopted entitlement state", "account_id", accountID, "error", err)
		return
	}

	s.logger.Infow("entitlement state carried over",
		"anonymous_id", anonymousID,
		"account_id", accountID,
		"adaptation_used", adopted.AdaptationUsed(),
	)
}

func (s *IdentityBindingService) createFreshState(ctx context.Context, accountID string) {
	state, err := entitlement.NewState(accountID, s.defaultLimit)
	if err != nil {
		s.logger.Errorw("failed to build fresh entitlement state", "account_id", accountID, "error", err)
		return
	}
	if err := s.entitlementRepo.Create(ctx, state); err != nil {
		s.logger.Warnw("failed to persist fresh entitlement state", "account_id", accountID, "error", err)
	}
}
