package session

import (
	"context"
	"fmt"
	"sync"

	"adapta/internal/domain/identity"
	"adapta/internal/infrastructure/auth"
	"adapta/internal/infrastructure/securestore"
	"adapta/internal/shared/biztime"
	"adapta/internal/shared/errors"
	"adapta/internal/shared/logger"
)

// RoleExpander turns provider role names into permission keys. Implemented
// by the casbin-backed enforcer; identity snapshots carry the expanded set
// so permission evaluation stays a pure function.
type RoleExpander interface {
	ExpandRoles(roles []string) ([]string, error)
}

// SessionContext owns the authentication state machine and is the only
// component the rest of the application talks to. Every operation acts on
// the caller's own identity: envelopes are keyed per identity id, so the
// context serves any number of concurrent users without their sessions
// interleaving. Transitions serialize through one mutex; concurrent
// requests queue rather than interleave their writes to the secure store.
type SessionContext struct {
	anonymous  *AnonymousIdentityProvider
	flow       *FlowController
	binding    *IdentityBindingService
	store      *securestore.Store
	identities identity.Repository
	expander   RoleExpander
	logger     logger.Interface

	mu sync.Mutex
	// lastFailure holds the most recent login failure reason per caller,
	// cleared by the caller's next successful transition.
	lastFailure map[string]string
}

func NewSessionContext(
	anonymous *AnonymousIdentityProvider,
	flow *FlowController,
	binding *IdentityBindingService,
	store *securestore.Store,
	identities identity.Repository,
	expander RoleExpander,
	log logger.Interface,
) *SessionContext {
	return &SessionContext{
		anonymous:   anonymous,
		flow:        flow,
		binding:     binding,
		store:       store,
		identities:  identities,
		expander:    expander,
		logger:      log,
		lastFailure: make(map[string]string),
	}
}

// Resolve computes the caller's session. A caller with validated claims
// gets their authenticated session restored from the per-identity envelope
// (expired tokens are refreshed once; a dead refresh drops the envelope);
// anything else, including a corrupted envelope, lands on unauthenticated
// with the caller's own anonymous identity. Resolve never fails a request
// over bad cached state.
func (c *SessionContext) Resolve(ctx context.Context, identityID, anonymousID string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if identityID != "" {
		if sess, ok := c.resolveAuthenticated(ctx, identityID); ok {
			return sess, nil
		}
	}

	return c.anonymousSession(ctx, anonymousID)
}

func (c *SessionContext) resolveAuthenticated(ctx context.Context, identityID string) (Session, bool) {
	var env envelope
	found, err := c.store.Get(ctx, sessionNamespace, identityID, &env)
	if err != nil {
		c.logger.Warnw("session envelope read failed, treating as miss", "identity_id", identityID, "error", err)
		return Session{}, false
	}
	if !found || env.IdentityID != identityID {
		return Session{}, false
	}

	tokens := &auth.Tokens{
		AccessToken:  env.AccessToken,
		RefreshToken: env.RefreshToken,
		ExpiresAt:    env.ExpiresAt,
	}

	if !env.ExpiresAt.IsZero() && env.ExpiresAt.Before(biztime.NowUTC()) {
		refreshed, err := c.flow.Refresh(ctx, env.RefreshToken)
		if err != nil {
			c.logger.Infow("cached session expired and refresh failed", "identity_id", identityID)
			c.removeEnvelope(ctx, identityID)
			return Session{}, false
		}
		tokens = refreshed
		if err := c.persistEnvelope(ctx, identityID, tokens); err != nil {
			c.logger.Warnw("failed to re-persist session envelope", "error", err)
		}
	}

	ident, err := c.identities.GetByID(ctx, identityID)
	if err != nil || ident == nil {
		if err != nil {
			c.logger.Warnw("failed to load cached identity", "identity_id", identityID, "error", err)
		}
		c.removeEnvelope(ctx, identityID)
		return Session{}, false
	}

	return Session{
		Status:       StatusAuthenticated,
		Identity:     ident,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}, true
}

func (c *SessionContext) anonymousSession(ctx context.Context, anonymousID string) (Session, error) {
	anonID, err := c.anonymous.GetOrCreateID(ctx, anonymousID)
	if err != nil {
		return Session{}, fmt.Errorf("failed to establish anonymous identity: %w", err)
	}

	ident, err := identity.ReconstructAnonymous(anonID)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Status:   StatusUnauthenticated,
		Identity: ident,
		Error:    c.lastFailure[anonID],
	}, nil
}

// Login starts a login attempt for the calling visitor and returns the
// provider authorization URL. The caller's anonymous id rides in the flow
// state so the callback can bind pre-login usage. Handlers reject callers
// who already hold a valid authenticated session before reaching here.
func (c *SessionContext) Login(ctx context.Context, purpose auth.LoginPurpose, redirectTarget, anonymousID string) (string, error) {
	authURL, _, err := c.flow.BuildAuthorizationURL(ctx, purpose, redirectTarget, anonymousID)
	if err != nil {
		return "", err
	}
	return authURL, nil
}

// CompleteLogin finishes an attempt resolved by the callback: it builds the
// account identity from the provider profile, binds any anonymous-phase
// state and persists the envelope under the account's own key. The flow
// result is never partial; nothing was persisted before this point.
func (c *SessionContext) CompleteLogin(ctx context.Context, result *CallbackResult) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ident, err := c.buildAccountIdentity(result.Profile)
	if err != nil {
		return Session{}, err
	}

	if result.AnonymousID != "" {
		bound, err := c.binding.Bind(ctx, result.AnonymousID, ident)
		if err != nil {
			// Binding must never block the login.
			c.logger.Warnw("binding failed, continuing with unbound identity", "error", err)
		} else {
			ident = bound
		}
	} else if err := c.binding.upsertIdentity(ctx, ident); err != nil {
		return Session{}, err
	}

	if err := c.persistEnvelope(ctx, ident.ID(), result.Tokens); err != nil {
		return Session{}, err
	}

	delete(c.lastFailure, result.AnonymousID)
	delete(c.lastFailure, ident.ID())

	c.logger.Infow("session authenticated", "identity_id", ident.ID())
	return Session{
		Status:       StatusAuthenticated,
		Identity:     ident,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		ExpiresAt:    result.Tokens.ExpiresAt,
	}, nil
}

// RecordLoginFailure remembers a failed attempt for the caller so their
// next session read surfaces the reason. The status never changes here.
func (c *SessionContext) RecordLoginFailure(callerID string, err error) {
	if err == nil || callerID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if reason := errors.ReasonOf(err); reason != "" {
		c.lastFailure[callerID] = reason
	} else {
		c.lastFailure[callerID] = err.Error()
	}
}

// Logout notifies the provider best-effort and drops the caller's envelope.
// The local teardown happens regardless of the provider call's outcome. The
// returned session is the caller's unauthenticated state.
func (c *SessionContext) Logout(ctx context.Context, identityID, anonymousID string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if identityID != "" {
		var env envelope
		found, err := c.store.Get(ctx, sessionNamespace, identityID, &env)
		if err == nil && found && env.AccessToken != "" {
			c.flow.Logout(ctx, env.AccessToken)
		}
		c.removeEnvelope(ctx, identityID)
	}

	return c.anonymousSession(ctx, anonymousID)
}

// UpdateUser merges partial profile fields into the caller's authenticated
// identity and re-persists it. The id never changes.
func (c *SessionContext) UpdateUser(ctx context.Context, identityID string, patch identity.ProfilePatch) (*identity.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if identityID == "" {
		return nil, errors.NewUnauthorizedError("no authenticated session")
	}

	ident, err := c.identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if ident == nil || ident.IsAnonymous() {
		return nil, errors.NewUnauthorizedError("no authenticated session")
	}

	ident.ApplyProfile(patch)

	if err := c.identities.Update(ctx, ident); err != nil {
		return nil, fmt.Errorf("failed to persist profile update: %w", err)
	}

	delete(c.lastFailure, identityID)
	return ident, nil
}

// RefreshSession rotates provider tokens for the caller's session. A
// refresh failure drops the envelope and downgrades to unauthenticated;
// callers observe the new status instead of an exception from unrelated
// code paths.
func (c *SessionContext) RefreshSession(ctx context.Context, identityID, anonymousID string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var env envelope
	found, err := c.store.Get(ctx, sessionNamespace, identityID, &env)
	if err != nil || !found {
		return Session{}, errors.NewUnauthorizedError("no authenticated session")
	}

	tokens, err := c.flow.Refresh(ctx, env.RefreshToken)
	if err != nil {
		c.logger.Infow("refresh failed, downgrading session", "identity_id", identityID)
		c.removeEnvelope(ctx, identityID)
		sess, downgradeErr := c.anonymousSession(ctx, anonymousID)
		if downgradeErr != nil {
			return Session{}, downgradeErr
		}
		return sess, err
	}

	if err := c.persistEnvelope(ctx, identityID, tokens); err != nil {
		return Session{}, err
	}

	ident, err := c.identities.GetByID(ctx, identityID)
	if err != nil || ident == nil {
		return Session{}, errors.NewUnauthorizedError("no authenticated session")
	}

	delete(c.lastFailure, identityID)
	return Session{
		Status:       StatusAuthenticated,
		Identity:     ident,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}, nil
}

func (c *SessionContext) buildAccountIdentity(profile *auth.Profile) (*identity.Identity, error) {
	ident, err := identity.NewAccount(profile.Subject)
	if err != nil {
		return nil, err
	}

	ident.ApplyProfile(identity.ProfilePatch{
		DisplayName: optional(profile.Name),
		Email:       optional(profile.Email),
		Phone:       optional(profile.Phone),
		AvatarURL:   optional(profile.AvatarURL),
	})

	permissions := profile.Permissions
	if c.expander != nil && len(profile.Roles) > 0 {
		expanded, err := c.expander.ExpandRoles(profile.Roles)
		if err != nil {
			c.logger.Warnw("role expansion failed, using provider permissions only", "error", err)
		} else {
			permissions = mergeSets(permissions, expanded)
		}
	}

	vipLevel := identity.ParseVIPLevel(profile.VIPLevel)

	if err := ident.SetAuthorization(profile.Roles, permissions, vipLevel); err != nil {
		return nil, err
	}

	return ident, nil
}

func (c *SessionContext) persistEnvelope(ctx context.Context, identityID string, tokens *auth.Tokens) error {
	return c.store.Set(ctx, sessionNamespace, identityID, envelope{
		IdentityID:   identityID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	})
}

func (c *SessionContext) removeEnvelope(ctx context.Context, identityID string) {
	if err := c.store.Remove(ctx, sessionNamespace, identityID); err != nil {
		c.logger.Warnw("failed to remove session envelope", "identity_id", identityID, "error", err)
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func mergeSets(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
