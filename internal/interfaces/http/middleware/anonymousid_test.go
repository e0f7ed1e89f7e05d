package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsession "adapta/internal/application/session"
	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
	"adapta/internal/interfaces/http/handlers/testutil"
	"adapta/internal/shared/config"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/utils"
)

type anonIdentityRepo struct {
	items map[string]*identity.Identity
}

func (r *anonIdentityRepo) GetByID(ctx context.Context, subject string) (*identity.Identity, error) {
	return r.items[subject], nil
}

func (r *anonIdentityRepo) Create(ctx context.Context, ident *identity.Identity) error {
	r.items[ident.ID()] = ident
	return nil
}

func (r *anonIdentityRepo) Update(ctx context.Context, ident *identity.Identity) error {
	r.items[ident.ID()] = ident
	return nil
}

type anonEntitlementRepo struct {
	items map[string]*entitlement.State
}

func (r *anonEntitlementRepo) GetByIdentityID(ctx context.Context, identityID string) (*entitlement.State, error) {
	return r.items[identityID], nil
}

func (r *anonEntitlementRepo) Create(ctx context.Context, state *entitlement.State) error {
	r.items[state.IdentityID()] = state
	return nil
}

func (r *anonEntitlementRepo) Save(ctx context.Context, state *entitlement.State) error {
	r.items[state.IdentityID()] = state
	return nil
}

func (r *anonEntitlementRepo) IncrementUsage(ctx context.Context, identityID string) (*entitlement.State, error) {
	state, ok := r.items[identityID]
	if !ok {
		return nil, fmt.Errorf("state for %s not found", identityID)
	}
	state.IncrementUsage()
	return state, nil
}

func (r *anonEntitlementRepo) Delete(ctx context.Context, identityID string) error {
	delete(r.items, identityID)
	return nil
}

func newAnonymousIDMiddleware(t *testing.T) gin.HandlerFunc {
	t.Helper()
	provider := appsession.NewAnonymousIdentityProvider(
		&anonIdentityRepo{items: make(map[string]*identity.Identity)},
		&anonEntitlementRepo{items: make(map[string]*entitlement.State)},
		20,
		testutil.NewMockLogger(),
	)
	return AnonymousID(provider, config.CookieConfig{Path: "/"}, testutil.NewMockLogger())
}

func TestAnonymousID_FreshVisitorsGetDistinctIDs(t *testing.T) {
	handler := newAnonymousIDMiddleware(t)

	c1, w1 := testutil.NewTestContext("GET", "/session", nil)
	handler(c1)
	first := c1.GetString(constants.ContextKeyAnonymousID)
	require.True(t, strings.HasPrefix(first, "anon_"))
	assert.Contains(t, strings.Join(w1.Header().Values("Set-Cookie"), ";"), utils.AnonymousIDCookie+"=")

	c2, _ := testutil.NewTestContext("GET", "/session", nil)
	handler(c2)
	second := c2.GetString(constants.ContextKeyAnonymousID)
	require.True(t, strings.HasPrefix(second, "anon_"))

	// Two cookie-less devices must never share a pre-login identity.
	assert.NotEqual(t, first, second)
}

func TestAnonymousID_CookieHintIsStable(t *testing.T) {
	handler := newAnonymousIDMiddleware(t)

	c1, _ := testutil.NewTestContext("GET", "/session", nil)
	handler(c1)
	minted := c1.GetString(constants.ContextKeyAnonymousID)

	c2, w2 := testutil.NewTestContext("GET", "/session", nil)
	c2.Request.AddCookie(&http.Cookie{Name: utils.AnonymousIDCookie, Value: minted})
	handler(c2)

	assert.Equal(t, minted, c2.GetString(constants.ContextKeyAnonymousID))
	assert.Empty(t, w2.Header().Values("Set-Cookie"), "a valid hint is not rewritten")
}

func TestAnonymousID_InvalidHintGetsFreshID(t *testing.T) {
	handler := newAnonymousIDMiddleware(t)

	c, w := testutil.NewTestContext("GET", "/session", nil)
	c.Request.AddCookie(&http.Cookie{Name: utils.AnonymousIDCookie, Value: "tampered-value"})
	handler(c)

	got := c.GetString(constants.ContextKeyAnonymousID)
	require.True(t, strings.HasPrefix(got, "anon_"))
	assert.NotEqual(t, "tampered-value", got)
	assert.Contains(t, strings.Join(w.Header().Values("Set-Cookie"), ";"), utils.AnonymousIDCookie+"=")
}
