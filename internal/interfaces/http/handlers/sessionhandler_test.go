package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsession "adapta/internal/application/session"
	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
	"adapta/internal/domain/permission"
	"adapta/internal/infrastructure/auth"
	"adapta/internal/infrastructure/cache"
	"adapta/internal/infrastructure/securestore"
	"adapta/internal/interfaces/http/handlers/testutil"
	"adapta/internal/shared/config"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/errors"
)

// ---------------------------------------------------------------------------
// Hand-written mocks
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	items map[string]*identity.Identity
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{items: make(map[string]*identity.Identity)}
}

func (r *stubIdentityRepo) GetByID(ctx context.Context, subject string) (*identity.Identity, error) {
	return r.items[subject], nil
}

func (r *stubIdentityRepo) Create(ctx context.Context, ident *identity.Identity) error {
	if _, ok := r.items[ident.ID()]; ok {
		return fmt.Errorf("identity %s already exists", ident.ID())
	}
	r.items[ident.ID()] = ident
	return nil
}

func (r *stubIdentityRepo) Update(ctx context.Context, ident *identity.Identity) error {
	r.items[ident.ID()] = ident
	return nil
}

type stubBindingRepo struct {
	items map[string]*identity.Binding
}

func newStubBindingRepo() *stubBindingRepo {
	return &stubBindingRepo{items: make(map[string]*identity.Binding)}
}

func (r *stubBindingRepo) GetByAnonymousID(ctx context.Context, anonymousID string) (*identity.Binding, error) {
	return r.items[anonymousID], nil
}

func (r *stubBindingRepo) Create(ctx context.Context, binding *identity.Binding) error {
	r.items[binding.AnonymousID()] = binding
	return nil
}

type stubEntitlementRepo struct {
	items map[string]*entitlement.State
}

func newStubEntitlementRepo() *stubEntitlementRepo {
	return &stubEntitlementRepo{items: make(map[string]*entitlement.State)}
}

func (r *stubEntitlementRepo) GetByIdentityID(ctx context.Context, identityID string) (*entitlement.State, error) {
	return r.items[identityID], nil
}

func (r *stubEntitlementRepo) Create(ctx context.Context, state *entitlement.State) error {
	r.items[state.IdentityID()] = state
	return nil
}

func (r *stubEntitlementRepo) Save(ctx context.Context, state *entitlement.State) error {
	r.items[state.IdentityID()] = state
	return nil
}

func (r *stubEntitlementRepo) IncrementUsage(ctx context.Context, identityID string) (*entitlement.State, error) {
	state, ok := r.items[identityID]
	if !ok {
		return nil, fmt.Errorf("state for %s not found", identityID)
	}
	state.IncrementUsage()
	return state, nil
}

func (r *stubEntitlementRepo) Delete(ctx context.Context, identityID string) error {
	delete(r.items, identityID)
	return nil
}

type stubSecureBackend struct {
	items map[string]string
}

func newStubSecureBackend() *stubSecureBackend {
	return &stubSecureBackend{items: make(map[string]string)}
}

func (b *stubSecureBackend) Get(ctx context.Context, namespace, key string) (string, error) {
	return b.items[namespace+"/"+key], nil
}

func (b *stubSecureBackend) Set(ctx context.Context, namespace, key, envelope string) error {
	b.items[namespace+"/"+key] = envelope
	return nil
}

func (b *stubSecureBackend) Delete(ctx context.Context, namespace, key string) error {
	delete(b.items, namespace+"/"+key)
	return nil
}

// stubOIDCProvider completes the authorization round trip for the subject
// configured on it.
type stubOIDCProvider struct {
	subject string
}

func (p *stubOIDCProvider) BuildAuthURL(state string, purpose auth.LoginPurpose) (string, string, error) {
	return "https://id.example.com/authorize?state=" + state, "verifier-" + state, nil
}

func (p *stubOIDCProvider) Exchange(ctx context.Context, code, codeVerifier string) (*auth.Tokens, error) {
	return &auth.Tokens{
		AccessToken:  "at-" + code,
		RefreshToken: "rt-" + code,
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (p *stubOIDCProvider) Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	return &auth.Tokens{
		AccessToken:  "at-refreshed",
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Hour),
	}, nil
}

func (p *stubOIDCProvider) FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error) {
	return &auth.Profile{
		Subject: p.subject,
		Name:    "Test User",
		Email:   "user@example.com",
		Roles:   []string{"member"},
	}, nil
}

func (p *stubOIDCProvider) Logout(ctx context.Context, accessToken string) error {
	return nil
}

type passExpander struct{}

func (e *passExpander) ExpandRoles(roles []string) ([]string, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type sessionHandlerFixture struct {
	handler    *SessionHandler
	sessions   *appsession.SessionContext
	flow       *appsession.FlowController
	provider   *stubOIDCProvider
	identities *stubIdentityRepo
}

func newSessionHandlerFixture(t *testing.T) *sessionHandlerFixture {
	t.Helper()
	log := testutil.NewMockLogger()

	provider := &stubOIDCProvider{subject: "auth0|user42"}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	states := cache.NewRedisStateStore(client, "test:oidc:", 10*time.Minute)
	flow := appsession.NewFlowController(provider, states, log)

	identities := newStubIdentityRepo()
	bindings := newStubBindingRepo()
	entitlements := newStubEntitlementRepo()

	cipher, err := securestore.NewCipher("test-secret")
	require.NoError(t, err)
	store := securestore.NewStore(cipher, newStubSecureBackend(), log)

	anonymous := appsession.NewAnonymousIdentityProvider(identities, entitlements, 20, log)
	binding := appsession.NewIdentityBindingService(identities, bindings, entitlements, 20, log)
	sessions := appsession.NewSessionContext(anonymous, flow, binding, store, identities, &passExpander{}, log)

	engine := permission.NewEngine(nil, log)
	jwtService := auth.NewJWTService("test-jwt-secret", 15, 30)

	handler := NewSessionHandler(sessions, flow, engine, jwtService,
		config.ServerConfig{}, config.CookieConfig{Path: "/"}, log)

	return &sessionHandlerFixture{
		handler:    handler,
		sessions:   sessions,
		flow:       flow,
		provider:   provider,
		identities: identities,
	}
}

// login completes a full authorization round trip for the given subject.
func (f *sessionHandlerFixture) login(t *testing.T, subject string) appsession.Session {
	t.Helper()
	ctx := context.Background()
	f.provider.subject = subject

	_, state, err := f.flow.BuildAuthorizationURL(ctx, auth.PurposeLogin, "", "")
	require.NoError(t, err)

	c, _ := testutil.NewTestContext("GET", "/auth/callback", nil)
	testutil.SetQueryParams(c, map[string]string{"code": "code-" + subject, "state": state})
	f.handler.Callback(c)

	session, err := f.sessions.Resolve(ctx, subject, "")
	require.NoError(t, err)
	require.True(t, session.Authenticated())
	return session
}

// setAccessClaims simulates the auth middleware for an authenticated caller.
func setAccessClaims(c *gin.Context, identityID string) {
	c.Set(constants.ContextKeyIdentityID, identityID)
	c.Set(constants.ContextKeyClaims, &auth.Claims{
		IdentityID: identityID,
		TokenType:  auth.TokenTypeAccess,
	})
}

func parseData(t *testing.T, raw json.RawMessage, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, target))
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSessionHandler_Login_ReturnsAuthorizationURL(t *testing.T) {
	f := newSessionHandlerFixture(t)

	c, w := testutil.NewTestContext("POST", "/auth/login", map[string]string{"purpose": "login"})
	f.handler.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.True(t, resp.Success)

	var data struct {
		AuthURL string `json:"auth_url"`
	}
	parseData(t, resp.Data, &data)
	assert.Contains(t, data.AuthURL, "https://id.example.com/authorize")
}

func TestSessionHandler_Login_RejectsAuthenticatedCaller(t *testing.T) {
	f := newSessionHandlerFixture(t)

	c, w := testutil.NewTestContext("POST", "/auth/login", map[string]string{"purpose": "login"})
	setAccessClaims(c, "auth0|user42")
	f.handler.Login(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionHandler_Login_InvalidBody(t *testing.T) {
	f := newSessionHandlerFixture(t)

	c, w := testutil.NewTestContext("POST", "/auth/login", map[string]string{"purpose": "bogus"})
	f.handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_Callback_AuthenticatesAndSetsCookies(t *testing.T) {
	f := newSessionHandlerFixture(t)
	ctx := context.Background()

	_, state, err := f.flow.BuildAuthorizationURL(ctx, auth.PurposeLogin, "/library", "")
	require.NoError(t, err)

	c, w := testutil.NewTestContext("GET", "/auth/callback", nil)
	testutil.SetQueryParams(c, map[string]string{"code": "code-1", "state": state})
	f.handler.Callback(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	require.True(t, resp.Success)

	var data struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		RedirectTarget string `json:"redirect_target"`
	}
	parseData(t, resp.Data, &data)
	assert.Equal(t, "authenticated", data.Session.Status)
	assert.Equal(t, "/library", data.RedirectTarget)

	cookies := strings.Join(w.Header().Values("Set-Cookie"), "; ")
	assert.Contains(t, cookies, "access_token=")
	assert.Contains(t, cookies, "refresh_token=")
}

func TestSessionHandler_Callback_FailureIsKeyedToCaller(t *testing.T) {
	f := newSessionHandlerFixture(t)
	ctx := context.Background()

	c, w := testutil.NewTestContext("GET", "/auth/callback", nil)
	c.Set(constants.ContextKeyAnonymousID, "anon_deviceA")
	testutil.SetQueryParams(c, map[string]string{
		"error": "access_denied",
		"state": "some-state",
	})
	f.handler.Callback(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The declining visitor sees the failure on their next session read.
	session, err := f.sessions.Resolve(ctx, "", "anon_deviceA")
	require.NoError(t, err)
	assert.Equal(t, errors.ReasonOAuthDenied, session.Error)

	// Another visitor never does.
	session, err = f.sessions.Resolve(ctx, "", "anon_deviceB")
	require.NoError(t, err)
	assert.Empty(t, session.Error)
}

func TestSessionHandler_Me_ReturnsCallerIdentity(t *testing.T) {
	f := newSessionHandlerFixture(t)

	f.login(t, "auth0|alice")
	f.login(t, "auth0|bob")

	// Bob logged in last; Alice's token must still return Alice.
	c, w := testutil.NewTestContext("GET", "/me", nil)
	setAccessClaims(c, "auth0|alice")
	f.handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var data struct {
		ID string `json:"id"`
	}
	parseData(t, resp.Data, &data)
	assert.Equal(t, "auth0|alice", data.ID)

	c, w = testutil.NewTestContext("GET", "/me", nil)
	setAccessClaims(c, "auth0|bob")
	f.handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, testutil.ParseResponse(w, &resp))
	parseData(t, resp.Data, &data)
	assert.Equal(t, "auth0|bob", data.ID)
}

func TestSessionHandler_Me_UnauthenticatedCallerRejected(t *testing.T) {
	f := newSessionHandlerFixture(t)

	c, w := testutil.NewTestContext("GET", "/me", nil)
	f.handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandler_Me_AnonymousClaimsRejected(t *testing.T) {
	f := newSessionHandlerFixture(t)

	c, w := testutil.NewTestContext("GET", "/me", nil)
	c.Set(constants.ContextKeyClaims, &auth.Claims{
		IdentityID: "anon_deviceA",
		Anonymous:  true,
		TokenType:  auth.TokenTypeAccess,
	})
	f.handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandler_UpdateMe_ActsOnCallerIdentity(t *testing.T) {
	f := newSessionHandlerFixture(t)

	f.login(t, "auth0|alice")
	f.login(t, "auth0|bob")

	c, w := testutil.NewTestContext("PATCH", "/me", map[string]string{"display_name": "Alice Renamed"})
	setAccessClaims(c, "auth0|alice")
	f.handler.UpdateMe(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var data struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	parseData(t, resp.Data, &data)
	assert.Equal(t, "auth0|alice", data.ID)
	assert.Equal(t, "Alice Renamed", data.DisplayName)

	bob, err := f.identities.GetByID(context.Background(), "auth0|bob")
	require.NoError(t, err)
	assert.NotEqual(t, "Alice Renamed", bob.DisplayName())
}

func TestSessionHandler_GetSession_AnonymousVisitor(t *testing.T) {
	f := newSessionHandlerFixture(t)

	c, w := testutil.NewTestContext("GET", "/session", nil)
	f.handler.GetSession(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))

	var data struct {
		Status   string `json:"status"`
		Identity struct {
			ID        string `json:"id"`
			Anonymous bool   `json:"anonymous"`
		} `json:"identity"`
	}
	parseData(t, resp.Data, &data)
	assert.Equal(t, "unauthenticated", data.Status)
	assert.True(t, data.Identity.Anonymous)
	assert.True(t, strings.HasPrefix(data.Identity.ID, "anon_"))
}
