package session

import (
	"context"
	"net/url"
	"sync"

	"adapta/internal/infrastructure/auth"
	"adapta/internal/infrastructure/cache"
	"adapta/internal/infrastructure/token"
	"adapta/internal/shared/errors"
	"adapta/internal/shared/logger"
	"adapta/internal/shared/utils"
)

// Phase is the state of one login attempt.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseAuthorizing     Phase = "authorizing"
	PhaseExchanging      Phase = "exchanging"
	PhaseProfileFetching Phase = "profile-fetching"
	PhaseComplete        Phase = "complete"
	PhaseError           Phase = "error"
)

// Provider is the OAuth2/OIDC surface the flow drives. Implemented by
// auth.OIDCClient; tests substitute a fake.
type Provider interface {
	BuildAuthURL(state string, purpose auth.LoginPurpose) (authURL string, codeVerifier string, err error)
	Exchange(ctx context.Context, code, codeVerifier string) (*auth.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error)
	FetchProfile(ctx context.Context, accessToken string) (*auth.Profile, error)
	Logout(ctx context.Context, accessToken string) error
}

// StateStore keeps per-attempt flow state with one-time-use semantics.
// Implemented by cache.RedisStateStore.
type StateStore interface {
	Set(ctx context.Context, state string, info cache.FlowState) error
	VerifyAndGet(ctx context.Context, state string) (*cache.FlowState, error)
	MarkCodeConsumed(ctx context.Context, code string) (bool, error)
}

// CallbackResult is the outcome of a completed login attempt.
type CallbackResult struct {
	Tokens         *auth.Tokens
	Profile        *auth.Profile
	Purpose        string
	RedirectTarget string
	AnonymousID    string
}

type attempt struct {
	phase  Phase
	waiter chan waiterOutcome
	once   sync.Once
}

type waiterOutcome struct {
	result *CallbackResult
	err    error
}

// FlowController drives the authorization-code login flow: it builds
// authorization URLs, consumes callbacks exactly once, exchanges codes for
// tokens and fetches the profile in one atomic step. Nothing is persisted
// here; the session context owns the store.
type FlowController struct {
	provider Provider
	states   StateStore
	tokens   token.TokenGenerator
	logger   logger.Interface

	mu            sync.Mutex
	attempts      map[string]*attempt
	failedRefresh map[string]struct{}
}

func NewFlowController(provider Provider, states StateStore, log logger.Interface) *FlowController {
	return &FlowController{
		provider:      provider,
		states:        states,
		tokens:        token.NewTokenGenerator(),
		logger:        log,
		attempts:      make(map[string]*attempt),
		failedRefresh: make(map[string]struct{}),
	}
}

// BuildAuthorizationURL starts a login attempt. The opaque state token keys
// the stored PKCE verifier, purpose and post-login redirect target so the
// callback can recover them. Only the token's hash ever reaches the state
// store; the raw value lives in the authorization URL alone.
func (f *FlowController) BuildAuthorizationURL(ctx context.Context, purpose auth.LoginPurpose, redirectTarget, anonymousID string) (authURL, state string, err error) {
	state, stateHash, err := f.tokens.Generate(token.PrefixState)
	if err != nil {
		return "", "", err
	}

	authURL, codeVerifier, err := f.provider.BuildAuthURL(state, purpose)
	if err != nil {
		return "", "", err
	}

	if err := f.states.Set(ctx, stateHash, cache.FlowState{
		CodeVerifier:   codeVerifier,
		Purpose:        string(purpose),
		RedirectTarget: redirectTarget,
		AnonymousID:    anonymousID,
	}); err != nil {
		return "", "", err
	}

	f.mu.Lock()
	f.attempts[state] = &attempt{phase: PhaseAuthorizing}
	f.mu.Unlock()

	return authURL, state, nil
}

// StartEmbedded begins an attempt whose completion is awaited in-process
// instead of across a redirect. Wait resolves when the callback for this
// attempt lands, or to UserCancelled when ctx is cancelled first. The
// waiter is torn down exactly once regardless of which side resolves it.
func (f *FlowController) StartEmbedded(ctx context.Context, purpose auth.LoginPurpose, redirectTarget, anonymousID string) (*EmbeddedAttempt, error) {
	authURL, state, err := f.BuildAuthorizationURL(ctx, purpose, redirectTarget, anonymousID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	att := f.attempts[state]
	att.waiter = make(chan waiterOutcome, 1)
	f.mu.Unlock()

	return &EmbeddedAttempt{
		AuthURL: authURL,
		State:   state,
		flow:    f,
		att:     att,
	}, nil
}

// EmbeddedAttempt is one in-process login attempt.
type EmbeddedAttempt struct {
	AuthURL string
	State   string

	flow *FlowController
	att  *attempt
}

// Wait blocks until the attempt's callback resolves it or ctx is cancelled.
func (a *EmbeddedAttempt) Wait(ctx context.Context) (*CallbackResult, error) {
	select {
	case outcome := <-a.att.waiter:
		return outcome.result, outcome.err
	case <-ctx.Done():
		a.Cancel()
		return nil, errors.NewUserCancelledError()
	}
}

// Cancel tears the attempt down. Safe to call more than once; only the
// first call removes the waiter.
func (a *EmbeddedAttempt) Cancel() {
	a.att.once.Do(func() {
		a.flow.mu.Lock()
		delete(a.flow.attempts, a.State)
		a.flow.mu.Unlock()
	})
}

// HandleCallback validates and consumes one provider callback. The code is
// marked consumed before any exchange, so a replayed callback is rejected
// without a second network call.
func (f *FlowController) HandleCallback(ctx context.Context, query url.Values) (*CallbackResult, error) {
	state := query.Get("state")

	if providerErr := query.Get("error"); providerErr != "" {
		return f.fail(state, errors.NewOAuthDeniedError(providerErr, query.Get("error_description")))
	}

	code := query.Get("code")
	if code == "" && state == "" {
		// Nothing recoverable; the user backed out before authorizing.
		return nil, errors.NewUserCancelledError()
	}
	if code == "" {
		return f.fail(state, errors.NewOAuthMalformedResponseError("missing authorization code"))
	}
	if state == "" {
		return f.fail(state, errors.NewOAuthMalformedResponseError("missing state parameter"))
	}

	first, err := f.states.MarkCodeConsumed(ctx, f.tokens.Hash(code))
	if err != nil {
		return f.fail(state, errors.NewTokenExchangeFailedError(utils.MaskForLog(err.Error())))
	}
	if !first {
		f.logger.Warnw("authorization code replay detected", "state", state)
		return f.fail(state, errors.NewReplayedCodeError())
	}

	info, err := f.states.VerifyAndGet(ctx, f.tokens.Hash(state))
	if err != nil {
		// One-time state already consumed or expired.
		f.logger.Warnw("state verification failed", "state", state, "error", err)
		return f.fail(state, errors.NewReplayedCodeError())
	}

	f.setPhase(state, PhaseExchanging)
	tokens, err := f.provider.Exchange(ctx, code, info.CodeVerifier)
	if err != nil {
		return f.fail(state, errors.NewTokenExchangeFailedError(utils.MaskForLog(err.Error())))
	}

	f.setPhase(state, PhaseProfileFetching)
	profile, err := f.provider.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return f.fail(state, errors.NewProfileFetchFailedError(utils.MaskForLog(err.Error())))
	}

	result := &CallbackResult{
		Tokens:         tokens,
		Profile:        profile,
		Purpose:        info.Purpose,
		RedirectTarget: info.RedirectTarget,
		AnonymousID:    info.AnonymousID,
	}

	f.resolve(state, result, nil)
	return result, nil
}

// Refresh exchanges a refresh token for fresh tokens. A token that already
// failed once is rejected immediately so callers cannot build retry storms.
func (f *FlowController) Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	f.mu.Lock()
	_, alreadyFailed := f.failedRefresh[refreshToken]
	f.mu.Unlock()
	if alreadyFailed {
		return nil, errors.NewTokenRefreshFailedError("refresh already failed for this token")
	}

	tokens, err := f.provider.Refresh(ctx, refreshToken)
	if err != nil {
		f.mu.Lock()
		f.failedRefresh[refreshToken] = struct{}{}
		f.mu.Unlock()
		f.logger.Warnw("token refresh failed", "error", utils.MaskForLog(err.Error()))
		return nil, errors.NewTokenRefreshFailedError(utils.MaskForLog(err.Error()))
	}

	return tokens, nil
}

// Logout notifies the provider best-effort. Local teardown happens at the
// session context regardless of the outcome here.
func (f *FlowController) Logout(ctx context.Context, accessToken string) {
	if err := f.provider.Logout(ctx, accessToken); err != nil {
		f.logger.Warnw("provider logout notification failed", "error", err)
	}
}

// Phase reports the phase of the attempt keyed by state, or idle when the
// attempt is unknown (redirect-mode attempts resumed on a fresh process).
func (f *FlowController) Phase(state string) Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	if att, ok := f.attempts[state]; ok {
		return att.phase
	}
	return PhaseIdle
}

func (f *FlowController) setPhase(state string, phase Phase) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if att, ok := f.attempts[state]; ok {
		att.phase = phase
	}
}

func (f *FlowController) fail(state string, err error) (*CallbackResult, error) {
	f.setPhase(state, PhaseError)
	f.resolve(state, nil, err)
	return nil, err
}

// resolve delivers the outcome to an embedded waiter, if one is attached,
// and finishes the attempt.
func (f *FlowController) resolve(state string, result *CallbackResult, err error) {
	f.mu.Lock()
	att, ok := f.attempts[state]
	if ok && err == nil {
		att.phase = PhaseComplete
	}
	f.mu.Unlock()
	if !ok {
		return
	}

	if att.waiter != nil {
		select {
		case att.waiter <- waiterOutcome{result: result, err: err}:
		default:
		}
	}

	att.once.Do(func() {
		f.mu.Lock()
		delete(f.attempts, state)
		f.mu.Unlock()
	})
}
