// Package auth adapts the external identity provider's OAuth2/OIDC surface.
// The provider is a black box: an authorization endpoint, a form-encoded
// token endpoint, a bearer-token userinfo endpoint, and a logout endpoint.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"adapta/internal/shared/config"
)

// LoginPurpose selects the provider screen: plain login or signup.
type LoginPurpose string

const (
	PurposeLogin    LoginPurpose = "login"
	PurposeRegister LoginPurpose = "register"
)

// Profile is the normalized userinfo response.
type Profile struct {
	Subject     string
	Name        string
	Email       string
	Phone       string
	AvatarURL   string
	Roles       []string
	Permissions []string
	VIPLevel    string
}

// Tokens is the provider token set handed back to the session layer.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// OIDCClient drives the authorization-code flow against the configured
// provider endpoints.
type OIDCClient struct {
	oauth      *oauth2.Config
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewOIDCClient builds a client from provider configuration.
func NewOIDCClient(cfg config.ProviderConfig) *OIDCClient {
	return &OIDCClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// BuildAuthURL returns the authorization URL for the given state plus the
// PKCE code verifier to retain for the exchange. The register purpose adds
// the provider's signup hint parameter.
func (c *OIDCClient) BuildAuthURL(state string, purpose LoginPurpose) (authURL string, codeVerifier string, err error) {
	codeVerifier, codeChallenge, err := generatePKCEParams()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate PKCE parameters: %w", err)
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	if purpose == PurposeRegister && c.cfg.SignupHintKey != "" {
		opts = append(opts, oauth2.SetAuthURLParam(c.cfg.SignupHintKey, c.cfg.SignupHintVal))
	}

	return c.oauth.AuthCodeURL(state, opts...), codeVerifier, nil
}

// Exchange trades an authorization code for tokens. The call carries the
// configured timeout; a timeout behaves like any other network failure.
func (c *OIDCClient) Exchange(ctx context.Context, code, codeVerifier string) (*Tokens, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tokensFrom(token), nil
}

// Refresh trades a refresh token for a fresh token set.
func (c *OIDCClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	src := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	out := tokensFrom(token)
	if out.RefreshToken == "" {
		// Providers may omit the refresh token on rotation; keep the old one.
		out.RefreshToken = refreshToken
	}
	return out, nil
}

// FetchProfile retrieves and normalizes the userinfo document.
func (c *OIDCClient) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo fetch failed with status %d", resp.StatusCode)
	}

	var raw struct {
		Sub         string   `json:"sub"`
		Name        string   `json:"name"`
		Email       string   `json:"email"`
		Phone       string   `json:"phone_number"`
		Picture     string   `json:"picture"`
		Roles       []string `json:"roles"`
		Permissions []string `json:"permissions"`
		VIPLevel    string   `json:"vip_level"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}
	if raw.Sub == "" {
		return nil, fmt.Errorf("empty sub in userinfo response")
	}

	return &Profile{
		Subject:     raw.Sub,
		Name:        raw.Name,
		Email:       raw.Email,
		Phone:       raw.Phone,
		AvatarURL:   raw.Picture,
		Roles:       raw.Roles,
		Permissions: raw.Permissions,
		VIPLevel:    raw.VIPLevel,
	}, nil
}

// Logout notifies the provider that the access token should be revoked.
// Best effort: local teardown proceeds regardless of the outcome.
func (c *OIDCClient) Logout(ctx context.Context, accessToken string) error {
	if c.cfg.LogoutURL == "" || accessToken == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LogoutURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("logout rejected with status %d", resp.StatusCode)
	}
	return nil
}

func tokensFrom(t *oauth2.Token) *Tokens {
	return &Tokens{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry.UTC(),
	}
}
