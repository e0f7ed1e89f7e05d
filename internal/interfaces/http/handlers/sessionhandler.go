package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	appsession "adapta/internal/application/session"
	"adapta/internal/domain/identity"
	"adapta/internal/domain/permission"
	"adapta/internal/infrastructure/auth"
	"adapta/internal/shared/config"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/errors"
	"adapta/internal/shared/logger"
	"adapta/internal/shared/utils"
)

// SessionHandler exposes the session core over HTTP: login start, the
// provider callback, refresh, logout, session introspection, profile
// updates and permission checks. Every operation acts on the identity the
// request's own validated claims name, never on shared state.
type SessionHandler struct {
	sessions   *appsession.SessionContext
	flow       *appsession.FlowController
	engine     *permission.Engine
	jwtService *auth.JWTService
	serverCfg  config.ServerConfig
	cookieCfg  config.CookieConfig
	logger     logger.Interface
}

func NewSessionHandler(
	sessions *appsession.SessionContext,
	flow *appsession.FlowController,
	engine *permission.Engine,
	jwtService *auth.JWTService,
	serverCfg config.ServerConfig,
	cookieCfg config.CookieConfig,
	log logger.Interface,
) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		flow:       flow,
		engine:     engine,
		jwtService: jwtService,
		serverCfg:  serverCfg,
		cookieCfg:  cookieCfg,
		logger:     log,
	}
}

type loginRequest struct {
	Purpose        string `json:"purpose" binding:"omitempty,oneof=login register"`
	RedirectTarget string `json:"redirect_target" binding:"omitempty,max=500"`
}

type loginResponse struct {
	AuthURL string `json:"auth_url"`
}

// Login handles POST /auth/login. It starts a login attempt and returns
// the provider authorization URL for the client to navigate to. A caller
// who already holds a valid session gets a conflict instead of a second
// attempt.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if id := claimsIdentityID(c); id != "" {
		utils.ErrorResponseWithError(c, errors.NewConflictError("already authenticated"))
		return
	}

	purpose := auth.PurposeLogin
	if req.Purpose == "register" {
		purpose = auth.PurposeRegister
	}

	authURL, err := h.sessions.Login(c.Request.Context(), purpose, req.RedirectTarget, callerAnonymousID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, loginResponse{AuthURL: authURL})
}

// Callback handles GET /callback with the provider's full query string.
// Success binds the identity, persists the session and hands the browser
// back to the frontend with auth cookies set.
func (h *SessionHandler) Callback(c *gin.Context) {
	result, err := h.flow.HandleCallback(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.sessions.RecordLoginFailure(callerAnonymousID(c), err)
		h.logger.Warnw("login callback failed",
			"error", utils.MaskForLog(err.Error()),
			"client_ip", c.ClientIP(),
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	session, err := h.sessions.CompleteLogin(c.Request.Context(), result)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.issueTokens(c, session.Identity); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	target := h.serverCfg.FrontendCallbackURL
	if target == "" {
		utils.OKResponse(c, gin.H{
			"session":         sessionToDTO(session),
			"redirect_target": result.RedirectTarget,
		})
		return
	}

	if result.RedirectTarget != "" {
		target += "?target=" + url.QueryEscape(result.RedirectTarget)
	}
	c.Redirect(http.StatusFound, target)
}

// Refresh handles POST /auth/refresh. The caller is identified by their
// refresh-token cookie; a refresh failure downgrades the session and the
// response reports the new unauthenticated state rather than leaving the
// client guessing.
func (h *SessionHandler) Refresh(c *gin.Context) {
	identityID, ok := h.refreshCallerID(c)
	if !ok {
		utils.ClearAuthCookies(c, h.cookieCfg)
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return
	}

	session, err := h.sessions.RefreshSession(c.Request.Context(), identityID, callerAnonymousID(c))
	if err != nil {
		utils.ClearAuthCookies(c, h.cookieCfg)
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.issueTokens(c, session.Identity); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, sessionToDTO(session))
}

// Logout handles POST /auth/logout. Local teardown happens regardless of
// whether the provider acknowledged.
func (h *SessionHandler) Logout(c *gin.Context) {
	session, err := h.sessions.Logout(c.Request.Context(), claimsIdentityID(c), callerAnonymousID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ClearAuthCookies(c, h.cookieCfg)
	utils.OKResponse(c, gin.H{
		"status":  "logged_out",
		"session": sessionToDTO(session),
	})
}

// GetSession handles GET /session for the calling identity.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.Resolve(c.Request.Context(), claimsIdentityID(c), callerAnonymousID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.OKResponse(c, sessionToDTO(session))
}

// Me handles GET /me for the authenticated caller.
func (h *SessionHandler) Me(c *gin.Context) {
	session, err := h.sessions.Resolve(c.Request.Context(), claimsIdentityID(c), callerAnonymousID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if !session.Authenticated() {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return
	}
	utils.OKResponse(c, identityToDTO(session.Identity))
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=100"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,url"`
}

// UpdateMe handles PATCH /me. Partial fields merge into the caller's
// profile; the identity id never changes.
func (h *SessionHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ident, err := h.sessions.UpdateUser(c.Request.Context(), claimsIdentityID(c), identity.ProfilePatch{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Phone:       req.Phone,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, identityToDTO(ident))
}

type evaluatePermissionsRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
}

type permissionResultDTO struct {
	Pass        bool     `json:"pass"`
	FailedKey   string   `json:"failed_key,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Redirect    string   `json:"redirect,omitempty"`
	Message     string   `json:"message,omitempty"`
	SkippedKeys []string `json:"skipped_keys,omitempty"`
}

// EvaluatePermissions handles POST /permissions/evaluate against the
// calling identity's snapshot.
func (h *SessionHandler) EvaluatePermissions(c *gin.Context) {
	var req evaluatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.sessions.Resolve(c.Request.Context(), claimsIdentityID(c), callerAnonymousID(c))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	result := h.engine.Evaluate(req.Keys, session.Identity)

	utils.OKResponse(c, permissionResultDTO{
		Pass:        result.Pass,
		FailedKey:   result.FailedKey,
		Reason:      result.Reason,
		Redirect:    result.Redirect,
		Message:     result.Message,
		SkippedKeys: result.SkippedKeys,
	})
}

func (h *SessionHandler) issueTokens(c *gin.Context, ident *identity.Identity) error {
	pair, err := h.jwtService.Generate(ident.ID(), ident.IsAnonymous(), ident.Roles(), string(ident.VIPLevel()))
	if err != nil {
		return err
	}

	utils.SetAuthCookies(c, h.cookieCfg, pair.AccessToken, pair.RefreshToken,
		int(pair.ExpiresIn), 30*24*3600)
	return nil
}

// refreshCallerID identifies the refreshing caller from the refresh-token
// cookie. The access token is typically expired by now, so claims set by
// the auth middleware cannot be relied on here.
func (h *SessionHandler) refreshCallerID(c *gin.Context) (string, bool) {
	token := utils.GetTokenFromCookie(c, utils.RefreshTokenCookie)
	if token == "" {
		return "", false
	}
	claims, err := h.jwtService.Verify(token)
	if err != nil || claims.TokenType != auth.TokenTypeRefresh || claims.Anonymous {
		return "", false
	}
	return claims.IdentityID, true
}

// claimsIdentityID returns the authenticated subject from the request's
// validated claims, or empty for anonymous and unauthenticated callers.
func claimsIdentityID(c *gin.Context) string {
	v, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return ""
	}
	claims, ok := v.(*auth.Claims)
	if !ok || claims.Anonymous {
		return ""
	}
	return claims.IdentityID
}

func callerAnonymousID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyAnonymousID)
}
