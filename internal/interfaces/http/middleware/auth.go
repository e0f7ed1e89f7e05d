package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adapta/internal/infrastructure/auth"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/logger"
	"adapta/internal/shared/utils"
)

type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     logger.Interface
}

func NewAuthMiddleware(jwtService *auth.JWTService, log logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     log,
	}
}

// RequireAuth rejects requests without a valid access token. The token may
// arrive in the auth cookie or an Authorization bearer header.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.resolveClaims(c)
		if !ok {
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyIdentityID, claims.IdentityID)
		c.Set(constants.ContextKeyClaims, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and lets the
// request through either way.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.jwtService.Verify(token)
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			c.Next()
			return
		}

		c.Set(constants.ContextKeyIdentityID, claims.IdentityID)
		c.Set(constants.ContextKeyClaims, claims)
		c.Next()
	}
}

func (m *AuthMiddleware) resolveClaims(c *gin.Context) (*auth.Claims, bool) {
	token := m.extractToken(c)
	if token == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
		return nil, false
	}

	claims, err := m.jwtService.Verify(token)
	if err != nil {
		m.logger.Warnw("failed to verify token", "error", err)
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}

	if claims.TokenType != auth.TokenTypeAccess {
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token type")
		return nil, false
	}

	return claims, true
}

func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	if token := utils.GetTokenFromCookie(c, utils.AccessTokenCookie); token != "" {
		return token
	}

	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
