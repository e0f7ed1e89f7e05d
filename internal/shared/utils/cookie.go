package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adapta/internal/shared/config"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	AnonymousIDCookie  = "adapta_anon_id"
)

// SetAuthCookies sets access and refresh token as HttpOnly cookies
func SetAuthCookies(c *gin.Context, cookieConfig config.CookieConfig, accessToken, refreshToken string, accessMaxAge, refreshMaxAge int) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(AccessTokenCookie, accessToken, accessMaxAge, cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
	c.SetCookie(RefreshTokenCookie, refreshToken, refreshMaxAge, cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
}

// ClearAuthCookies clears access and refresh token cookies
func ClearAuthCookies(c *gin.Context, cookieConfig config.CookieConfig) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(AccessTokenCookie, "", -1, cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
}

// SetAnonymousIDCookie persists the anonymous identity id on the device.
// Long max age: the anonymous id must survive reloads and authenticated
// logouts that never consumed it.
func SetAnonymousIDCookie(c *gin.Context, cookieConfig config.CookieConfig, anonymousID string) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(AnonymousIDCookie, anonymousID, 2*365*24*3600, cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
}

// GetTokenFromCookie retrieves a token cookie, or "" when absent.
func GetTokenFromCookie(c *gin.Context, cookieName string) string {
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "Strict", "strict":
		return http.SameSiteStrictMode
	case "None", "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
