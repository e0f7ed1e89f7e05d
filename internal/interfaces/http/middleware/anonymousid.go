package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appsession "adapta/internal/application/session"
	"adapta/internal/shared/config"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/logger"
	"adapta/internal/shared/utils"
)

// AnonymousID gives every visitor a stable pre-login identity. The id rides
// in a long-lived cookie; requests without one get a freshly minted id so
// usage is attributable before the visitor ever logs in.
func AnonymousID(provider *appsession.AnonymousIdentityProvider, cookieCfg config.CookieConfig, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		hint := utils.GetTokenFromCookie(c, utils.AnonymousIDCookie)

		anonID, err := provider.GetOrCreateID(c.Request.Context(), hint)
		if err != nil {
			log.Errorw("failed to establish anonymous identity", "error", err)
			utils.ErrorResponse(c, http.StatusInternalServerError, constants.ErrMsgInternalServerError)
			c.Abort()
			return
		}

		if anonID != hint {
			utils.SetAnonymousIDCookie(c, cookieCfg, anonID)
		}

		c.Set(constants.ContextKeyAnonymousID, anonID)
		c.Next()
	}
}
