package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appentitlement "adapta/internal/application/entitlement"
	"adapta/internal/shared/biztime"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/logger"
	"adapta/internal/shared/utils"
)

// EntitlementHandler exposes the usage counters for the calling identity.
type EntitlementHandler struct {
	tracker *appentitlement.Tracker
	logger  logger.Interface
}

func NewEntitlementHandler(tracker *appentitlement.Tracker, log logger.Interface) *EntitlementHandler {
	return &EntitlementHandler{
		tracker: tracker,
		logger:  log,
	}
}

// GetEntitlements handles GET /entitlements. Due resets are applied on
// read, so a stale month or week never leaks into the response.
func (h *EntitlementHandler) GetEntitlements(c *gin.Context) {
	identityID, ok := callerIdentityID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return
	}

	ctx := c.Request.Context()
	now := biztime.NowUTC()

	if _, err := h.tracker.ResetMonthlyIfDue(ctx, identityID, now); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	state, err := h.tracker.ResetWeeklyIfDue(ctx, identityID, now)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, entitlementToDTO(state))
}

// IncrementAdaptation handles POST /entitlements/adaptations. The
// increment is unconditional; clients gate on remaining beforehand.
func (h *EntitlementHandler) IncrementAdaptation(c *gin.Context) {
	identityID, ok := callerIdentityID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.tracker.ResetMonthlyIfDue(ctx, identityID, biztime.NowUTC()); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	state, err := h.tracker.IncrementAdaptationUsage(ctx, identityID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, entitlementToDTO(state))
}

// callerIdentityID resolves the acting identity: the authenticated subject
// when logged in, otherwise the anonymous id from the cookie middleware.
func callerIdentityID(c *gin.Context) (string, bool) {
	if v, exists := c.Get(constants.ContextKeyIdentityID); exists {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	if v, exists := c.Get(constants.ContextKeyAnonymousID); exists {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}
