package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appentitlement "adapta/internal/application/entitlement"
	"adapta/internal/shared/constants"
	"adapta/internal/shared/logger"
	"adapta/internal/shared/utils"
)

// InviteHandler exposes invite code generation, listing and the two
// attribution events: clicks and completed registrations.
type InviteHandler struct {
	tracker *appentitlement.Tracker
	logger  logger.Interface
}

func NewInviteHandler(tracker *appentitlement.Tracker, log logger.Interface) *InviteHandler {
	return &InviteHandler{
		tracker: tracker,
		logger:  log,
	}
}

// Generate handles POST /invites.
func (h *InviteHandler) Generate(c *gin.Context) {
	identityID, ok := callerIdentityID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return
	}

	record, err := h.tracker.GenerateInviteCode(c.Request.Context(), identityID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.OKResponse(c, inviteToDTO(record))
}

// List handles GET /invites.
func (h *InviteHandler) List(c *gin.Context) {
	identityID, ok := callerIdentityID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, constants.ErrMsgUnauthorized)
		return
	}

	records, err := h.tracker.ListInvites(c.Request.Context(), identityID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	dtos := make([]inviteDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, inviteToDTO(record))
	}
	utils.OKResponse(c, dtos)
}

// Click handles POST /invites/:code/clicks. Clicks always count for
// attribution; the owner's quota grant respects the weekly ceiling.
func (h *InviteHandler) Click(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "invite code is required")
		return
	}

	if err := h.tracker.AddInviteClickReward(c.Request.Context(), code); err != nil {
		h.logger.Warnw("invite click could not be recorded", "code", code, "error", err)
		utils.ErrorResponse(c, http.StatusNotFound, constants.ErrMsgResourceNotFound)
		return
	}

	utils.OKResponse(c, gin.H{"status": "recorded"})
}

// Register handles POST /invites/:code/registrations, called once when a
// referred user completes their first authenticated action.
func (h *InviteHandler) Register(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "invite code is required")
		return
	}

	if err := h.tracker.RegisterInviteSuccess(c.Request.Context(), code); err != nil {
		h.logger.Warnw("invite registration could not be recorded", "code", code, "error", err)
		utils.ErrorResponse(c, http.StatusNotFound, constants.ErrMsgResourceNotFound)
		return
	}

	utils.OKResponse(c, gin.H{"status": "recorded"})
}
