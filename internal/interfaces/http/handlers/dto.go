package handlers

import (
	"time"

	appsession "adapta/internal/application/session"
	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
)

type identityDTO struct {
	ID          string   `json:"id"`
	Anonymous   bool     `json:"anonymous"`
	DisplayName string   `json:"display_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	VIPLevel    string   `json:"vip_level,omitempty"`
}

type sessionDTO struct {
	Status    string       `json:"status"`
	Identity  *identityDTO `json:"identity,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type entitlementDTO struct {
	IdentityID         string `json:"identity_id"`
	AdaptationUsed     int    `json:"adaptation_used"`
	AdaptationLimit    int    `json:"adaptation_limit"`
	Unlimited          bool   `json:"unlimited"`
	Remaining          int    `json:"remaining"`
	WeeklyClickRewards int    `json:"weekly_click_rewards"`
}

type inviteDTO struct {
	Code           string    `json:"code"`
	Clicks         int       `json:"clicks"`
	Registrations  int       `json:"registrations"`
	RewardsClaimed int       `json:"rewards_claimed"`
	CreatedAt      time.Time `json:"created_at"`
}

func identityToDTO(ident *identity.Identity) *identityDTO {
	if ident == nil {
		return nil
	}
	return &identityDTO{
		ID:          ident.ID(),
		Anonymous:   ident.IsAnonymous(),
		DisplayName: ident.DisplayName(),
		Email:       ident.Email(),
		Phone:       ident.Phone(),
		AvatarURL:   ident.AvatarURL(),
		Roles:       ident.Roles(),
		Permissions: ident.Permissions(),
		VIPLevel:    string(ident.VIPLevel()),
	}
}

func sessionToDTO(session appsession.Session) sessionDTO {
	dto := sessionDTO{
		Status:   string(session.Status),
		Identity: identityToDTO(session.Identity),
		Error:    session.Error,
	}
	if !session.ExpiresAt.IsZero() {
		expiresAt := session.ExpiresAt
		dto.ExpiresAt = &expiresAt
	}
	return dto
}

func entitlementToDTO(state *entitlement.State) entitlementDTO {
	return entitlementDTO{
		IdentityID:         state.IdentityID(),
		AdaptationUsed:     state.AdaptationUsed(),
		AdaptationLimit:    state.AdaptationLimit(),
		Unlimited:          state.Unlimited(),
		Remaining:          state.Remaining(),
		WeeklyClickRewards: state.WeeklyClickRewards(),
	}
}

func inviteToDTO(record *identity.InviteRecord) inviteDTO {
	return inviteDTO{
		Code:           record.Code(),
		Clicks:         record.Clicks(),
		Registrations:  record.Registrations(),
		RewardsClaimed: record.RewardsClaimed(),
		CreatedAt:      record.CreatedAt(),
	}
}
