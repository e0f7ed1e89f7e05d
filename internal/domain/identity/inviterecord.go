package identity

import (
	"fmt"
	"time"

	"adapta/internal/shared/biztime"
	"adapta/internal/shared/id"
)

// InviteRecord tracks referral attribution for a code generated by an
// identity. It is bookkeeping only and never consulted for authorization.
type InviteRecord struct {
	code           string
	ownerID        string
	clicks         int
	registrations  int
	rewardsClaimed int
	createdAt      time.Time
	updatedAt      time.Time
}

// NewInviteRecord creates a record with a generated invite code.
func NewInviteRecord(ownerID string) (*InviteRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	code, err := id.GenerateWithPrefix(id.PrefixInvite, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}
	now := biztime.NowUTC()
	return &InviteRecord{
		code:      code,
		ownerID:   ownerID,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructInviteRecord rebuilds a record from persistence.
func ReconstructInviteRecord(
	code, ownerID string,
	clicks, registrations, rewardsClaimed int,
	createdAt, updatedAt time.Time,
) (*InviteRecord, error) {
	if code == "" {
		return nil, fmt.Errorf("invite code is required")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if clicks < 0 || registrations < 0 || rewardsClaimed < 0 {
		return nil, fmt.Errorf("invite counters cannot be negative")
	}
	return &InviteRecord{
		code:           code,
		ownerID:        ownerID,
		clicks:         clicks,
		registrations:  registrations,
		rewardsClaimed: rewardsClaimed,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

// Code returns the invite code.
func (r *InviteRecord) Code() string {
	return r.code
}

// OwnerID returns the id of the identity that generated the code.
func (r *InviteRecord) OwnerID() string {
	return r.ownerID
}

// Clicks returns the total recorded clicks, including clicks past the
// weekly reward ceiling.
func (r *InviteRecord) Clicks() int {
	return r.clicks
}

// Registrations returns the number of referred registrations.
func (r *InviteRecord) Registrations() int {
	return r.registrations
}

// RewardsClaimed returns how many registration rewards were claimed.
func (r *InviteRecord) RewardsClaimed() int {
	return r.rewardsClaimed
}

// CreatedAt returns when the record was created.
func (r *InviteRecord) CreatedAt() time.Time {
	return r.createdAt
}

// UpdatedAt returns when the record last changed.
func (r *InviteRecord) UpdatedAt() time.Time {
	return r.updatedAt
}

// RecordClick increments the analytics click counter.
func (r *InviteRecord) RecordClick() {
	r.clicks++
	r.updatedAt = biztime.NowUTC()
}

// RecordRegistration marks a referred user's first authenticated action and
// claims the corresponding reward.
func (r *InviteRecord) RecordRegistration() {
	r.registrations++
	r.rewardsClaimed++
	r.updatedAt = biztime.NowUTC()
}
