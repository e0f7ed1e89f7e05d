// Package entitlement models consumable usage allowances per identity:
// monthly content-adaptation calls and weekly-capped invite click rewards.
package entitlement

import (
	"fmt"
	"time"

	"adapta/internal/shared/biztime"
)

// UnlimitedLimit is the adaptationLimit sentinel meaning "no cap".
const UnlimitedLimit = 0

// State is the per-identity counter aggregate. Counters are keyed by the
// identity id current at write time, so anonymous and account phases hold
// independently addressable state that binding can adopt.
type State struct {
	identityID         string
	adaptationUsed     int
	adaptationLimit    int
	weeklyClickRewards int
	lastMonthlyReset   time.Time
	lastWeeklyReset    time.Time
	updatedAt          time.Time
	version            int
}

// NewState creates a fresh counter state for an identity.
func NewState(identityID string, adaptationLimit int) (*State, error) {
	if identityID == "" {
		return nil, fmt.Errorf("identity id is required")
	}
	if adaptationLimit < 0 {
		return nil, fmt.Errorf("adaptation limit cannot be negative")
	}
	now := biztime.NowUTC()
	return &State{
		identityID:       identityID,
		adaptationLimit:  adaptationLimit,
		lastMonthlyReset: now,
		lastWeeklyReset:  now,
		updatedAt:        now,
		version:          1,
	}, nil
}

// ReconstructState rebuilds a state from persistence.
func ReconstructState(
	identityID string,
	adaptationUsed, adaptationLimit, weeklyClickRewards int,
	lastMonthlyReset, lastWeeklyReset, updatedAt time.Time,
	version int,
) (*State, error) {
	if identityID == "" {
		return nil, fmt.Errorf("identity id is required")
	}
	if adaptationUsed < 0 {
		return nil, fmt.Errorf("adaptation used cannot be negative")
	}
	if adaptationLimit < 0 {
		return nil, fmt.Errorf("adaptation limit cannot be negative")
	}
	if weeklyClickRewards < 0 {
		return nil, fmt.Errorf("weekly click rewards cannot be negative")
	}
	return &State{
		identityID:         identityID,
		adaptationUsed:     adaptationUsed,
		adaptationLimit:    adaptationLimit,
		weeklyClickRewards: weeklyClickRewards,
		lastMonthlyReset:   lastMonthlyReset,
		lastWeeklyReset:    lastWeeklyReset,
		updatedAt:          updatedAt,
		version:            version,
	}, nil
}

// AdoptForIdentity re-keys an anonymous-phase state onto a bound account.
// Counters and reset timestamps carry over verbatim; only the owner changes.
func (s *State) AdoptForIdentity(identityID string) (*State, error) {
	if identityID == "" {
		return nil, fmt.Errorf("identity id is required")
	}
	now := biztime.NowUTC()
	return &State{
		identityID:         identityID,
		adaptationUsed:     s.adaptationUsed,
		adaptationLimit:    s.adaptationLimit,
		weeklyClickRewards: s.weeklyClickRewards,
		lastMonthlyReset:   s.lastMonthlyReset,
		lastWeeklyReset:    s.lastWeeklyReset,
		updatedAt:          now,
		version:            1,
	}, nil
}

// IdentityID returns the owning identity id.
func (s *State) IdentityID() string {
	return s.identityID
}

// AdaptationUsed returns the consumed adaptation calls this month.
func (s *State) AdaptationUsed() int {
	return s.adaptationUsed
}

// AdaptationLimit returns the monthly cap (UnlimitedLimit means no cap).
func (s *State) AdaptationLimit() int {
	return s.adaptationLimit
}

// WeeklyClickRewards returns the invite click rewards granted this week.
func (s *State) WeeklyClickRewards() int {
	return s.weeklyClickRewards
}

// LastMonthlyReset returns the last monthly reset timestamp.
func (s *State) LastMonthlyReset() time.Time {
	return s.lastMonthlyReset
}

// LastWeeklyReset returns the last weekly reset timestamp.
func (s *State) LastWeeklyReset() time.Time {
	return s.lastWeeklyReset
}

// UpdatedAt returns when the state last changed.
func (s *State) UpdatedAt() time.Time {
	return s.updatedAt
}

// Version returns the aggregate version for optimistic locking.
func (s *State) Version() int {
	return s.version
}

// Unlimited reports whether the monthly cap is disabled.
func (s *State) Unlimited() bool {
	return s.adaptationLimit == UnlimitedLimit
}

// Remaining returns max(0, limit-used) for finite limits. Callers must
// check Unlimited first; for unlimited states Remaining has no meaning and
// returns 0.
func (s *State) Remaining() int {
	if s.Unlimited() {
		return 0
	}
	if s.adaptationUsed >= s.adaptationLimit {
		return 0
	}
	return s.adaptationLimit - s.adaptationUsed
}

// IncrementUsage consumes one adaptation call unconditionally. Quota checks
// belong to the caller via Remaining.
func (s *State) IncrementUsage() {
	s.adaptationUsed++
	s.touch()
}

// Grant raises the monthly cap by amount. Used counters are never reduced.
// Granting onto an unlimited state is a no-op.
func (s *State) Grant(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("grant amount must be positive")
	}
	if s.Unlimited() {
		return nil
	}
	s.adaptationLimit += amount
	s.touch()
	return nil
}

// ResetMonthlyIfDue zeroes the used counter when lastMonthlyReset falls in
// a different calendar month than now. Safe to call redundantly: within the
// same month it is a no-op. Returns whether a reset happened.
func (s *State) ResetMonthlyIfDue(now time.Time) bool {
	if biztime.SameMonth(s.lastMonthlyReset, now) {
		return false
	}
	s.adaptationUsed = 0
	s.lastMonthlyReset = now.UTC()
	s.touch()
	return true
}

// ResetWeeklyIfDue zeroes the weekly click reward counter when the stored
// week start differs from the week containing now. Returns whether a reset
// happened.
func (s *State) ResetWeeklyIfDue(now time.Time) bool {
	if biztime.SameWeek(s.lastWeeklyReset, now) {
		return false
	}
	s.weeklyClickRewards = 0
	s.lastWeeklyReset = now.UTC()
	s.touch()
	return true
}

// AddWeeklyClickReward grants one invite-click reward unless the weekly
// ceiling is reached. Returns whether the reward counted; clicks past the
// ceiling are recorded on the invite record only.
func (s *State) AddWeeklyClickReward(ceiling int) bool {
	if ceiling > 0 && s.weeklyClickRewards >= ceiling {
		return false
	}
	s.weeklyClickRewards++
	s.touch()
	return true
}

func (s *State) touch() {
	s.updatedAt = biztime.NowUTC()
	s.version++
}
