package entitlement

import (
	"context"
	"fmt"
	"time"

	"adapta/internal/domain/entitlement"
	"adapta/internal/domain/identity"
	"adapta/internal/shared/biztime"
	"adapta/internal/shared/config"
	"adapta/internal/shared/logger"
)

// Tracker maintains the per-identity consumable counters: monthly
// adaptation usage, weekly-capped invite click rewards and invite
// attribution. Increment goes through the repository's atomic update so a
// double-click never loses a count; everything else is read-modify-write
// guarded by the aggregate's version.
type Tracker struct {
	states  entitlement.Repository
	invites identity.InviteRecordRepository
	cfg     config.EntitlementConfig
	logger  logger.Interface
}

func NewTracker(
	states entitlement.Repository,
	invites identity.InviteRecordRepository,
	cfg config.EntitlementConfig,
	log logger.Interface,
) *Tracker {
	return &Tracker{
		states:  states,
		invites: invites,
		cfg:     cfg,
		logger:  log,
	}
}

// Remaining returns the quota left this month. Unlimited states report
// zero remaining with unlimited true.
func (t *Tracker) Remaining(ctx context.Context, identityID string) (remaining int, unlimited bool, err error) {
	state, err := t.loadState(ctx, identityID)
	if err != nil {
		return 0, false, err
	}
	return state.Remaining(), state.Unlimited(), nil
}

// IncrementAdaptationUsage bumps the usage counter by one, unconditionally.
// Quota checks happen before the call via Remaining.
func (t *Tracker) IncrementAdaptationUsage(ctx context.Context, identityID string) (*entitlement.State, error) {
	state, err := t.states.IncrementUsage(ctx, identityID)
	if err != nil {
		return nil, err
	}
	t.logger.Debugw("adaptation usage incremented",
		"identity_id", identityID,
		"used", state.AdaptationUsed(),
	)
	return state, nil
}

// GrantAdaptationUsage raises the monthly limit by amount. It never
// touches the used counter.
func (t *Tracker) GrantAdaptationUsage(ctx context.Context, identityID string, amount int) (*entitlement.State, error) {
	state, err := t.loadState(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if err := state.Grant(amount); err != nil {
		return nil, err
	}
	if err := t.states.Save(ctx, state); err != nil {
		return nil, err
	}

	t.logger.Infow("adaptation quota granted",
		"identity_id", identityID,
		"amount", amount,
		"limit", state.AdaptationLimit(),
	)
	return state, nil
}

// ResetMonthlyIfDue zeroes the usage counter when the stored reset
// timestamp is in a different calendar month than now. Safe to call
// redundantly; within the same month it is a no-op.
func (t *Tracker) ResetMonthlyIfDue(ctx context.Context, identityID string, now time.Time) (*entitlement.State, error) {
	state, err := t.loadState(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if !state.ResetMonthlyIfDue(now) {
		return state, nil
	}
	if err := t.states.Save(ctx, state); err != nil {
		return nil, err
	}

	t.logger.Infow("monthly usage reset", "identity_id", identityID)
	return state, nil
}

// ResetWeeklyIfDue zeroes the weekly click-reward counter when now falls
// in a different business week than the stored reset timestamp.
func (t *Tracker) ResetWeeklyIfDue(ctx context.Context, identityID string, now time.Time) (*entitlement.State, error) {
	state, err := t.loadState(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if !state.ResetWeeklyIfDue(now) {
		return state, nil
	}
	if err := t.states.Save(ctx, state); err != nil {
		return nil, err
	}

	t.logger.Infow("weekly click rewards reset", "identity_id", identityID)
	return state, nil
}

// AddInviteClickReward records a click on the invite code. The click always
// counts for attribution; quota is granted to the code's owner only while
// the weekly reward ceiling has room.
func (t *Tracker) AddInviteClickReward(ctx context.Context, code string) error {
	record, err := t.invites.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("unknown invite code: %s", code)
	}

	record.RecordClick()
	if err := t.invites.Update(ctx, record); err != nil {
		return err
	}

	state, err := t.loadState(ctx, record.OwnerID())
	if err != nil {
		return err
	}

	state.ResetWeeklyIfDue(biztime.NowUTC())
	if !state.AddWeeklyClickReward(t.cfg.WeeklyClickRewardCap) {
		t.logger.Debugw("weekly click reward ceiling reached, click recorded only",
			"code", code,
			"owner_id", record.OwnerID(),
		)
		return t.states.Save(ctx, state)
	}

	if err := state.Grant(t.cfg.InviteClickReward); err != nil {
		return err
	}
	if err := t.states.Save(ctx, state); err != nil {
		return err
	}

	t.logger.Infow("invite click reward granted",
		"code", code,
		"owner_id", record.OwnerID(),
		"week_rewards", state.WeeklyClickRewards(),
	)
	return nil
}

// RegisterInviteSuccess attributes a referred user's first authenticated
// action to the code and grants the referrer the registration bonus.
func (t *Tracker) RegisterInviteSuccess(ctx context.Context, code string) error {
	record, err := t.invites.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("unknown invite code: %s", code)
	}

	record.RecordRegistration()
	if err := t.invites.Update(ctx, record); err != nil {
		return err
	}

	if _, err := t.GrantAdaptationUsage(ctx, record.OwnerID(), t.cfg.InviteRegistrationBonus); err != nil {
		return err
	}

	t.logger.Infow("invite registration attributed",
		"code", code,
		"owner_id", record.OwnerID(),
		"registrations", record.Registrations(),
	)
	return nil
}

// GenerateInviteCode mints a new invite code owned by the identity.
func (t *Tracker) GenerateInviteCode(ctx context.Context, ownerID string) (*identity.InviteRecord, error) {
	record, err := identity.NewInviteRecord(ownerID)
	if err != nil {
		return nil, err
	}
	if err := t.invites.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListInvites returns the invite records owned by the identity.
func (t *Tracker) ListInvites(ctx context.Context, ownerID string) ([]*identity.InviteRecord, error) {
	return t.invites.GetByOwnerID(ctx, ownerID)
}

// loadState fetches the state, creating a default one for identities that
// predate entitlement tracking.
func (t *Tracker) loadState(ctx context.Context, identityID string) (*entitlement.State, error) {
	state, err := t.states.GetByIdentityID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}

	state, err = entitlement.NewState(identityID, t.cfg.DefaultMonthlyLimit)
	if err != nil {
		return nil, err
	}
	if err := t.states.Create(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
