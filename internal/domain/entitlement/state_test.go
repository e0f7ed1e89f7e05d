package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, limit int) *State {
	t.Helper()
	s, err := NewState("anon_test123", limit)
	require.NoError(t, err)
	return s
}

func TestNewState_Validation(t *testing.T) {
	_, err := NewState("", 20)
	assert.Error(t, err)

	_, err = NewState("anon_abc", -1)
	assert.Error(t, err)

	s, err := NewState("anon_abc", 0)
	require.NoError(t, err)
	assert.True(t, s.Unlimited())
}

func TestState_Remaining(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		used      int
		remaining int
		unlimited bool
	}{
		{"fresh state", 20, 0, 20, false},
		{"partially used", 20, 7, 13, false},
		{"exactly exhausted", 20, 20, 0, false},
		{"used beyond limit clamps to zero", 20, 25, 0, false},
		{"unlimited reports zero remaining", 0, 100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now().UTC()
			s, err := ReconstructState("anon_x", tt.used, tt.limit, 0, now, now, now, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.remaining, s.Remaining())
			assert.Equal(t, tt.unlimited, s.Unlimited())
		})
	}
}

func TestState_IncrementUsage(t *testing.T) {
	s := newTestState(t, 5)
	v := s.Version()

	s.IncrementUsage()
	s.IncrementUsage()

	assert.Equal(t, 2, s.AdaptationUsed())
	assert.Equal(t, 3, s.Remaining())
	assert.Equal(t, v+2, s.Version())
}

func TestState_Grant(t *testing.T) {
	s := newTestState(t, 10)

	require.NoError(t, s.Grant(5))
	assert.Equal(t, 15, s.AdaptationLimit())

	assert.Error(t, s.Grant(0))
	assert.Error(t, s.Grant(-3))
}

func TestState_Grant_UnlimitedIsNoop(t *testing.T) {
	s := newTestState(t, UnlimitedLimit)

	require.NoError(t, s.Grant(5))
	assert.True(t, s.Unlimited())
	assert.Equal(t, UnlimitedLimit, s.AdaptationLimit())
}

func TestState_ResetMonthlyIfDue(t *testing.T) {
	lastReset := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	s, err := ReconstructState("anon_x", 18, 20, 0, lastReset, lastReset, lastReset, 3)
	require.NoError(t, err)

	// Same calendar month is a no-op even weeks apart.
	assert.False(t, s.ResetMonthlyIfDue(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 18, s.AdaptationUsed())

	// Crossing the month boundary by an hour triggers the reset.
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, s.ResetMonthlyIfDue(now))
	assert.Equal(t, 0, s.AdaptationUsed())
	assert.Equal(t, now, s.LastMonthlyReset())

	// Redundant call within the new month does nothing.
	assert.False(t, s.ResetMonthlyIfDue(now.Add(24*time.Hour)))
}

func TestState_ResetMonthlyIfDue_PreservesLimit(t *testing.T) {
	lastReset := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	s, err := ReconstructState("anon_x", 20, 35, 2, lastReset, lastReset, lastReset, 1)
	require.NoError(t, err)

	assert.True(t, s.ResetMonthlyIfDue(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 35, s.AdaptationLimit())
	assert.Equal(t, 2, s.WeeklyClickRewards())
}

func TestState_ResetWeeklyIfDue(t *testing.T) {
	// 2026-08-26 is a Wednesday; the following Monday starts a new week.
	lastReset := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	s, err := ReconstructState("anon_x", 0, 20, 4, lastReset, lastReset, lastReset, 1)
	require.NoError(t, err)

	assert.False(t, s.ResetWeeklyIfDue(time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, s.WeeklyClickRewards())

	assert.True(t, s.ResetWeeklyIfDue(time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, s.WeeklyClickRewards())
}

func TestState_AddWeeklyClickReward(t *testing.T) {
	s := newTestState(t, 20)

	for i := 0; i < 5; i++ {
		assert.True(t, s.AddWeeklyClickReward(5))
	}
	assert.Equal(t, 5, s.WeeklyClickRewards())

	// Ceiling reached: further clicks do not count toward rewards.
	assert.False(t, s.AddWeeklyClickReward(5))
	assert.Equal(t, 5, s.WeeklyClickRewards())
}

func TestState_AddWeeklyClickReward_ZeroCeilingMeansNoCap(t *testing.T) {
	s := newTestState(t, 20)

	for i := 0; i < 50; i++ {
		assert.True(t, s.AddWeeklyClickReward(0))
	}
	assert.Equal(t, 50, s.WeeklyClickRewards())
}

func TestState_AdoptForIdentity(t *testing.T) {
	lastReset := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s, err := ReconstructState("anon_visitor", 12, 25, 3, lastReset, lastReset, lastReset, 7)
	require.NoError(t, err)

	adopted, err := s.AdoptForIdentity("auth0|user42")
	require.NoError(t, err)

	assert.Equal(t, "auth0|user42", adopted.IdentityID())
	assert.Equal(t, 12, adopted.AdaptationUsed())
	assert.Equal(t, 25, adopted.AdaptationLimit())
	assert.Equal(t, 3, adopted.WeeklyClickRewards())
	assert.Equal(t, lastReset, adopted.LastMonthlyReset())
	assert.Equal(t, 1, adopted.Version())

	_, err = s.AdoptForIdentity("")
	assert.Error(t, err)
}
