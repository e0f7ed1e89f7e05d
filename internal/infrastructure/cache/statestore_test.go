package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateStore(t *testing.T) (*RedisStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStateStore(client, "session:state:", 10*time.Minute), mr
}

func TestRedisStateStore_SetAndVerify(t *testing.T) {
	store, _ := newTestStateStore(t)
	ctx := context.Background()

	in := FlowState{
		CodeVerifier:   "verifier-123",
		Purpose:        "login",
		RedirectTarget: "/library",
		AnonymousID:    "anon_abc",
	}
	require.NoError(t, store.Set(ctx, "state-1", in))

	out, err := store.VerifyAndGet(ctx, "state-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier-123", out.CodeVerifier)
	assert.Equal(t, "login", out.Purpose)
	assert.Equal(t, "/library", out.RedirectTarget)
	assert.Equal(t, "anon_abc", out.AnonymousID)
	assert.False(t, out.CreatedAt.IsZero())
}

func TestRedisStateStore_StateIsOneTimeUse(t *testing.T) {
	store, _ := newTestStateStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "state-1", FlowState{CodeVerifier: "v"}))

	_, err := store.VerifyAndGet(ctx, "state-1")
	require.NoError(t, err)

	_, err = store.VerifyAndGet(ctx, "state-1")
	assert.ErrorContains(t, err, "state not found or expired")
}

func TestRedisStateStore_UnknownState(t *testing.T) {
	store, _ := newTestStateStore(t)

	_, err := store.VerifyAndGet(context.Background(), "never-set")
	assert.ErrorContains(t, err, "state not found or expired")
}

func TestRedisStateStore_StateExpires(t *testing.T) {
	store, mr := newTestStateStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "state-1", FlowState{CodeVerifier: "v"}))

	mr.FastForward(11 * time.Minute)

	_, err := store.VerifyAndGet(ctx, "state-1")
	assert.ErrorContains(t, err, "state not found or expired")
}

func TestRedisStateStore_EmptyInputs(t *testing.T) {
	store, _ := newTestStateStore(t)
	ctx := context.Background()

	assert.Error(t, store.Set(ctx, "", FlowState{CodeVerifier: "v"}))
	assert.Error(t, store.Set(ctx, "state-1", FlowState{}))

	_, err := store.VerifyAndGet(ctx, "")
	assert.Error(t, err)
}

func TestRedisStateStore_MarkCodeConsumed(t *testing.T) {
	store, _ := newTestStateStore(t)
	ctx := context.Background()

	first, err := store.MarkCodeConsumed(ctx, "code-abc")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkCodeConsumed(ctx, "code-abc")
	require.NoError(t, err)
	assert.False(t, second, "replayed code should be detected")

	other, err := store.MarkCodeConsumed(ctx, "code-def")
	require.NoError(t, err)
	assert.True(t, other)
}
