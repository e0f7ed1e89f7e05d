package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"adapta/internal/shared/biztime"
)

// FlowState carries the per-attempt login context between the authorize
// redirect and the provider callback.
type FlowState struct {
	CodeVerifier   string    `json:"code_verifier"`
	Purpose        string    `json:"purpose"`
	RedirectTarget string    `json:"redirect_target,omitempty"`
	AnonymousID    string    `json:"anonymous_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RedisStateStore holds in-flight login state in Redis. State keys are
// one-time use: VerifyAndGet consumes the key atomically so a replayed
// callback never resolves the same state twice.
type RedisStateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStateStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStateStore {
	return &RedisStateStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Set stores the flow state under the opaque state token with TTL.
func (s *RedisStateStore) Set(ctx context.Context, state string, info FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if info.CodeVerifier == "" {
		return errors.New("code_verifier cannot be empty")
	}

	info.CreatedAt = biztime.NowUTC()

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal flow state: %w", err)
	}

	key := s.buildKey(state)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store state in redis: %w", err)
	}

	return nil
}

// VerifyAndGet consumes the state token and returns its flow state.
// GETDEL makes the read-and-delete atomic, so the second presentation of
// the same state finds nothing.
func (s *RedisStateStore) VerifyAndGet(ctx context.Context, state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	key := s.buildKey(state)

	data, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("state not found or expired")
		}
		return nil, fmt.Errorf("failed to retrieve state from redis: %w", err)
	}

	var info FlowState
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow state: %w", err)
	}

	return &info, nil
}

// MarkCodeConsumed records an authorization code as used. It returns false
// when the code was already recorded, which marks a replayed callback.
func (s *RedisStateStore) MarkCodeConsumed(ctx context.Context, code string) (bool, error) {
	if code == "" {
		return false, errors.New("code cannot be empty")
	}

	key := s.prefix + "code:" + code
	first, err := s.client.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark code consumed: %w", err)
	}

	return first, nil
}

func (s *RedisStateStore) buildKey(state string) string {
	return s.prefix + state
}
