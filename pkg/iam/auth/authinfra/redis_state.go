package authinfra

import (
	"context"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/redis/go-redis/v9"
)

const statePrefix = "oauth:state:"

// RedisStateManager stores OAuth CSRF states in Redis so any instance can
// consume a state another instance issued.
type RedisStateManager struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateManager(client *redis.Client, ttl time.Duration) *RedisStateManager {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStateManager{
		client: client,
		ttl:    ttl,
	}
}

func (m *RedisStateManager) Store(ctx context.Context, state string, redirectURI string) error {
	if err := m.client.Set(ctx, statePrefix+state, redirectURI, m.ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to store oauth state", errx.TypeInternal)
	}
	return nil
}

func (m *RedisStateManager) Consume(ctx context.Context, state string) (string, error) {
	// GETDEL makes consumption atomic: double-submission of the same state
	// fails even across instances.
	redirectURI, err := m.client.GetDel(ctx, statePrefix+state).Result()
	if err == redis.Nil {
		return "", auth.ErrInvalidState()
	}
	if err != nil {
		return "", errx.Wrap(err, "failed to consume oauth state", errx.TypeInternal)
	}
	return redirectURI, nil
}
