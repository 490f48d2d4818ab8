package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultJobLockTTL = 30 * time.Minute

// Lock guards a single job run across worker instances.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Locker hands out the lock for a named job.
type Locker interface {
	Lock(job string) Lock
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name, env string) string
}

// RedisLocker keys job locks by job name and deployment environment.
type RedisLocker struct {
	store lockStore
	env   string
	ttl   time.Duration
}

func NewRedisLocker(store lockStore, env string, ttl time.Duration) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis client required for job locks")
	}
	if env == "" {
		env = "local"
	}
	if ttl <= 0 {
		ttl = defaultJobLockTTL
	}
	return &RedisLocker{store: store, env: env, ttl: ttl}, nil
}

// Lock returns a fresh lock handle; handles are not shared between runs.
func (l *RedisLocker) Lock(job string) Lock {
	return &jobLock{
		store: l.store,
		key:   l.store.LockKey("cron:"+job, l.env),
		ttl:   l.ttl,
	}
}

type jobLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token string
}

func (j *jobLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := j.store.SetNX(ctx, j.key, token, j.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", j.key, err)
	}
	if ok {
		j.token = token
	}
	return ok, nil
}

// Release is a no-op when the key expired and another worker took it over.
func (j *jobLock) Release(ctx context.Context) error {
	if j.token == "" {
		return nil
	}
	holder, err := j.store.Get(ctx, j.key)
	switch {
	case errors.Is(err, redis.Nil):
		j.token = ""
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", j.key, err)
	case holder != j.token:
		j.token = ""
		return nil
	}
	if err := j.store.Del(ctx, j.key); err != nil {
		return fmt.Errorf("release %s: %w", j.key, err)
	}
	j.token = ""
	return nil
}
