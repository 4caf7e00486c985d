package core

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/knowhive/knowhive/pkg/safe"
	"github.com/knowhive/knowhive/pkg/utils"
)

// Locker guards work that must run on one instance at a time.
// A lock is held until ctx ends or ttl passes, whichever comes first.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// SingleLock keeps locks in process memory.
type SingleLock struct {
	mu    sync.Mutex
	locks map[string]bool
}

func NewSingleLock() *SingleLock {
	return &SingleLock{
		locks: make(map[string]bool),
	}
}

func (s *SingleLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[key] {
		return false, nil
	}
	s.locks[key] = true

	go safe.Run(func() {
		timer := time.NewTimer(ttl)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.locks, key)
	})
	return true, nil
}

const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`

// RedisLock shares locks between instances through SET NX.
type RedisLock struct {
	redis  redis.UniversalClient
	prefix string
}

func NewRedisLock(cli redis.UniversalClient, prefix string) *RedisLock {
	return &RedisLock{redis: cli, prefix: prefix}
}

func (r *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	key = r.prefix + key
	token := utils.GenRandomID()
	ok, err := r.redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	go safe.Run(func() {
		<-ctx.Done()
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		r.redis.Eval(releaseCtx, releaseScript, []string{key}, token)
	})
	return true, nil
}
