package core

import (
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/time/rate"
)

type LimitConfig struct {
	Limit int
	Every time.Duration
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

func WithRange(r time.Duration) LimitOption {
	return func(l *LimitConfig) {
		l.Every = r
	}
}

type Limiter interface {
	Allow() bool
}

// Limiters hands out one token bucket per key. A bucket keeps the settings it was created with.
type Limiters struct {
	buckets cmap.ConcurrentMap[string, *rate.Limiter]
	limit   int
}

func NewLimiters(perMinute int) *Limiters {
	return &Limiters{
		buckets: cmap.New[*rate.Limiter](),
		limit:   perMinute,
	}
}

// Use returns the limiter of key, Limit events per Every with a burst of twice the limit.
func (l *Limiters) Use(key string, opts ...LimitOption) Limiter {
	cfg := &LimitConfig{
		Limit: l.limit,
		Every: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Limit <= 0 {
		return unlimited{}
	}

	return l.buckets.Upsert(key, nil, func(exist bool, current, _ *rate.Limiter) *rate.Limiter {
		if exist {
			return current
		}
		return rate.NewLimiter(rate.Every(cfg.Every/time.Duration(cfg.Limit)), cfg.Limit*2)
	})
}

type unlimited struct{}

func (unlimited) Allow() bool {
	return true
}
