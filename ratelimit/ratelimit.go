/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ragamala/catalogstore/errors"
)

// Request classes. Each class carries its own budget so a burst of searches
// cannot starve writes and vice versa.
const (
	ClassGeneral   = "general"
	ClassSearch    = "search"
	ClassWrite     = "write"
	ClassView      = "view"
	ClassAnonymous = "anonymous"
)

// ClassConfig is the budget of one request class: at most Max requests per
// sliding window of WindowMS milliseconds.
type ClassConfig struct {
	Max      int   `yaml:"max" json:"max"`
	WindowMS int64 `yaml:"windowMs" json:"windowMs"`
}

// Window returns the configured window as a duration.
func (c ClassConfig) Window() time.Duration {
	return time.Duration(c.WindowMS) * time.Millisecond
}

// DefaultClasses is the stock budget table.
func DefaultClasses() map[string]ClassConfig {
	return map[string]ClassConfig{
		ClassGeneral:   {Max: 100, WindowMS: 60_000},
		ClassSearch:    {Max: 30, WindowMS: 60_000},
		ClassWrite:     {Max: 20, WindowMS: 60_000},
		ClassView:      {Max: 200, WindowMS: 60_000},
		ClassAnonymous: {Max: 30, WindowMS: 60_000},
	}
}

// Identity names the caller for rate accounting. Authenticated callers are
// tracked per user id; unauthenticated callers per remote address; callers
// with neither share one anonymous bucket.
type Identity struct {
	UserID string
	Addr   string
	IsBot  bool
}

// Key is the accounting key, in precedence order user > address > anonymous.
func (i Identity) Key() string {
	switch {
	case i.UserID != "":
		return "user:" + i.UserID
	case i.Addr != "":
		return "ip:" + i.Addr
	default:
		return "anonymous"
	}
}

// Anonymous reports whether the caller carries no identity at all.
func (i Identity) Anonymous() bool {
	return i.UserID == "" && i.Addr == ""
}

type ctxKey struct{}

// WithIdentity attaches the caller identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom extracts the caller identity; the zero Identity (anonymous)
// is returned when none was attached.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// Result reports one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Headers projects the decision into the conventional response headers.
func (r Result) Headers() map[string]string {
	return map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(r.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(r.Remaining),
		"X-RateLimit-Reset":     strconv.FormatInt(r.ResetAt.Unix(), 10),
	}
}

// Limiter is an in-memory sliding-window rate limiter. Each (class, caller)
// bucket holds the timestamps of requests inside the current window; a
// request is admitted while the bucket holds fewer than Max entries.
//
// The limiter never starts goroutines; callers invoke Sweep periodically to
// drop idle buckets.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	classes map[string]ClassConfig
	trusted map[string]struct{}
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger used for sweep reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithTrusted marks extra identity keys (user:<id> or ip:<addr>) as exempt
// from limiting. Loopback addresses are always trusted.
func WithTrusted(keys ...string) Option {
	return func(l *Limiter) {
		for _, k := range keys {
			l.trusted[k] = struct{}{}
		}
	}
}

// New creates a limiter with the given class budgets. Classes absent from
// the map keep their stock budget, so a partial override never leaves a
// class with a zero Max.
func New(classes map[string]ClassConfig, opts ...Option) *Limiter {
	merged := DefaultClasses()
	for class, cfg := range classes {
		merged[class] = cfg
	}
	l := &Limiter{
		windows: make(map[string][]time.Time),
		classes: merged,
		trusted: map[string]struct{}{
			"ip:127.0.0.1": {},
			"ip:::1":       {},
		},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) resolve(class string, id Identity) (string, ClassConfig) {
	if id.Anonymous() {
		if cfg, ok := l.classes[ClassAnonymous]; ok {
			return ClassAnonymous, cfg
		}
	}
	if cfg, ok := l.classes[class]; ok {
		return class, cfg
	}
	return ClassGeneral, l.classes[ClassGeneral]
}

// Check records one request attempt and reports whether it is admitted.
// Denied attempts are not recorded, so a blocked caller recovers as soon as
// the window slides past its earlier requests.
func (l *Limiter) Check(class string, id Identity) Result {
	class, cfg := l.resolve(class, id)
	now := l.now()

	if _, ok := l.trusted[id.Key()]; ok {
		return Result{Allowed: true, Limit: cfg.Max, Remaining: cfg.Max, ResetAt: now}
	}

	bucket := class + "|" + id.Key()
	cutoff := now.Add(-cfg.Window())

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.windows[bucket]
	live := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}

	if len(live) >= cfg.Max {
		l.windows[bucket] = live
		resetAt := now.Add(cfg.Window())
		if len(live) > 0 {
			resetAt = live[0].Add(cfg.Window())
		}
		return Result{
			Limit:      cfg.Max,
			Remaining:  0,
			RetryAfter: resetAt.Sub(now),
			ResetAt:    resetAt,
		}
	}

	live = append(live, now)
	l.windows[bucket] = live
	return Result{
		Allowed:   true,
		Limit:     cfg.Max,
		Remaining: cfg.Max - len(live),
		ResetAt:   now.Add(cfg.Window()),
	}
}

// Guard is Check with an error surface; denied requests come back as a
// RateLimitError carrying the retry-after hint.
func (l *Limiter) Guard(class string, id Identity) error {
	res := l.Check(class, id)
	if res.Allowed {
		return nil
	}
	return errors.NewRateLimitError(class, res.Limit, res.RetryAfter)
}

// Sweep drops buckets whose every entry has slid out of its class window.
// Callers schedule it; the limiter itself never runs background work.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	swept := 0
	for bucket, window := range l.windows {
		class, _, _ := cut(bucket)
		cfg, ok := l.classes[class]
		if !ok {
			cfg = l.classes[ClassGeneral]
		}
		if len(window) == 0 || !window[len(window)-1].After(now.Add(-cfg.Window())) {
			delete(l.windows, bucket)
			swept++
		}
	}
	if swept > 0 {
		l.logger.Debug("swept idle rate-limit buckets",
			zap.Int("swept", swept),
			zap.Int("remaining", len(l.windows)))
	}
	return swept
}

// Buckets reports the number of live accounting buckets.
func (l *Limiter) Buckets() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func cut(bucket string) (class, key string, ok bool) {
	for i := 0; i < len(bucket); i++ {
		if bucket[i] == '|' {
			return bucket[:i], bucket[i+1:], true
		}
	}
	return bucket, "", false
}
