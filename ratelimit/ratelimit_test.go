/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragamala/catalogstore/errors"
)

// manual clock for deterministic windows
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(max int, window time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(map[string]ClassConfig{
		ClassGeneral: {Max: max, WindowMS: window.Milliseconds()},
		ClassSearch:  {Max: max, WindowMS: window.Milliseconds()},
	}, WithClock(c.now))
	return l, c
}

func TestWindowAdmitsUpToMax(t *testing.T) {
	l, _ := newTestLimiter(3, time.Second)
	id := Identity{UserID: "user-1"}

	for i := 0; i < 3; i++ {
		res := l.Check(ClassGeneral, id)
		assert.True(t, res.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 3, res.Limit)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := l.Check(ClassGeneral, id)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestWindowSlides(t *testing.T) {
	l, c := newTestLimiter(2, time.Second)
	id := Identity{UserID: "user-1"}

	require.True(t, l.Check(ClassGeneral, id).Allowed)
	c.advance(600 * time.Millisecond)
	require.True(t, l.Check(ClassGeneral, id).Allowed)
	require.False(t, l.Check(ClassGeneral, id).Allowed)

	// The first request slides out of the window; one slot reopens.
	c.advance(500 * time.Millisecond)
	res := l.Check(ClassGeneral, id)
	assert.True(t, res.Allowed)

	// The second request is still inside the window.
	assert.False(t, l.Check(ClassGeneral, id).Allowed)
}

func TestDeniedAttemptsAreNotRecorded(t *testing.T) {
	l, c := newTestLimiter(1, time.Second)
	id := Identity{Addr: "203.0.113.9"}

	require.True(t, l.Check(ClassGeneral, id).Allowed)
	for i := 0; i < 10; i++ {
		require.False(t, l.Check(ClassGeneral, id).Allowed)
	}

	// Hammering while blocked must not extend the penalty.
	c.advance(time.Second + time.Millisecond)
	assert.True(t, l.Check(ClassGeneral, id).Allowed)
}

func TestPartialClassMapKeepsStockBudgets(t *testing.T) {
	c := &clock{t: time.Now()}
	l := New(map[string]ClassConfig{ClassSearch: {Max: 5, WindowMS: 1000}}, WithClock(c.now))
	id := Identity{UserID: "u1"}

	// Unconfigured classes run on their stock budget instead of a zero-Max
	// bucket that would deny (and previously panicked on) every request.
	res := l.Check(ClassWrite, id)
	assert.True(t, res.Allowed)
	assert.Equal(t, DefaultClasses()[ClassWrite].Max, res.Limit)

	for i := 0; i < DefaultClasses()[ClassWrite].Max-1; i++ {
		require.True(t, l.Check(ClassWrite, id).Allowed)
	}
	assert.False(t, l.Check(ClassWrite, id).Allowed)

	// The override itself still applies.
	for i := 0; i < 5; i++ {
		require.True(t, l.Check(ClassSearch, id).Allowed)
	}
	assert.False(t, l.Check(ClassSearch, id).Allowed)
}

func TestIdentityKeyPrecedence(t *testing.T) {
	assert.Equal(t, "user:u1", Identity{UserID: "u1", Addr: "10.0.0.1"}.Key())
	assert.Equal(t, "ip:10.0.0.1", Identity{Addr: "10.0.0.1"}.Key())
	assert.Equal(t, "anonymous", Identity{}.Key())
}

func TestSeparateCallersSeparateBudgets(t *testing.T) {
	l, _ := newTestLimiter(1, time.Second)

	require.True(t, l.Check(ClassGeneral, Identity{UserID: "u1"}).Allowed)
	require.False(t, l.Check(ClassGeneral, Identity{UserID: "u1"}).Allowed)
	assert.True(t, l.Check(ClassGeneral, Identity{UserID: "u2"}).Allowed)
}

func TestClassesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Second)
	id := Identity{UserID: "u1"}

	require.True(t, l.Check(ClassGeneral, id).Allowed)
	require.False(t, l.Check(ClassGeneral, id).Allowed)
	assert.True(t, l.Check(ClassSearch, id).Allowed)
}

func TestAnonymousSharesOneBucket(t *testing.T) {
	c := &clock{t: time.Now()}
	l := New(map[string]ClassConfig{
		ClassGeneral:   {Max: 100, WindowMS: 60_000},
		ClassAnonymous: {Max: 2, WindowMS: 60_000},
	}, WithClock(c.now))

	anon := Identity{}
	require.True(t, l.Check(ClassGeneral, anon).Allowed)
	require.True(t, l.Check(ClassGeneral, anon).Allowed)
	// Anonymous callers fall into the anonymous class budget, not general.
	assert.False(t, l.Check(ClassGeneral, anon).Allowed)
}

func TestTrustedCallersBypass(t *testing.T) {
	l, _ := newTestLimiter(1, time.Second)

	loopback := Identity{Addr: "127.0.0.1"}
	for i := 0; i < 5; i++ {
		res := l.Check(ClassGeneral, loopback)
		require.True(t, res.Allowed)
		assert.Equal(t, res.Limit, res.Remaining)
	}

	c := &clock{t: time.Now()}
	svc := New(map[string]ClassConfig{ClassGeneral: {Max: 1, WindowMS: 1000}},
		WithClock(c.now), WithTrusted("user:health-checker"))
	for i := 0; i < 5; i++ {
		require.True(t, svc.Check(ClassGeneral, Identity{UserID: "health-checker"}).Allowed)
	}
}

func TestGuardReturnsTypedError(t *testing.T) {
	l, _ := newTestLimiter(1, time.Second)
	id := Identity{UserID: "u1"}

	require.NoError(t, l.Guard(ClassGeneral, id))
	err := l.Guard(ClassGeneral, id)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))

	var rle *errors.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, ClassGeneral, rle.Class)
	assert.Equal(t, 1, rle.Limit)
	assert.Greater(t, rle.RetryAfter, time.Duration(0))
}

func TestSweepEvictsIdleBuckets(t *testing.T) {
	l, c := newTestLimiter(5, time.Second)

	l.Check(ClassGeneral, Identity{UserID: "u1"})
	l.Check(ClassGeneral, Identity{UserID: "u2"})
	l.Check(ClassSearch, Identity{UserID: "u1"})
	require.Equal(t, 3, l.Buckets())

	// Nothing idle yet.
	assert.Zero(t, l.Sweep(c.t))
	require.Equal(t, 3, l.Buckets())

	c.advance(2 * time.Second)
	l.Check(ClassGeneral, Identity{UserID: "u3"})
	assert.Equal(t, 3, l.Sweep(c.t))
	assert.Equal(t, 1, l.Buckets())
}

func TestIdentityContextRoundTrip(t *testing.T) {
	id := Identity{UserID: "u1", Addr: "10.0.0.1"}
	ctx := WithIdentity(context.Background(), id)
	assert.Equal(t, id, IdentityFrom(ctx))
	assert.Equal(t, Identity{}, IdentityFrom(context.Background()))
}

func TestResultHeaders(t *testing.T) {
	resetAt := time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC)
	h := Result{Allowed: true, Limit: 30, Remaining: 12, ResetAt: resetAt}.Headers()
	assert.Equal(t, "30", h["X-RateLimit-Limit"])
	assert.Equal(t, "12", h["X-RateLimit-Remaining"])
	assert.Equal(t, "1748779230", h["X-RateLimit-Reset"])
}
