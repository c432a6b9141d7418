package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(cfg *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg.CleanupInterval = 0
	l := NewLimiter(cfg)
	l.now = clock.now
	return l, clock
}

func TestTokenBucket_Take(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(3, 1.0, now)

	for i := range 3 {
		allowed, remaining, _ := b.take(now)
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}
	allowed, _, full := b.take(now)
	assert.False(t, allowed)
	assert.Equal(t, now.Add(3*time.Second), full)

	allowed, _, _ = b.take(now.Add(time.Second))
	assert.True(t, allowed, "one token refilled after a second")
}

func TestLimiter_LoginTier(t *testing.T) {
	l, clock := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(10),
	})

	for i := range 5 {
		allowed, info := l.Allow("10.0.0.1", "/", "POST")
		require.True(t, allowed, "attempt %d", i+1)
		assert.Equal(t, 10, info.Limit)
	}

	allowed, info := l.Allow("10.0.0.1", "/", "POST")
	assert.False(t, allowed, "burst of 5 exhausted")
	assert.Equal(t, 6*time.Second, info.RetryAfter)

	// The login page itself uses the default tier.
	allowed, info = l.Allow("10.0.0.1", "/", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 100, info.Limit)

	// Another client is unaffected.
	allowed, _ = l.Allow("10.0.0.2", "/", "POST")
	assert.True(t, allowed)

	clock.advance(6 * time.Second)
	allowed, _ = l.Allow("10.0.0.1", "/", "POST")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Whitelist:     map[string]bool{"10.0.0.9": true},
		Blacklist:     map[string]bool{"10.0.0.6": true},
	})

	for range 5 {
		allowed, _ := l.Allow("10.0.0.9", "/admin/dashboard/egresados", "GET")
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow("10.0.0.6", "/admin/dashboard/egresados", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: false})
	for range 100 {
		allowed, info := l.Allow("10.0.0.1", "/", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_UnlimitedEndpoints(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	for range 10 {
		allowed, _ := l.Allow("10.0.0.1", "/health", "GET")
		assert.True(t, allowed)
		allowed, _ = l.Allow("10.0.0.1", "/metrics", "GET")
		assert.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 50, DefaultWindow: time.Hour})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("10.0.0.1", "/admin/dashboard/forms", "GET"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowedCount)
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	l, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})

	for i := range 3 {
		l.Allow(fmt.Sprintf("10.0.0.%d", i), "/", "GET")
	}
	clock.advance(2 * time.Hour)
	l.Allow("10.0.0.99", "/", "GET")

	l.cleanupBuckets(clock.now().Add(-time.Hour))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "10.0.0.99:/:GET")
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs(10)

	tests := []struct {
		path, method string
		wantPath     string
		wantNil      bool
	}{
		{"/", "POST", "/", false},
		{"/", "GET", "", true},
		{"/admin/dashboard/egresados/all/approve", "POST", "/admin/dashboard/egresados/", false},
		{"/admin/dashboard/forms/F1/export", "GET", "/admin/dashboard/forms/", false},
		{"/admin/dashboard/forms", "GET", "", true},
		{"/logout", "POST", "", true},
		{"/health", "GET", "/health", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_LOGIN_LIMIT", "4")
	t.Setenv("RATE_LIMIT_WHITELIST", " 127.0.0.1 , ,10.0.0.1")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"127.0.0.1": true, "10.0.0.1": true}, cfg.Whitelist)
	assert.Equal(t, 4, MatchEndpoint("/", "POST", cfg.EndpointConfigs).Limit)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
