package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic refill tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	limiter := NewLimiter(config)
	clock := newFakeClock()
	limiter.now = clock.Now
	return limiter, clock
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	// Should allow requests up to limit
	for i := 0; i < 10; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/podcasts", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", rateInfo.Limit)
		}
		if rateInfo.Remaining != 10-(i+1) {
			t.Errorf("Expected remaining %d, got %d", 10-(i+1), rateInfo.Remaining)
		}
	}

	// 11th request should be denied
	allowed, rateInfo := limiter.Allow("127.0.0.1", "/podcasts", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if rateInfo.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", rateInfo.Remaining)
	}
	if rateInfo.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}
	if !rateInfo.ResetTime.After(limiter.now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  60, // one token per second
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 60; i++ {
		limiter.Allow("127.0.0.1", "/podcasts", "GET")
	}
	if allowed, _ := limiter.Allow("127.0.0.1", "/podcasts", "GET"); allowed {
		t.Fatal("Expected bucket to be empty")
	}

	clock.Advance(time.Second)

	if allowed, _ := limiter.Allow("127.0.0.1", "/podcasts", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	if allowed, _ := limiter.Allow("127.0.0.1", "/podcasts", "GET"); allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/create_podcast", "POST")
		if !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 0 {
			t.Errorf("Expected limit 0 for whitelisted, got %d", rateInfo.Limit)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("192.168.1.1", "/podcasts", "GET"); allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/create_podcast", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
		if rateInfo.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", rateInfo.Limit)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	clientID := "127.0.0.1"

	// Pipeline runs allow a burst of 2
	for i := 0; i < 2; i++ {
		allowed, rateInfo := limiter.Allow(clientID, "/create_podcast", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", rateInfo.Limit)
		}
	}
	if allowed, _ := limiter.Allow(clientID, "/create_podcast", "POST"); allowed {
		t.Error("Expected 3rd run to be denied")
	}

	// The alias route has its own bucket
	if allowed, _ := limiter.Allow(clientID, "/create-podcast/", "POST"); !allowed {
		t.Error("Expected alias route to be allowed")
	}

	// Other endpoints use the default limit
	allowed, rateInfo := limiter.Allow(clientID, "/podcasts", "GET")
	if !allowed {
		t.Error("Expected listing to be allowed")
	}
	if rateInfo.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", rateInfo.Limit)
	}
}

func TestLimiter_PrefixPathsShareBucket(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    3,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	clientID := "127.0.0.1"

	// Varying the suffix under a prefix endpoint draws from one bucket
	var results []bool
	for i := 0; i < 4; i++ {
		allowed, _ := limiter.Allow(clientID, fmt.Sprintf("/create-podcast/x%d", i), "POST")
		results = append(results, allowed)
	}
	if want := []bool{true, true, false, false}; fmt.Sprint(results) != fmt.Sprint(want) {
		t.Errorf("Expected %v for suffixed alias paths, got %v", want, results)
	}
	if allowed, _ := limiter.Allow(clientID, "/create-podcast/", "POST"); allowed {
		t.Error("Expected the bare alias path to share the exhausted bucket")
	}

	// Paths without an endpoint config share the default bucket
	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow(clientID, fmt.Sprintf("/unknown/%d", i), "GET"); !allowed {
			t.Errorf("Expected unmatched request %d to be allowed", i+1)
		}
	}
	if allowed, _ := limiter.Allow(clientID, "/unknown/other", "GET"); allowed {
		t.Error("Expected unmatched paths to share the default bucket")
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET"); !allowed {
			t.Fatalf("Expected health check %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	// Make 200 concurrent requests (should only allow 100)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/podcasts", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/podcasts", "GET")
	}

	clock.Advance(idleTTL / 2)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/podcasts", "GET")
	}

	clock.Advance(idleTTL/2 + time.Minute)
	limiter.cleanupBuckets()

	limiter.mu.Lock()
	remaining := len(limiter.buckets)
	limiter.mu.Unlock()
	if remaining != 5 {
		t.Errorf("Expected 5 recently used buckets to survive cleanup, got %d", remaining)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, rateInfo := limiter.Allow("127.0.0.1", "/podcasts", "GET")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if rateInfo.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", rateInfo.Limit)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
	}{
		{"/create_podcast", "POST", "/create_podcast"},
		{"/create_podcast/stream", "POST", "/create_podcast/stream"},
		{"/create-podcast/", "POST", "/create-podcast/"},
		{"/podcasts/abc/script.md", "GET", "/podcasts/"},
		{"/podcasts", "GET", ""},
		{"/create_podcast", "GET", ""},
	}

	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if tt.wantPath == "" {
			if got != nil {
				t.Errorf("%s %s: expected no match, got %s", tt.method, tt.path, got.Path)
			}
			continue
		}
		if got == nil || got.Path != tt.wantPath {
			t.Errorf("%s %s: expected %s, got %v", tt.method, tt.path, tt.wantPath, got)
		}
	}

	if health := MatchEndpoint("/health", "GET", configs); health == nil || health.Limit != 0 {
		t.Error("Expected /health to match as unlimited")
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT":    "50",
		"RATE_LIMIT_DEFAULT_WINDOW":   "30s",
		"RATE_LIMIT_WHITELIST":        "10.0.0.1, 10.0.0.2",
		"RATE_LIMIT_BLACKLIST":        "",
		"RATE_LIMIT_CLEANUP_INTERVAL": "bogus",
	}
	cfg := LoadConfig(func(key string) string { return env[key] })

	if !cfg.Enabled {
		t.Fatal("Expected rate limiting to be enabled by default")
	}
	if cfg.DefaultLimit != 50 {
		t.Errorf("Expected default limit 50, got %d", cfg.DefaultLimit)
	}
	if cfg.DefaultWindow != 30*time.Second {
		t.Errorf("Expected window 30s, got %v", cfg.DefaultWindow)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("Expected malformed cleanup interval to fall back to 5m, got %v", cfg.CleanupInterval)
	}
	if !cfg.Whitelist["10.0.0.1"] || !cfg.Whitelist["10.0.0.2"] || len(cfg.Whitelist) != 2 {
		t.Errorf("Unexpected whitelist: %v", cfg.Whitelist)
	}
	if len(cfg.EndpointConfigs) == 0 {
		t.Error("Expected endpoint configs")
	}

	disabled := LoadConfig(func(key string) string {
		if key == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	if disabled.Enabled {
		t.Error("Expected RATE_LIMIT_ENABLED=false to disable limiting")
	}
}
