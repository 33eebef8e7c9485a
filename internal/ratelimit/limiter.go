package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/baera-chatbot-go/internal/metrics"
)

// Drop reasons, also used as metric labels.
const (
	LimitBurst = "burst"
	LimitDaily = "daily"
)

// Config configures a Limiter.
type Config struct {
	// Burst is the number of requests a client may send at once.
	Burst float64
	// PerMinute is the sustained request rate per client.
	PerMinute float64
	// DailyLimit caps requests per client in a rolling 24h window (0 = none).
	DailyLimit int
	// CleanupPeriod is how often idle clients are forgotten.
	CleanupPeriod time.Duration

	Metrics *metrics.Metrics
}

// Enabled reports whether cfg limits anything.
func (c Config) Enabled() bool {
	return c.Burst > 0 && c.PerMinute > 0
}

// Decision is the outcome of Allow.
type Decision struct {
	Allowed bool
	// Limit names the exhausted limit when not allowed.
	Limit string
	// RetryAfter is the suggested wait when not allowed.
	RetryAfter time.Duration
}

// Limiter tracks request budgets per client key (session id or address).
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.RWMutex
	clients map[string]*client
	cfg     Config
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// client holds the per-key state. Its mutex makes the two checks and the
// consume step one atomic operation.
type client struct {
	mu     sync.Mutex
	bucket *bucket
	daily  *window
}

// New creates a Limiter and starts its cleanup loop. Call Stop to end it.
func New(cfg Config) *Limiter {
	l := newLimiter(cfg, time.Now)
	if cfg.CleanupPeriod > 0 {
		go l.cleanupLoop()
	}
	return l
}

func newLimiter(cfg Config, now func() time.Time) *Limiter {
	return &Limiter{
		clients: make(map[string]*client),
		cfg:     cfg,
		now:     now,
		stopCh:  make(chan struct{}),
	}
}

// Allow consumes one request from the budget of key. An empty key is
// always allowed.
func (l *Limiter) Allow(key string) Decision {
	if key == "" {
		return Decision{Allowed: true}
	}

	c := l.getOrCreate(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.daily.allows() {
		l.cfg.Metrics.RecordRateLimitDrop(LimitDaily)
		return Decision{Limit: LimitDaily, RetryAfter: time.Hour}
	}
	if wait := c.bucket.wait(); wait > 0 {
		l.cfg.Metrics.RecordRateLimitDrop(LimitBurst)
		return Decision{Limit: LimitBurst, RetryAfter: wait}
	}

	c.daily.add()
	c.bucket.take()
	return Decision{Allowed: true}
}

// DailyRemaining returns the daily quota left for key, or -1 when no daily
// limit is configured.
func (l *Limiter) DailyRemaining(key string) int {
	if l.cfg.DailyLimit <= 0 {
		return -1
	}
	l.mu.RLock()
	c, ok := l.clients[key]
	l.mu.RUnlock()
	if !ok {
		return l.cfg.DailyLimit
	}
	return c.daily.remaining()
}

// Clients returns the number of tracked clients.
func (l *Limiter) Clients() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

func (l *Limiter) getOrCreate(key string) *client {
	l.mu.RLock()
	c, ok := l.clients[key]
	l.mu.RUnlock()
	if ok {
		return c
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if c, ok = l.clients[key]; ok {
		return c
	}
	c = &client{
		bucket: newBucket(l.cfg.Burst, l.cfg.PerMinute/60, l.now),
		daily:  newWindow(l.cfg.DailyLimit, 24*time.Hour, l.now),
	}
	l.clients[key] = c
	l.cfg.Metrics.SetRateLimitClients(len(l.clients))
	return c
}

// cleanup forgets clients whose bucket is full and whose daily window is
// empty.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	for key, c := range l.clients {
		if c.bucket.full() && c.daily.idle() {
			delete(l.clients, key)
		}
	}
	n := len(l.clients)
	l.mu.Unlock()

	l.cfg.Metrics.SetRateLimitClients(n)
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// Stop ends the cleanup loop. Safe to call multiple times.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stopCh) })
}
