package engine

import (
	"sync"
	"time"
)

// Default admission limits, matching the provider's free-tier budget.
const (
	DefaultMaxRequests = 5
	DefaultWindow      = time.Minute
	DefaultMaxKeys     = 10000
)

// Verdict is the result of an admission check.
type Verdict struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// ControllerConfig configures an admission Controller. All fields are fixed
// for the controller's lifetime.
type ControllerConfig struct {
	// MaxRequests is the maximum number of admissions per key inside any
	// trailing Window interval.
	MaxRequests int
	// Window is the trailing interval over which admissions are counted.
	Window time.Duration
	// MaxKeys caps the number of distinct keys tracked at once. When the
	// cap is reached, idle keys are swept before a new key is created.
	MaxKeys int
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Controller bounds the rate of outbound provider calls per caller key using
// a sliding window of admission timestamps. It owns all window state: callers
// only ever see a Verdict. Safe for concurrent use; the purge-then-append
// sequence for a key is atomic under the controller mutex.
//
// Memory is bounded by MaxKeys * MaxRequests timestamps. Stale entries are
// purged lazily on access, never by a background sweep.
type Controller struct {
	maxRequests int
	window      time.Duration
	maxKeys     int
	clock       func() time.Time

	mu      sync.Mutex
	windows map[string]*keyWindow
}

// keyWindow holds admission timestamps for one key, oldest first.
type keyWindow struct {
	stamps []time.Time
}

// NewController creates a Controller with defaults applied.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = DefaultMaxKeys
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return &Controller{
		maxRequests: cfg.MaxRequests,
		window:      cfg.Window,
		maxKeys:     cfg.MaxKeys,
		clock:       clock,
		windows:     make(map[string]*keyWindow),
	}
}

// Check decides whether a call for key may proceed right now. On admission
// the current time is recorded against the key's window; on denial the
// verdict carries how long until the oldest admission ages out. A key with
// no prior admissions is always admitted.
func (c *Controller) Check(key string) Verdict {
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[key]
	if !ok {
		c.evictIdleLocked(now)
		w = &keyWindow{}
		c.windows[key] = w
	}

	w.purge(now.Add(-c.window))

	if len(w.stamps) < c.maxRequests {
		w.stamps = append(w.stamps, now)
		return Verdict{Allowed: true, Remaining: c.maxRequests - len(w.stamps)}
	}

	retryAfter := c.window - now.Sub(w.stamps[0])
	if retryAfter < 0 {
		retryAfter = 0
	}
	return Verdict{RetryAfter: retryAfter}
}

// Reset discards all recorded admissions for key.
func (c *Controller) Reset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.windows, key)
}

// Keys reports how many distinct keys are currently tracked.
func (c *Controller) Keys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}

// evictIdleLocked keeps the key map under maxKeys before a new key is added.
// Keys whose windows are fully aged out are dropped first; if every tracked
// key is still active, the one with the oldest most-recent admission goes.
func (c *Controller) evictIdleLocked(now time.Time) {
	if len(c.windows) < c.maxKeys {
		return
	}

	cutoff := now.Add(-c.window)
	for key, w := range c.windows {
		w.purge(cutoff)
		if len(w.stamps) == 0 {
			delete(c.windows, key)
		}
	}

	if len(c.windows) < c.maxKeys {
		return
	}

	var (
		victim string
		oldest time.Time
	)
	for key, w := range c.windows {
		last := w.stamps[len(w.stamps)-1]
		if victim == "" || last.Before(oldest) {
			victim = key
			oldest = last
		}
	}
	if victim != "" {
		delete(c.windows, victim)
	}
}

// purge drops every timestamp at or before cutoff. Stamps are appended in
// clock order, so the retained suffix stays sorted ascending.
func (w *keyWindow) purge(cutoff time.Time) {
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(w.stamps, w.stamps[i:])
	for j := n; j < len(w.stamps); j++ {
		w.stamps[j] = time.Time{}
	}
	w.stamps = w.stamps[:n]
}
