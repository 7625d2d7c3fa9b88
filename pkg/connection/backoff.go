package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Exponential backoff constants.
const (
	// InitialBackoff is the first delay of the exponential strategy.
	InitialBackoff = 1 * time.Second

	// MaxBackoff is the maximum delay of the exponential strategy.
	MaxBackoff = 60 * time.Second

	// BackoffMultiplier is the factor by which backoff increases.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of base delay.
	JitterFactor = 0.25
)

// BackoffConfig allows customizing backoff parameters.
// The zero value disables backoff: every delay is zero.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// ImmediateBackoff returns the configuration that reconnects without delay.
func ImmediateBackoff() BackoffConfig {
	return BackoffConfig{}
}

// ExponentialBackoff returns the capped exponential configuration
// (1s doubling to 60s, 25% jitter).
func ExponentialBackoff() BackoffConfig {
	return BackoffConfig{
		Initial:    InitialBackoff,
		Max:        MaxBackoff,
		Multiplier: BackoffMultiplier,
		Jitter:     JitterFactor,
	}
}

// Enabled reports whether the configuration produces non-zero delays.
func (c BackoffConfig) Enabled() bool {
	return c.Initial > 0
}

// Backoff calculates backoff delays with jitter.
type Backoff struct {
	mu sync.Mutex

	// Current backoff delay (before jitter)
	current time.Duration

	// Configuration
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64

	// Attempt counter
	attempts int

	// Random source for jitter
	rng *rand.Rand
}

// NewBackoff creates a backoff calculator.
// Missing fields of an enabled configuration take the exponential defaults.
func NewBackoff(cfg BackoffConfig) *Backoff {
	if cfg.Enabled() {
		if cfg.Max < cfg.Initial {
			cfg.Max = MaxBackoff
			if cfg.Max < cfg.Initial {
				cfg.Max = cfg.Initial
			}
		}
		if cfg.Multiplier <= 1 {
			cfg.Multiplier = BackoffMultiplier
		}
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}

	return &Backoff{
		current:    cfg.Initial,
		initial:    cfg.Initial,
		max:        cfg.Max,
		multiplier: cfg.Multiplier,
		jitter:     cfg.Jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next backoff delay (with jitter) and advances the backoff.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempts++
	if b.initial <= 0 {
		return 0
	}

	delay := b.addJitter(b.current)

	next := time.Duration(float64(b.current) * b.multiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return delay
}

// Peek returns the current backoff delay without advancing.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addJitter(b.current)
}

// Reset resets the backoff to initial values.
// Call this after a session reached Active.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts returns the number of backoff attempts since last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the current base backoff (without jitter).
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// addJitter adds random jitter to a delay.
func (b *Backoff) addJitter(d time.Duration) time.Duration {
	if b.jitter <= 0 || d <= 0 {
		return d
	}
	jitterAmount := time.Duration(float64(d) * b.jitter * b.rng.Float64())
	return d + jitterAmount
}
