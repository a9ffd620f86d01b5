package circuitbreaker

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrFailureRateThreshold is returned when FailureRateThreshold is not
	// in (0, 1].
	ErrFailureRateThreshold = errors.New("failure rate threshold must be in (0, 1]")
	// ErrCircuitOpenWindow is returned when CircuitOpenWindow is not
	// positive.
	ErrCircuitOpenWindow = errors.New("circuit open window must be > 0")
	// ErrTrialRequestInterval is returned when TrialRequestInterval is not
	// positive.
	ErrTrialRequestInterval = errors.New("trial request interval must be > 0")
	// ErrCounterSlidingWindow is returned when CounterSlidingWindow is not
	// positive.
	ErrCounterSlidingWindow = errors.New("counter sliding window must be > 0")
	// ErrCounterUpdateInterval is returned when CounterUpdateInterval is
	// not in (0, CounterSlidingWindow].
	ErrCounterUpdateInterval = errors.New("counter update interval must be in (0, counter sliding window]")
)

// ExceptionFilter classifies a failure cause. It returns true when the
// cause should count towards the failure rate. A filter that panics is
// treated as if it had returned false.
type ExceptionFilter func(cause error) bool

func acceptAll(error) bool { return true }

// Config is the immutable parameter bundle consumed by a CircuitBreaker.
// Build one with NewConfig, which validates eagerly, or validate a literal
// with Validate before passing it to New.
type Config struct {
	// Name identifies the breaker in its log lines. Empty means an
	// auto-generated name of the form "circuit-breaker-<n>".
	Name string

	// FailureRateThreshold is the failure rate that must be exceeded,
	// strictly, for the breaker to trip. Must be in (0, 1].
	FailureRateThreshold float64

	// MinimumRequestThreshold is the minimum number of observed requests
	// before the failure rate is considered meaningful.
	MinimumRequestThreshold uint64

	// CircuitOpenWindow is how long the breaker stays OPEN before
	// granting a trial request. Must be > 0.
	CircuitOpenWindow time.Duration

	// TrialRequestInterval is how long a HALF_OPEN trial grant is valid
	// for before another trial is granted. Must be > 0.
	TrialRequestInterval time.Duration

	// CounterSlidingWindow is the total width of the CLOSED-state failure
	// counter. Must be > 0.
	CounterSlidingWindow time.Duration

	// CounterUpdateInterval is the bucket width the sliding window counter
	// rotates on. Must be in (0, CounterSlidingWindow].
	CounterUpdateInterval time.Duration

	// ExceptionFilter classifies failure causes passed to
	// CircuitBreaker.OnFailureCause. Defaults to accepting every cause.
	ExceptionFilter ExceptionFilter
}

// Option configures a Config built by NewConfig.
type Option func(*Config)

// WithName sets the breaker's name.
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithFailureRateThreshold sets FailureRateThreshold.
func WithFailureRateThreshold(rate float64) Option {
	return func(c *Config) { c.FailureRateThreshold = rate }
}

// WithMinimumRequestThreshold sets MinimumRequestThreshold.
func WithMinimumRequestThreshold(n uint64) Option {
	return func(c *Config) { c.MinimumRequestThreshold = n }
}

// WithCircuitOpenWindow sets CircuitOpenWindow.
func WithCircuitOpenWindow(d time.Duration) Option {
	return func(c *Config) { c.CircuitOpenWindow = d }
}

// WithTrialRequestInterval sets TrialRequestInterval.
func WithTrialRequestInterval(d time.Duration) Option {
	return func(c *Config) { c.TrialRequestInterval = d }
}

// WithCounterSlidingWindow sets CounterSlidingWindow.
func WithCounterSlidingWindow(d time.Duration) Option {
	return func(c *Config) { c.CounterSlidingWindow = d }
}

// WithCounterUpdateInterval sets CounterUpdateInterval.
func WithCounterUpdateInterval(d time.Duration) Option {
	return func(c *Config) { c.CounterUpdateInterval = d }
}

// WithExceptionFilter sets ExceptionFilter.
func WithExceptionFilter(f ExceptionFilter) Option {
	return func(c *Config) { c.ExceptionFilter = f }
}

// defaultConfig returns the baseline Config that every NewConfig call
// starts from before applying options.
func defaultConfig() Config {
	return Config{
		FailureRateThreshold:    0.5,
		MinimumRequestThreshold: 10,
		CircuitOpenWindow:       30 * time.Second,
		TrialRequestInterval:    10 * time.Second,
		CounterSlidingWindow:    time.Minute,
		CounterUpdateInterval:   time.Second,
		ExceptionFilter:         acceptAll,
	}
}

// NewConfig builds and validates a Config from the given options.
func NewConfig(opts ...Option) (Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.ExceptionFilter == nil {
		cfg.ExceptionFilter = acceptAll
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that every field of cfg is within its allowed range. It
// does not mutate cfg or apply defaults; call NewConfig for that.
func (cfg Config) Validate() error {
	switch {
	case cfg.FailureRateThreshold <= 0 || cfg.FailureRateThreshold > 1:
		return fmt.Errorf("%w: got %v", ErrFailureRateThreshold, cfg.FailureRateThreshold)
	case cfg.CircuitOpenWindow <= 0:
		return fmt.Errorf("%w: got %v", ErrCircuitOpenWindow, cfg.CircuitOpenWindow)
	case cfg.TrialRequestInterval <= 0:
		return fmt.Errorf("%w: got %v", ErrTrialRequestInterval, cfg.TrialRequestInterval)
	case cfg.CounterSlidingWindow <= 0:
		return fmt.Errorf("%w: got %v", ErrCounterSlidingWindow, cfg.CounterSlidingWindow)
	case cfg.CounterUpdateInterval <= 0 || cfg.CounterUpdateInterval > cfg.CounterSlidingWindow:
		return fmt.Errorf("%w: got %v", ErrCounterUpdateInterval, cfg.CounterUpdateInterval)
	default:
		return nil
	}
}
