package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds polling configuration.
type Config struct {
	Timeout      time.Duration
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for polling configuration.
type Option func(*Config)

// Until calls operation until it returns nil, the timeout elapses or ctx is
// cancelled. Errors wrapped with Fatal stop polling immediately. The last
// operation error is wrapped into the returned error.
func Until(ctx context.Context, operation func(context.Context) error, opts ...Option) error {
	cfg := &Config{
		Timeout:      time.Minute,
		InitialDelay: time.Second,
		MaxDelay:     15 * time.Second,
		Multiplier:   2.0,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	deadline := time.Now().Add(cfg.Timeout)
	delay := cfg.InitialDelay
	attempts := 0

	for {
		attempts++
		err := operation(ctx)
		if err == nil {
			return nil
		}
		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("gave up after %d attempts in %s: %w", attempts, cfg.Timeout, err)
		}
		wait := min(delay, remaining)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled after %d attempts: %w", attempts, errors.Join(ctx.Err(), err))
		case <-time.After(wait):
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}
}

// WithTimeout bounds the total polling time. A zero timeout makes a single attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithInitialDelay sets the delay after the first failed attempt.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		c.Multiplier = m
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
