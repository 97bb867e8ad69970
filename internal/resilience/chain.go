package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrExhausted is returned when every backend in a [Chain] fails or has an
// open breaker.
var ErrExhausted = errors.New("resilience: all backends failed")

// chainEntry pairs a backend with its dedicated breaker.
type chainEntry[T any] struct {
	name    string
	backend T
	breaker *Breaker
}

// Chain composes a primary and zero or more fallback backends of the same
// provider type. Each backend gets its own breaker; on failure (or an open
// breaker) the next healthy backend is tried in registration order.
//
// Chain is safe for concurrent use after all Add calls are done.
type Chain[T any] struct {
	entries    []chainEntry[T]
	breakerCfg BreakerConfig
}

// NewChain creates a [Chain] with primary as the first backend. breakerCfg is
// the per-backend breaker template; its Name field is overridden per entry.
func NewChain[T any](primaryName string, primary T, breakerCfg BreakerConfig) *Chain[T] {
	c := &Chain[T]{breakerCfg: breakerCfg}
	c.Add(primaryName, primary)
	return c
}

// Add appends a fallback backend. Backends are tried in the order added.
func (c *Chain[T]) Add(name string, backend T) {
	cfg := c.breakerCfg
	cfg.Name = name
	c.entries = append(c.entries, chainEntry[T]{
		name:    name,
		backend: backend,
		breaker: NewBreaker(cfg),
	})
}

// Try runs fn against each backend in order until one succeeds. Open-breaker
// backends are skipped. Returns [ErrExhausted] wrapping the last error when
// every backend fails.
func (c *Chain[T]) Try(fn func(name string, backend T) error) error {
	var lastErr error
	for i := range c.entries {
		e := &c.entries[i]
		err := e.breaker.Do(func() error {
			return fn(e.name, e.backend)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping backend, breaker open", "backend", e.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", e.name, "error", err)
		}
	}
	return fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// TryResult runs fn against each backend in the chain until one succeeds,
// returning the result. Package-level because Go does not support
// method-level type parameters.
func TryResult[T any, R any](c *Chain[T], fn func(name string, backend T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range c.entries {
		e := &c.entries[i]
		var result R
		err := e.breaker.Do(func() error {
			var innerErr error
			result, innerErr = fn(e.name, e.backend)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping backend, breaker open", "backend", e.name)
		} else {
			slog.Warn("backend failed, trying next", "backend", e.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}
