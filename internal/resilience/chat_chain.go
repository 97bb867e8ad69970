package resilience

import (
	"context"

	"github.com/TheRemi120/runcoach/pkg/provider/chat"
)

// Completer composes multiple chat.Completer backends behind the same
// interface, so callers see one completer with automatic failover.
type Completer struct {
	chain *Chain[chat.Completer]
}

var _ chat.Completer = (*Completer)(nil)

// NewCompleter creates a failover Completer with primary as the first
// backend.
func NewCompleter(primaryName string, primary chat.Completer, breakerCfg BreakerConfig) *Completer {
	return &Completer{chain: NewChain(primaryName, primary, breakerCfg)}
}

// Add appends a fallback completion backend.
func (c *Completer) Add(name string, backend chat.Completer) {
	c.chain.Add(name, backend)
}

// Complete implements chat.Completer with failover across backends.
func (c *Completer) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	return TryResult(c.chain, func(_ string, backend chat.Completer) (*chat.Response, error) {
		return backend.Complete(ctx, req)
	})
}
