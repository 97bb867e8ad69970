// Package mock provides a scriptable chat.Completer for tests.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/TheRemi120/runcoach/pkg/provider/chat"
)

// Completer is a scriptable chat.Completer. Set CompleteFunc to control
// responses; every request is recorded and retrievable via Calls.
type Completer struct {
	CompleteFunc func(ctx context.Context, req chat.Request) (*chat.Response, error)

	mu    sync.Mutex
	calls []chat.Request
}

var _ chat.Completer = (*Completer)(nil)

// Complete implements chat.Completer.
func (c *Completer) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if c.CompleteFunc != nil {
		return c.CompleteFunc(ctx, req)
	}
	return nil, errors.New("mock: CompleteFunc not set")
}

// Calls returns a copy of all requests received so far.
func (c *Completer) Calls() []chat.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chat.Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// Static returns a Completer that always answers with content.
func Static(content string) *Completer {
	return &Completer{
		CompleteFunc: func(context.Context, chat.Request) (*chat.Response, error) {
			return &chat.Response{Content: content}, nil
		},
	}
}
