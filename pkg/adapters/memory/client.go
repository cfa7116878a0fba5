package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// Reply is one scripted model answer. A non-nil Err is returned instead of Text.
type Reply struct {
	Text string
	Err  error
}

// ScriptedClient is a deterministic ports.AIClient that returns replies in order.
// It records every request it receives. Safe for concurrent use.
type ScriptedClient struct {
	mu       sync.Mutex
	replies  []Reply
	fallback func(req ports.CompletionRequest) (string, error)
	requests []ports.CompletionRequest
}

// NewScriptedClient returns a client that answers with texts in order.
func NewScriptedClient(texts ...string) *ScriptedClient {
	c := &ScriptedClient{}
	for _, t := range texts {
		c.replies = append(c.replies, Reply{Text: t})
	}
	return c
}

// Then queues more replies.
func (c *ScriptedClient) Then(replies ...Reply) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
	return c
}

// Otherwise sets the responder used once the script is exhausted.
func (c *ScriptedClient) Otherwise(fn func(req ports.CompletionRequest) (string, error)) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = fn
	return c
}

// Name lets the client double as an aiclient.Adapter.
func (c *ScriptedClient) Name() string { return "memory" }

// Complete pops the next scripted reply.
func (c *ScriptedClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		fb := c.fallback
		n := len(c.requests)
		c.mu.Unlock()
		if fb != nil {
			return fb(req)
		}
		return "", fmt.Errorf("scripted client exhausted after %d calls", n-1)
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	c.mu.Unlock()
	return r.Text, r.Err
}

// Requests returns the requests received so far.
func (c *ScriptedClient) Requests() []ports.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ports.CompletionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}
