// Package aiclient binds a provider adapter to a model and wraps it with middleware.
//
// A Client satisfies ports.AIClient. Retries, timeouts and request logging live here, in
// the client abstraction, never in the orchestration engine.
package aiclient

import (
	"context"
	"strings"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// Adapter is a vendor-specific completion backend.
type Adapter interface {
	Name() string
	Complete(ctx context.Context, req ports.CompletionRequest) (string, error)
}

// CompleteFunc is one link of the middleware chain.
type CompleteFunc func(ctx context.Context, req ports.CompletionRequest) (string, error)

// Middleware wraps a CompleteFunc.
type Middleware func(next CompleteFunc) CompleteFunc

// Client is a configured model binding.
type Client struct {
	adapter     Adapter
	model       string
	temperature *float64
	middleware  []Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = strings.TrimSpace(model)
	}
}

// WithTemperature sets the temperature used when a request does not carry one.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = &t
	}
}

// WithMiddleware appends middleware. Middleware is applied in registration order on the
// way in and in reverse order on the way out.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// New creates a Client around adapter.
func New(adapter Adapter, opts ...Option) *Client {
	c := &Client{adapter: adapter}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the adapter name.
func (c *Client) Provider() string {
	if c == nil || c.adapter == nil {
		return ""
	}
	return c.adapter.Name()
}

// Model returns the default model.
func (c *Client) Model() string {
	return c.model
}

// Complete fills request defaults and runs the middleware chain.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c == nil || c.adapter == nil {
		return "", &ConfigurationError{Message: "no provider adapter configured"}
	}
	if len(req.Messages) == 0 {
		return "", &ConfigurationError{Message: "completion request has no messages"}
	}
	if req.Model == "" {
		req.Model = c.model
	}
	if req.Temperature == nil && c.temperature != nil {
		t := *c.temperature
		req.Temperature = &t
	}

	handler := CompleteFunc(c.adapter.Complete)
	for i := len(c.middleware) - 1; i >= 0; i-- {
		handler = c.middleware[i](handler)
	}
	return handler(ctx, req)
}
