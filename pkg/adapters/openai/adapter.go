// Package openai implements an aiclient.Adapter for OpenAI-compatible chat completion APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/aiclient"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultPath    = "/v1/chat/completions"
	maxBodyBytes   = 8 << 20
)

// Config describes one OpenAI-compatible endpoint.
type Config struct {
	Provider     string
	APIKey       string
	BaseURL      string
	Path         string
	ExtraHeaders map[string]string
}

// Adapter talks to /v1/chat/completions.
type Adapter struct {
	cfg    Config
	client *http.Client
}

// NewAdapter normalizes cfg and returns an Adapter.
// The http client carries no timeout; deadlines come from the request context.
func NewAdapter(cfg Config) *Adapter {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = defaultPath
	}
	return &Adapter{cfg: cfg, client: &http.Client{Timeout: 0}}
}

// WithHTTPClient replaces the underlying http client.
func (a *Adapter) WithHTTPClient(c *http.Client) *Adapter {
	a.client = c
	return a
}

func (a *Adapter) Name() string { return a.cfg.Provider }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a non-streaming chat completion and returns the first choice's text.
func (a *Adapter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if req.Model == "" {
		return "", &aiclient.ConfigurationError{Message: a.cfg.Provider + ": model is required"}
	}
	body := chatRequest{Model: req.Model, Temperature: req.Temperature}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+a.cfg.Path, bytes.NewReader(payload))
	if err != nil {
		return "", aiclient.WrapTransportError(a.cfg.Provider, err)
	}
	if a.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range a.cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", aiclient.WrapTransportError(a.cfg.Provider, err)
	}
	defer resp.Body.Close()

	return a.parseResponse(resp)
}

func (a *Adapter) parseResponse(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", aiclient.WrapTransportError(a.cfg.Provider, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		ra := aiclient.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return "", aiclient.ErrorFromHTTPStatus(a.cfg.Provider, resp.StatusCode, msg, ra)
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", aiclient.NewMalformedResponseError(a.cfg.Provider, err.Error())
	}
	if len(cr.Choices) == 0 {
		return "", aiclient.NewMalformedResponseError(a.cfg.Provider, "response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}
