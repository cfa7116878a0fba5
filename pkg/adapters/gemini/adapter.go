// Package gemini implements an aiclient.Adapter on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/aiclient"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

const providerName = "gemini"

// Config configures the GenAI client.
type Config struct {
	APIKey  string
	BaseURL string
}

// Adapter sends GenerateContent calls to the Gemini API.
type Adapter struct {
	client *genai.Client
}

// NewAdapter creates the underlying GenAI client.
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &aiclient.ConfigurationError{Message: "gemini API key is required"}
	}
	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Adapter{client: client}, nil
}

func (a *Adapter) Name() string { return providerName }

// Complete maps system messages onto the system instruction and the rest onto contents.
func (a *Adapter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if req.Model == "" {
		return "", &aiclient.ConfigurationError{Message: "gemini: model is required"}
	}
	contents, cfg := toContents(req)

	resp, err := a.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", classify(err)
	}
	text := resp.Text()
	if text == "" && len(resp.Candidates) == 0 {
		return "", aiclient.NewMalformedResponseError(providerName, "response has no candidates")
	}
	return text, nil
}

func toContents(req ports.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, cfg
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return aiclient.ErrorFromHTTPStatus(providerName, apiErr.Code, apiErr.Message, nil)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return aiclient.ErrorFromHTTPStatus(providerName, apiErrPtr.Code, apiErrPtr.Message, nil)
	}
	return aiclient.WrapTransportError(providerName, err)
}
