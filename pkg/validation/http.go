package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

const maxVerdictBytes = 1 << 20

// TransportError reports that the remote validator could not produce a verdict.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("validator %s: unexpected status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("validator %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPValidator posts the candidate as plain text and decodes {passed, errorMessage}.
type HTTPValidator struct {
	url         string
	contentType string
	headers     map[string]string
	client      *http.Client
}

// HTTPOption configures an HTTPValidator.
type HTTPOption func(*HTTPValidator)

// WithContentType sets the request content type (default text/plain).
func WithContentType(ct string) HTTPOption {
	return func(v *HTTPValidator) {
		if ct != "" {
			v.contentType = ct
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) HTTPOption {
	return func(v *HTTPValidator) {
		v.headers[key] = value
	}
}

// WithTimeout bounds each validation call.
func WithTimeout(d time.Duration) HTTPOption {
	return func(v *HTTPValidator) {
		v.client.Timeout = d
	}
}

// WithHTTPClient replaces the http client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(v *HTTPValidator) {
		if c != nil {
			v.client = c
		}
	}
}

// NewHTTPValidator creates a validator for url.
func NewHTTPValidator(url string, opts ...HTTPOption) *HTTPValidator {
	v := &HTTPValidator{
		url:         strings.TrimSpace(url),
		contentType: "text/plain; charset=utf-8",
		headers:     map[string]string{},
		client:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate asks the remote validator for a verdict.
func (v *HTTPValidator) Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewBufferString(candidate))
	if err != nil {
		return domain.ValidationOutcome{}, &TransportError{URL: v.url, Err: err}
	}
	req.Header.Set("Content-Type", v.contentType)
	req.Header.Set("Accept", "application/json")
	for k, val := range v.headers {
		req.Header.Set(k, val)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return domain.ValidationOutcome{}, &TransportError{URL: v.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerdictBytes))
	if err != nil {
		return domain.ValidationOutcome{}, &TransportError{URL: v.url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ValidationOutcome{}, &TransportError{
			URL:        v.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var verdict struct {
		Passed       *bool  `json:"passed"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(body, &verdict); err != nil {
		return domain.ValidationOutcome{}, &TransportError{URL: v.url, Err: fmt.Errorf("malformed verdict: %w", err)}
	}
	if verdict.Passed == nil {
		return domain.ValidationOutcome{}, &TransportError{URL: v.url, Err: errors.New("malformed verdict: missing passed")}
	}
	return domain.ValidationOutcome{Passed: *verdict.Passed, ErrorMessage: verdict.ErrorMessage}, nil
}
