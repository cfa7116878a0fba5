// Package process validates candidates with a local command such as xmllint or a
// schema checker script.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

// Validator runs Command with the candidate on stdin.
//
// Exit status 0 is a pass. A non-zero exit is a failure whose message is stderr, or
// stdout when stderr is empty. When stdout is a JSON object of the form
// {"passed": bool, "errorMessage": string} it takes precedence over the exit status.
// Failing to start the command is a transport error, not a verdict.
type Validator struct {
	Command string
	Args    []string
	Env     map[string]string
	Dir     string
}

// Option configures the validator.
type Option func(*Validator)

// WithEnv adds environment variables to the command's environment.
func WithEnv(env map[string]string) Option {
	return func(v *Validator) {
		for k, val := range env {
			v.Env[k] = val
		}
	}
}

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(v *Validator) {
		v.Dir = dir
	}
}

// NewValidator creates a validator for command and its fixed args.
func NewValidator(command string, args []string, opts ...Option) *Validator {
	v := &Validator{
		Command: command,
		Args:    append([]string(nil), args...),
		Env:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate executes the command once.
func (v *Validator) Validate(ctx context.Context, candidate string) (domain.ValidationOutcome, error) {
	cmd := exec.CommandContext(ctx, v.Command, v.Args...)
	cmd.Dir = v.Dir
	cmd.Stdin = strings.NewReader(candidate)
	env := cmd.Environ()
	for k, val := range v.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, val))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.ValidationOutcome{}, ctxErr
	}

	if out, ok := parseVerdict(stdout.String()); ok {
		return out, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return domain.ValidationOutcome{Passed: true}, nil
	case errors.As(err, &exitErr):
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = fmt.Sprintf("%s exited with status %d", v.Command, exitErr.ExitCode())
		}
		return domain.ValidationOutcome{ErrorMessage: msg}, nil
	}
	return domain.ValidationOutcome{}, fmt.Errorf("run %s: %w", v.Command, err)
}

// parseVerdict reads a JSON verdict from stdout, if there is one.
func parseVerdict(stdout string) (domain.ValidationOutcome, bool) {
	trimmed := strings.TrimSpace(stdout)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return domain.ValidationOutcome{}, false
	}
	var raw struct {
		Passed       *bool  `json:"passed"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil || raw.Passed == nil {
		return domain.ValidationOutcome{}, false
	}
	return domain.ValidationOutcome{Passed: *raw.Passed, ErrorMessage: raw.ErrorMessage}, true
}
