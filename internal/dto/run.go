// Package dto holds the wire shapes shared by the CLI, HTTP and MCP surfaces.
package dto

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	datagen "github.com/tqwhite/unity-data-generator-sub000"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/facilitator"
)

// GenerateRequest asks for one target. The same keys are accepted in JSON, YAML target
// files and MCP tool arguments.
type GenerateRequest struct {
	Target        string         `json:"target" yaml:"target" mapstructure:"target"`
	Specification string         `json:"specification" yaml:"specification" mapstructure:"specification"`
	Seed          map[string]any `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
	RunID         string         `json:"runId,omitempty" yaml:"runId,omitempty" mapstructure:"runId"`
}

// Validate rejects requests without a target.
func (r GenerateRequest) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("target is required")
	}
	return nil
}

// ToTarget converts the request for the engine.
func (r GenerateRequest) ToTarget() datagen.Target {
	return datagen.Target{
		Name:          r.Target,
		Specification: r.Specification,
		Seed:          domain.Wisdom(r.Seed).Clone(),
		RunID:         r.RunID,
	}
}

// BatchRequest asks for several targets at once.
type BatchRequest struct {
	Targets     []GenerateRequest `json:"targets" yaml:"targets" mapstructure:"targets"`
	Concurrency int               `json:"concurrency,omitempty" yaml:"concurrency,omitempty" mapstructure:"concurrency"`
}

// DecodeArgs decodes loosely typed arguments (MCP tool input) into out.
func DecodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

// RunReport is the externally visible summary of one Facilitator run.
type RunReport struct {
	RunID       string   `json:"runId"`
	Target      string   `json:"target"`
	Candidate   string   `json:"candidate"`
	IsValid     bool     `json:"isValid"`
	Attempts    int      `json:"attempts"`
	History     []string `json:"validationHistory"`
	BenignMatch string   `json:"benignMatch,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// NewRunReport summarizes res. err, when set, is reported alongside the partial result.
func NewRunReport(target string, res *facilitator.Result, err error) RunReport {
	r := RunReport{Target: target, History: []string{}}
	if res != nil {
		r.RunID = res.RunID
		r.Candidate = res.Candidate
		r.IsValid = res.IsValid
		r.Attempts = res.Attempts
		r.History = append(r.History, res.History...)
		r.BenignMatch = res.BenignMatch
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// NewBatchReports summarizes batch results in order.
func NewBatchReports(results []datagen.BatchResult) []RunReport {
	out := make([]RunReport, len(results))
	for i, r := range results {
		out[i] = NewRunReport(r.Target, r.Result, r.Err)
	}
	return out
}
