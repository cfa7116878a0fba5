package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	datagen "github.com/tqwhite/unity-data-generator-sub000"
	"github.com/tqwhite/unity-data-generator-sub000/internal/dto"
	"github.com/tqwhite/unity-data-generator-sub000/internal/presentation/tui"
)

// ErrInvalidResult is returned when at least one target ended without a valid candidate.
var ErrInvalidResult = errors.New("one or more targets did not produce a valid candidate")

// GenerateOptions holds the inputs of `datagen generate`.
type GenerateOptions struct {
	Targets           []string
	Specification     string
	SpecificationFile string
	TargetsFile       string
	Concurrency       int
	JSON              bool
	Quiet             bool
}

// Requests resolves the targets named on the command line and in TargetsFile.
func (o GenerateOptions) Requests() ([]dto.GenerateRequest, int, error) {
	spec := o.Specification
	if o.SpecificationFile != "" {
		data, err := os.ReadFile(o.SpecificationFile)
		if err != nil {
			return nil, 0, fmt.Errorf("read specification: %w", err)
		}
		spec = string(data)
	}

	var reqs []dto.GenerateRequest
	concurrency := o.Concurrency
	if o.TargetsFile != "" {
		batch, err := LoadTargets(o.TargetsFile)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, batch.Targets...)
		if concurrency == 0 {
			concurrency = batch.Concurrency
		}
	}
	for _, t := range o.Targets {
		reqs = append(reqs, dto.GenerateRequest{Target: t, Specification: spec})
	}
	if len(reqs) == 0 {
		return nil, 0, errors.New("no targets given")
	}
	for i := range reqs {
		if reqs[i].Specification == "" {
			reqs[i].Specification = spec
		}
		if err := reqs[i].Validate(); err != nil {
			return nil, 0, fmt.Errorf("target %d: %w", i, err)
		}
	}
	return reqs, concurrency, nil
}

// LoadTargets reads a YAML or JSON batch file: either {targets: [...], concurrency: n}
// or a bare list of targets.
func LoadTargets(path string) (dto.BatchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dto.BatchRequest{}, fmt.Errorf("read targets: %w", err)
	}
	var batch dto.BatchRequest
	if err := yaml.Unmarshal(data, &batch); err == nil && len(batch.Targets) > 0 {
		return batch, nil
	}
	var list []dto.GenerateRequest
	if err := yaml.Unmarshal(data, &list); err != nil {
		return dto.BatchRequest{}, fmt.Errorf("parse targets %s: %w", path, err)
	}
	return dto.BatchRequest{Targets: list}, nil
}

// Generate runs every requested target and writes one report per target to w.
func Generate(ctx context.Context, rt *Runtime, opts GenerateOptions, w io.Writer) ([]dto.RunReport, error) {
	reqs, concurrency, err := opts.Requests()
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = rt.Config.Batch.Concurrency
	}

	targets := make([]datagen.Target, len(reqs))
	for i, r := range reqs {
		targets[i] = r.ToTarget()
	}
	reports := dto.NewBatchReports(rt.Engine.GenerateBatch(ctx, targets, concurrency))

	if err := writeReports(w, reports, opts); err != nil {
		return reports, err
	}
	if ctx.Err() != nil {
		return reports, ctx.Err()
	}
	for _, r := range reports {
		if !r.IsValid {
			return reports, ErrInvalidResult
		}
	}
	return reports, nil
}

func writeReports(w io.Writer, reports []dto.RunReport, opts GenerateOptions) error {
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(reports) == 1 {
			return enc.Encode(reports[0])
		}
		return enc.Encode(reports)
	}
	for _, r := range reports {
		if !opts.Quiet {
			label := fmt.Sprintf("%s (run %s, %d attempts)", r.Target, r.RunID, r.Attempts)
			if r.Error != "" {
				label += ": " + r.Error
			}
			fmt.Fprintln(w, tui.Status(w, r.IsValid, label))
			for i, msg := range r.History {
				fmt.Fprintf(w, "  %d. %s\n", i+1, msg)
			}
		}
		if r.Candidate != "" {
			fmt.Fprintln(w, r.Candidate)
		}
	}
	return nil
}
