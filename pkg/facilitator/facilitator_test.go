package facilitator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/adapters/memory"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/conversation"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/facilitator"
	"github.com/tqwhite/unity-data-generator-sub000/pkg/ports"
)

// recorder is a conversation stub that captures its seeds.
type recorder struct {
	name  string
	seeds []domain.Wisdom
	fn    func(n int, seed domain.Wisdom) (domain.Wisdom, error)
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Run(ctx context.Context, seed domain.Wisdom) (*conversation.Outcome, error) {
	r.seeds = append(r.seeds, seed.Clone())
	w, err := r.fn(len(r.seeds), seed)
	if err != nil {
		return &conversation.Outcome{Wisdom: seed}, err
	}
	return &conversation.Outcome{Wisdom: w, Responses: map[string]string{r.name: w.String("candidate")}}, nil
}

func generator() *recorder {
	return &recorder{name: "generate", fn: func(n int, seed domain.Wisdom) (domain.Wisdom, error) {
		return seed.With("candidate", fmt.Sprintf("gen-%d", n)), nil
	}}
}

func fixer() *recorder {
	return &recorder{name: "fix", fn: func(n int, seed domain.Wisdom) (domain.Wisdom, error) {
		return seed.With("candidate", fmt.Sprintf("fixed-%d", n)), nil
	}}
}

func failures(n int) []memory.Verdict {
	var v []memory.Verdict
	for i := 1; i <= n; i++ {
		v = append(v, memory.Fail(fmt.Sprintf("error %d", i)))
	}
	return v
}

func TestRun_SucceedsAfterExactlyMAttempts(t *testing.T) {
	const m = 3
	gen, fix := generator(), fixer()
	validator := memory.NewScriptedValidator(append(failures(m-1), memory.Pass())...)
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 5}, gen, fix, validator)
	require.NoError(t, err)

	res, err := f.Run(context.Background(), facilitator.Request{Target: "StudentPersonal", Specification: "spec"})
	require.NoError(t, err)

	assert.True(t, res.IsValid)
	assert.Equal(t, m, res.Attempts)
	assert.Len(t, gen.seeds, m)
	assert.Len(t, fix.seeds, m-1)
	assert.Equal(t, "gen-3", res.Candidate)
	assert.Equal(t, domain.ValidationHistory{"error 1", "error 2"}, res.History)
	assert.Contains(t, res.RunID, "StudentPersonal_")
}

func TestRun_ExhaustionIsNotAnError(t *testing.T) {
	const max = 4
	gen, fix := generator(), fixer()
	validator := memory.NewScriptedValidator(failures(max + 2)...)
	f, err := facilitator.New(facilitator.Policy{MaxIterations: max}, gen, fix, validator)
	require.NoError(t, err)

	res, err := f.Run(context.Background(), facilitator.Request{Target: "t", Specification: "spec"})
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, max, res.Attempts)
	assert.Len(t, gen.seeds, max)
	assert.Len(t, validator.Candidates(), max)
	assert.Len(t, res.History, max)
	assert.Len(t, fix.seeds, max-1, "no repair after the final attempt")
	assert.Equal(t, "gen-4", res.Candidate)
}

func TestRun_FixSeesEntireHistory(t *testing.T) {
	gen, fix := generator(), fixer()
	validator := memory.NewScriptedValidator(failures(3)...)
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 3}, gen, fix, validator)
	require.NoError(t, err)

	_, err = f.Run(context.Background(), facilitator.Request{Target: "t", Specification: "StudentPersonal elements"})
	require.NoError(t, err)

	require.Len(t, fix.seeds, 2)
	second := fix.seeds[1]
	assert.Equal(t, domain.ValidationHistory{"error 1", "error 2"}, second[domain.KeyValidationHistory])
	assert.Equal(t, "error 2", second[domain.KeyValidationMessage])
	assert.Equal(t, "StudentPersonal elements", second[domain.KeySpecification])
	assert.Equal(t, "gen-2", second[domain.KeyCandidate])

	// the repaired candidate becomes the next pass's bestSoFar
	assert.Equal(t, domain.SeedPlaceholder, gen.seeds[0][domain.KeyBestSoFar])
	assert.Equal(t, "fixed-1", gen.seeds[1][domain.KeyBestSoFar])
	assert.Equal(t, "fixed-2", gen.seeds[2][domain.KeyBestSoFar])
	assert.Equal(t, 3, gen.seeds[2][domain.KeyIteration])
}

func TestRun_HistoryIsolation(t *testing.T) {
	validator := memory.NewScriptedValidator(memory.Fail("first run error"), memory.Pass())
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 3}, generator(), fixer(), validator)
	require.NoError(t, err)

	first, err := f.Run(context.Background(), facilitator.Request{Target: "a"})
	require.NoError(t, err)
	require.Equal(t, domain.ValidationHistory{"first run error"}, first.History)

	gen := generator()
	f2, err := facilitator.New(facilitator.Policy{MaxIterations: 3}, gen, fixer(), validator)
	require.NoError(t, err)
	second, err := f2.Run(context.Background(), facilitator.Request{Target: "b"})
	require.NoError(t, err)

	assert.Empty(t, second.History)
	assert.Equal(t, domain.ValidationHistory{}, gen.seeds[0][domain.KeyValidationHistory])
	assert.Equal(t, domain.ValidationHistory{"first run error"}, first.History, "earlier result untouched")
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_SameFacilitatorBackToBack(t *testing.T) {
	validator := memory.NewScriptedValidator(failures(10)...)
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 2}, generator(), fixer(), validator)
	require.NoError(t, err)

	r1, err := f.Run(context.Background(), facilitator.Request{Target: "x"})
	require.NoError(t, err)
	r2, err := f.Run(context.Background(), facilitator.Request{Target: "x"})
	require.NoError(t, err)

	assert.Len(t, r1.History, 2)
	assert.Len(t, r2.History, 2)
	assert.Equal(t, domain.ValidationHistory{"error 1", "error 2"}, r1.History)
	assert.Equal(t, domain.ValidationHistory{"error 3", "error 4"}, r2.History)
}

func TestRun_BenignError(t *testing.T) {
	fix := fixer()
	validator := memory.NewScriptedValidator(memory.Fail("cvc-complex-type.2.4.b: content of element is not complete"))
	f, err := facilitator.New(facilitator.Policy{
		MaxIterations: 3,
		BenignErrors:  []string{"cvc-complex-type.2.4.b"},
	}, generator(), fix, validator)
	require.NoError(t, err)

	res, err := f.Run(context.Background(), facilitator.Request{Target: "t"})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, "cvc-complex-type.2.4.b", res.BenignMatch)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, fix.seeds)
	assert.Empty(t, res.History)
}

func TestRun_ValidatorTransportErrorIsFatal(t *testing.T) {
	down := errors.New("connection refused")
	validator := memory.NewScriptedValidator(memory.Verdict{Err: down})
	fix := fixer()
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 3}, generator(), fix, validator)
	require.NoError(t, err)

	res, err := f.Run(context.Background(), facilitator.Request{Target: "t"})
	require.ErrorIs(t, err, down)
	require.NotNil(t, res)
	assert.False(t, res.IsValid)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, fix.seeds)
}

func TestRun_ConversationErrorIsFatal(t *testing.T) {
	boom := errors.New("quota")
	gen := &recorder{name: "generate", fn: func(int, domain.Wisdom) (domain.Wisdom, error) {
		return nil, &conversation.StepError{Conversation: "generate", Thinker: "maker", Err: boom}
	}}
	validator := memory.NewScriptedValidator()
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 3}, gen, fixer(), validator)
	require.NoError(t, err)

	_, err = f.Run(context.Background(), facilitator.Request{Target: "t"})
	require.ErrorIs(t, err, boom)
	se, ok := conversation.IsStepError(err)
	require.True(t, ok)
	assert.Equal(t, "maker", se.Thinker)
	assert.Empty(t, validator.Candidates())
}

func TestRun_MergeConversation(t *testing.T) {
	merge := &recorder{name: "merge", fn: func(n int, seed domain.Wisdom) (domain.Wisdom, error) {
		return seed.With("candidate", seed.String("bestSoFar")+"+"+seed.String("candidate")), nil
	}}
	validator := memory.NewScriptedValidator(memory.Fail("e1"), memory.Pass())
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 3}, generator(), fixer(), validator, facilitator.WithMerge(merge))
	require.NoError(t, err)

	res, err := f.Run(context.Background(), facilitator.Request{Target: "t"})
	require.NoError(t, err)

	require.Len(t, merge.seeds, 1, "merge is skipped while there is no prior artifact")
	assert.Equal(t, []string{"gen-1", "fixed-1+gen-2"}, validator.Candidates())
	assert.Equal(t, "fixed-1+gen-2", res.Candidate)
}

func TestRun_SeedBestSoFarEnablesMerge(t *testing.T) {
	merge := &recorder{name: "merge", fn: func(n int, seed domain.Wisdom) (domain.Wisdom, error) {
		return seed.With("candidate", "merged"), nil
	}}
	validator := memory.NewScriptedValidator(memory.Pass())
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 1}, generator(), fixer(), validator, facilitator.WithMerge(merge))
	require.NoError(t, err)

	res, err := f.Run(context.Background(), facilitator.Request{Target: "t", Seed: domain.Wisdom{"bestSoFar": "<partial/>"}})
	require.NoError(t, err)
	assert.Equal(t, "merged", res.Candidate)
	assert.Equal(t, "<partial/>", merge.seeds[0]["bestSoFar"])
}

func TestRun_CustomCandidateKeyAndRunID(t *testing.T) {
	gen := &recorder{name: "generate", fn: func(n int, seed domain.Wisdom) (domain.Wisdom, error) {
		return seed.With("xml", "<x/>"), nil
	}}
	validator := memory.NewScriptedValidator(memory.Pass())
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 1, CandidateKey: "xml"}, gen, fixer(), validator)
	require.NoError(t, err)

	res, err := f.Run(context.Background(), facilitator.Request{RunID: "fixed-run", Target: "t"})
	require.NoError(t, err)
	assert.Equal(t, "<x/>", res.Candidate)
	assert.Equal(t, "fixed-run", res.RunID)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &recorder{name: "generate", fn: func(n int, seed domain.Wisdom) (domain.Wisdom, error) {
		cancel()
		return seed.With("candidate", "c"), nil
	}}
	validator := memory.NewScriptedValidator(memory.Fail("nope"))
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 5}, gen, fixer(), validator)
	require.NoError(t, err)

	res, err := f.Run(ctx, facilitator.Request{Target: "t"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, res.Attempts, 5)
}

func TestRun_Hooks(t *testing.T) {
	var attempts, validations int
	var benign bool
	hooks := domain.LifecycleHooks{
		OnAttempt:    func(_ context.Context, e *domain.AttemptEvent) { attempts++ },
		OnValidation: func(_ context.Context, e *domain.ValidationEvent) { validations++; benign = benign || e.Benign },
	}
	validator := memory.NewScriptedValidator(memory.Fail("x"), memory.Pass())
	f, err := facilitator.New(facilitator.Policy{MaxIterations: 3}, generator(), fixer(), validator, facilitator.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	_, err = f.Run(context.Background(), facilitator.Request{Target: "t"})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 2, validations)
	assert.False(t, benign)
}

func TestNew_RejectsBadPolicy(t *testing.T) {
	v := memory.NewScriptedValidator()
	_, err := facilitator.New(facilitator.Policy{}, generator(), fixer(), v)
	assert.ErrorIs(t, err, facilitator.ErrInvalidPolicy)

	_, err = facilitator.New(facilitator.Policy{MaxIterations: 1, BenignErrors: []string{" "}}, generator(), fixer(), v)
	assert.ErrorIs(t, err, facilitator.ErrInvalidPolicy)

	_, err = facilitator.New(facilitator.Policy{MaxIterations: 1}, generator(), nil, v)
	assert.ErrorIs(t, err, facilitator.ErrInvalidPolicy)

	var noValidator ports.Validator
	_, err = facilitator.New(facilitator.Policy{MaxIterations: 1}, generator(), fixer(), noValidator)
	assert.ErrorIs(t, err, facilitator.ErrInvalidPolicy)
}
