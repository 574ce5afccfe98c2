// Package testrunner is the differential harness: it runs every corpus example
// through compilation, decompilation and a roundtrip, optionally checks both
// notations against the CEL oracle, and aggregates the outcome per category.
package testrunner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/corpus"
	"github.com/shibukawa/declo/evaluator"
	"github.com/shibukawa/declo/expr"
)

// Category names one kind of check.
type Category string

const (
	Compilation   Category = "compilation"
	Decompilation Category = "decompilation"
	Roundtrip     Category = "roundtrip"
	Semantic      Category = "semantic"
)

// Categories lists every category in report order.
var Categories = []Category{Compilation, Decompilation, Roundtrip, Semantic}

// Options controls a harness run.
type Options struct {
	// Parallel is the number of examples checked at once.
	Parallel int
	// ExampleTimeout bounds one example. Zero means no limit. A timed out
	// example is reported at once but keeps its worker slot until it returns,
	// so at most Parallel examples ever run.
	ExampleTimeout time.Duration
	// Semantic enables the CEL oracle for examples that carry inputs.
	Semantic bool
	Engine   Engine
	Logger   *zap.Logger
}

// DefaultOptions returns the options used when nil is passed to RunCorpus.
func DefaultOptions() *Options {
	return &Options{
		Parallel: runtime.NumCPU(),
		Semantic: true,
		Engine:   DefaultEngine{},
		Logger:   zap.NewNop(),
	}
}

func (o *Options) withDefaults() *Options {
	result := DefaultOptions()
	if o == nil {
		return result
	}

	result.ExampleTimeout = o.ExampleTimeout
	result.Semantic = o.Semantic

	if o.Parallel > 0 {
		result.Parallel = o.Parallel
	}

	if o.Engine != nil {
		result.Engine = o.Engine
	}

	if o.Logger != nil {
		result.Logger = o.Logger
	}

	return result
}

// Check is the outcome of one category for one example.
type Check struct {
	Passed  bool   `json:"passed" yaml:"passed"`
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Want    string `json:"want,omitempty" yaml:"want,omitempty"`
	Got     string `json:"got,omitempty" yaml:"got,omitempty"`
	Diff    string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

func pass(got string) *Check {
	return &Check{Passed: true, Got: got}
}

func fail(format string, args ...any) *Check {
	return &Check{Reason: fmt.Sprintf(format, args...)}
}

// ExampleResult collects the checks of one example. Checks has no Semantic
// entry when the oracle was not asked to run.
type ExampleResult struct {
	Index    int                 `json:"index" yaml:"index"`
	Title    string              `json:"title" yaml:"title"`
	Location string              `json:"location" yaml:"location"`
	Checks   map[Category]*Check `json:"checks" yaml:"checks"`
	Duration time.Duration       `json:"duration" yaml:"duration"`
}

func newExampleResult(e *corpus.Example) ExampleResult {
	return ExampleResult{
		Index:    e.Index,
		Title:    e.Title,
		Location: e.Location(),
		Checks:   map[Category]*Check{},
	}
}

// Failed reports whether any category failed.
func (r *ExampleResult) Failed() bool {
	for _, check := range r.Checks {
		if !check.Passed && !check.Skipped {
			return true
		}
	}

	return false
}

// RunCorpus checks every example and returns the aggregated report. It never
// fails: problems with an example are recorded in that example's result.
func RunCorpus(ctx context.Context, examples []corpus.Example, opts *Options) *Report {
	opts = opts.withDefaults()
	startTime := time.Now()

	opts.Logger.Debug("running corpus",
		zap.Int("examples", len(examples)),
		zap.Int("parallel", opts.Parallel),
		zap.Duration("timeout", opts.ExampleTimeout))

	results := make([]ExampleResult, len(examples))
	workerPool := make(chan struct{}, opts.Parallel)

	var wg sync.WaitGroup

	for i := range examples {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i] = runScheduled(ctx, workerPool, &examples[i], opts)
		}(i)
	}

	wg.Wait()

	report := newReport(results)
	report.Duration = time.Since(startTime)

	opts.Logger.Debug("corpus finished",
		zap.Int("failed", report.FailedExamples()),
		zap.Duration("duration", report.Duration))

	return report
}

// runScheduled waits for a worker slot. Examples that have not started when the
// context ends are recorded as failures.
func runScheduled(ctx context.Context, workerPool chan struct{}, e *corpus.Example, opts *Options) ExampleResult {
	select {
	case workerPool <- struct{}{}:
	case <-ctx.Done():
		return abandoned(e, opts, ctx.Err())
	}

	release := func() { <-workerPool }

	if err := ctx.Err(); err != nil {
		release()
		return abandoned(e, opts, err)
	}

	if opts.ExampleTimeout <= 0 {
		defer release()
		return runExample(ctx, e, opts)
	}

	exampleCtx, cancel := context.WithTimeout(ctx, opts.ExampleTimeout)
	defer cancel()

	done := make(chan ExampleResult, 1)

	go func() {
		done <- runExample(exampleCtx, e, opts)
	}()

	select {
	case result := <-done:
		release()
		return result
	case <-exampleCtx.Done():
		opts.Logger.Warn("example timed out", zap.Int("index", e.Index), zap.String("title", e.Title))

		// The slot stays taken until the abandoned example returns.
		go func() {
			<-done
			release()
		}()

		return abandoned(e, opts, exampleCtx.Err())
	}
}

func abandoned(e *corpus.Example, opts *Options, err error) ExampleResult {
	result := newExampleResult(e)
	for _, category := range applicable(e, opts) {
		result.Checks[category] = fail("%v", err)
	}

	return result
}

func applicable(e *corpus.Example, opts *Options) []Category {
	if opts.Semantic && e.Inputs != nil {
		return Categories
	}

	return Categories[:3]
}

func runExample(ctx context.Context, e *corpus.Example, opts *Options) (result ExampleResult) {
	startTime := time.Now()
	engine := opts.Engine
	result = newExampleResult(e)

	defer func() {
		if r := recover(); r != nil {
			opts.Logger.Error("example panicked", zap.Int("index", e.Index), zap.Any("panic", r))
			result = abandoned(e, opts, fmt.Errorf("panic: %v", r))
		}

		result.Duration = time.Since(startTime)
	}()

	seq, chainErr := engine.ParseChain(e.Chain)
	target, compErr := engine.ParseComprehension(e.Comprehension)

	result.Checks[Compilation] = checkCompilation(engine, seq, chainErr, target, compErr)

	decompiled, decompilation := checkDecompilation(engine, target, compErr)
	result.Checks[Decompilation] = decompilation
	result.Checks[Roundtrip] = checkRoundtrip(engine, decompiled, decompilation, target)

	if opts.Semantic && e.Inputs != nil {
		result.Checks[Semantic] = checkSemantic(ctx, seq, chainErr, target, compErr, e.Inputs)
	}

	opts.Logger.Debug("example checked",
		zap.Int("index", e.Index),
		zap.String("title", e.Title),
		zap.Bool("failed", result.Failed()))

	return result
}

func checkCompilation(engine Engine, seq *chain.StageSequence, chainErr error, target *comprehension.Comprehension, compErr error) *Check {
	if chainErr != nil {
		return fail("chain does not parse: %v", chainErr)
	}

	if compErr != nil {
		return fail("expected comprehension does not parse: %v", compErr)
	}

	got := engine.Fuse(seq)

	ok, divergence := comprehension.Equivalent(target, got)
	if !ok {
		return &Check{
			Reason: divergence.String(),
			Want:   engine.RenderComprehension(target),
			Got:    engine.RenderComprehension(got),
			Diff:   expr.Diff(divergence.Want, divergence.Got),
		}
	}

	return pass(engine.RenderComprehension(got))
}

// checkDecompilation defuses the target and makes sure the rendered chain
// parses back. The re-parsed sequence feeds the roundtrip.
func checkDecompilation(engine Engine, target *comprehension.Comprehension, compErr error) (*chain.StageSequence, *Check) {
	if compErr != nil {
		return nil, fail("comprehension does not parse: %v", compErr)
	}

	text := engine.RenderChain(engine.Defuse(target))

	seq, err := engine.ParseChain(text)
	if err != nil {
		check := fail("rendered chain does not parse: %v", err)
		check.Got = text

		return nil, check
	}

	return seq, pass(text)
}

func checkRoundtrip(engine Engine, decompiled *chain.StageSequence, decompilation *Check, target *comprehension.Comprehension) *Check {
	if !decompilation.Passed {
		return fail("not run: %s", decompilation.Reason)
	}

	got := engine.Fuse(decompiled)
	if !target.Equal(got) {
		return &Check{
			Reason: "fused decompilation differs from the original comprehension",
			Want:   engine.RenderComprehension(target),
			Got:    engine.RenderComprehension(got),
			Diff:   cmp.Diff(target, got, expr.CmpOptions()),
		}
	}

	return pass(engine.RenderComprehension(got))
}

func checkSemantic(ctx context.Context, seq *chain.StageSequence, chainErr error, target *comprehension.Comprehension, compErr error, inputs map[string]any) *Check {
	if chainErr != nil || compErr != nil {
		return &Check{Skipped: true, Reason: "not run: parse failure"}
	}

	outcome := evaluator.Compare(ctx, seq, target, inputs)

	switch outcome.Status {
	case evaluator.Match:
		return pass(fmt.Sprint(outcome.Chain))
	case evaluator.Mismatch:
		return &Check{
			Reason: "chain and comprehension evaluate differently",
			Want:   fmt.Sprint(outcome.Comprehension),
			Got:    fmt.Sprint(outcome.Chain),
			Diff:   cmp.Diff(outcome.Comprehension, outcome.Chain),
		}
	default:
		return &Check{Skipped: true, Reason: outcome.Reason}
	}
}
