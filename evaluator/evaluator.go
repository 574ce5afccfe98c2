// Package evaluator runs chains and comprehensions against concrete inputs
// using CEL's filter and map macros. It is an oracle for the differential
// harness: both notations are translated to CEL and their results compared.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"

	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
)

// Sentinel errors
var (
	ErrNotEvaluable = errors.New("not expressible in CEL")
	ErrEvaluation   = errors.New("evaluation failed")
)

// Status is the outcome of a semantic comparison.
type Status int

const (
	Skipped Status = iota
	Match
	Mismatch
)

func (s Status) String() string {
	switch s {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	default:
		return "skipped"
	}
}

// Outcome holds both evaluation results. Reason explains a skip.
type Outcome struct {
	Status        Status
	Chain         any
	Comprehension any
	Reason        string
}

const interruptCheckFrequency = 100

// EvalChain evaluates seq with inputs bound as variables.
func EvalChain(ctx context.Context, seq *chain.StageSequence, inputs map[string]any) (ref.Val, error) {
	source, err := TranslateChain(seq)
	if err != nil {
		return nil, err
	}

	return eval(ctx, source, inputs)
}

// EvalComprehension evaluates c with inputs bound as variables.
func EvalComprehension(ctx context.Context, c *comprehension.Comprehension, inputs map[string]any) (ref.Val, error) {
	source, err := TranslateComprehension(c)
	if err != nil {
		return nil, err
	}

	return eval(ctx, source, inputs)
}

// Compare evaluates both notations. Anything that cannot be evaluated on either
// side is Skipped, never Mismatch.
func Compare(ctx context.Context, seq *chain.StageSequence, c *comprehension.Comprehension, inputs map[string]any) Outcome {
	chainResult, err := EvalChain(ctx, seq, inputs)
	if err != nil {
		return Outcome{Status: Skipped, Reason: "chain: " + err.Error()}
	}

	compResult, err := EvalComprehension(ctx, c, inputs)
	if err != nil {
		return Outcome{Status: Skipped, Reason: "comprehension: " + err.Error()}
	}

	outcome := Outcome{Chain: Native(chainResult), Comprehension: Native(compResult)}
	if chainResult.Equal(compResult) == types.True {
		outcome.Status = Match
	} else {
		outcome.Status = Mismatch
	}

	return outcome
}

func eval(ctx context.Context, source string, inputs map[string]any) (ref.Val, error) {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}

	sort.Strings(names)

	options := make([]cel.EnvOption, 0, len(names))
	for _, name := range names {
		if err := checkName(name); err != nil {
			return nil, err
		}

		options = append(options, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluation, issues.Err())
	}

	program, err := env.Program(ast, cel.InterruptCheckFrequency(interruptCheckFrequency))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	result, _, err := program.ContextEval(ctx, Normalize(inputs).(map[string]any))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	return result, nil
}

// Native converts a CEL result into plain Go lists, maps and scalars.
func Native(val ref.Val) any {
	switch v := val.(type) {
	case traits.Lister:
		var result []any
		for it := v.Iterator(); it.HasNext() == types.True; {
			result = append(result, Native(it.Next()))
		}

		if result == nil {
			result = []any{}
		}

		return result
	case traits.Mapper:
		result := map[string]any{}
		for it := v.Iterator(); it.HasNext() == types.True; {
			key := it.Next()
			result[fmt.Sprint(key.Value())] = Native(v.Get(key))
		}

		return result
	default:
		return val.Value()
	}
}
