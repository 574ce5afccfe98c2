// Package declo converts chained filter/map programs into single-generator list
// comprehensions and back.
//
//	nums.filter(x => x % 2 == 0).map(x => x * x)
//	[x * x for x in nums if x % 2 == 0]
package declo

import (
	"context"
	"strings"

	"github.com/shibukawa/declo/defusion"
	"github.com/shibukawa/declo/evaluator"
	"github.com/shibukawa/declo/formatter"
	"github.com/shibukawa/declo/fusion"
	"github.com/shibukawa/declo/parser"
)

// Compile turns a chain program into comprehension text.
func Compile(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyProgram
	}

	seq, err := parser.ParseChain(text)
	if err != nil {
		return "", err
	}

	return formatter.RenderComprehension(fusion.Fuse(seq)), nil
}

// CompileJoined is Compile with all conditions joined by "and" into a single
// if clause.
func CompileJoined(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyProgram
	}

	seq, err := parser.ParseChain(text)
	if err != nil {
		return "", err
	}

	return formatter.RenderComprehensionJoined(fusion.Fuse(seq)), nil
}

// Decompile turns comprehension text into a chain program.
func Decompile(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyProgram
	}

	c, err := parser.ParseComprehension(text)
	if err != nil {
		return "", err
	}

	return formatter.RenderChain(defusion.Defuse(c)), nil
}

// RoundtripResult shows a chain after compilation and after decompiling the
// compiled form again.
type RoundtripResult struct {
	Comprehension string
	Chain         string
	// Stable is true when compiling Chain reproduces Comprehension.
	Stable bool
}

// Roundtrip compiles a chain, decompiles the result and compiles that again.
func Roundtrip(text string) (*RoundtripResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyProgram
	}

	seq, err := parser.ParseChain(text)
	if err != nil {
		return nil, err
	}

	compiled := fusion.Fuse(seq)
	chainText := formatter.RenderChain(defusion.Defuse(compiled))

	reparsed, err := parser.ParseChain(chainText)
	if err != nil {
		return nil, err
	}

	return &RoundtripResult{
		Comprehension: formatter.RenderComprehension(compiled),
		Chain:         chainText,
		Stable:        compiled.Equal(fusion.Fuse(reparsed)),
	}, nil
}

// Evaluate runs a chain program with inputs bound as its free variables and
// returns the result as plain Go lists, maps and scalars.
func Evaluate(ctx context.Context, text string, inputs map[string]any) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyProgram
	}

	seq, err := parser.ParseChain(text)
	if err != nil {
		return nil, err
	}

	result, err := evaluator.EvalChain(ctx, seq, inputs)
	if err != nil {
		return nil, err
	}

	return evaluator.Native(result), nil
}
