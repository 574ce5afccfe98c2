// Package fusion compiles a chain of filter and map stages into a single list
// comprehension by substituting each stage parameter with the value produced
// so far.
package fusion

import (
	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/expr"
	tok "github.com/shibukawa/declo/tokenizer"
)

const freshBase = "x"

var python = tok.NewPythonDialect()

// Fuse folds the stages of seq into one comprehension. Filters contribute a
// clause over the current value, maps replace the current value. Fuse never
// fails and never modifies seq.
func Fuse(seq *chain.StageSequence) *comprehension.Comprehension {
	v := BoundVariable(seq)

	var current expr.Expr = expr.NewIdent(v)
	var clauses []expr.Expr

	for _, stage := range seq.Stages {
		body := expr.Substitute(stage.Body, stage.Param, current)

		switch stage.Kind {
		case chain.Filter:
			clauses = append(clauses, body)
		case chain.Map:
			current = body
		}
	}

	return &comprehension.Comprehension{
		Target:  seq.Target(),
		Var:     v,
		Source:  expr.Clone(seq.Source),
		Clauses: clauses,
		Output:  expr.Clone(current),
	}
}

// BoundVariable picks the comprehension variable for seq: the first stage
// parameter, unless a later stage refers to an outer variable of that name or
// the name is reserved in Python. A fresh name avoiding every free identifier
// of the sequence is used otherwise.
func BoundVariable(seq *chain.StageSequence) string {
	taken := FreeNames(seq)

	if len(seq.Stages) == 0 {
		return expr.FreshName(freshBase, taken)
	}

	v := seq.Stages[0].Param
	if python.IsKeyword(v) {
		return expr.FreshName(freshBase, taken)
	}

	for _, stage := range seq.Stages[1:] {
		if stage.Param != v && expr.Mentions(stage.Body, v) {
			return expr.FreshName(freshBase, taken)
		}
	}

	return v
}

// FreeNames collects the identifiers of seq that are not bound by the stage
// they appear in.
func FreeNames(seq *chain.StageSequence) map[string]bool {
	names := map[string]bool{}

	for _, name := range expr.Idents(seq.Source) {
		names[name] = true
	}

	for _, stage := range seq.Stages {
		for _, name := range expr.Idents(stage.Body) {
			if name != stage.Param {
				names[name] = true
			}
		}
	}

	return names
}
