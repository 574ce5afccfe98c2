// Package defusion turns a list comprehension back into a chain of stages.
//
// The result is canonical rather than a reconstruction: every clause becomes
// its own filter in order, followed by at most one map. Interleavings of an
// original chain are not recovered, only its fused meaning.
package defusion

import (
	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/expr"
	tok "github.com/shibukawa/declo/tokenizer"
)

// DeclarationKeyword introduces the binding of a defused assignment.
const DeclarationKeyword = "const"

var javaScript = tok.NewJavaScriptDialect()

// Defuse decomposes c into filter stages followed by an optional map. It never
// fails and never modifies c.
func Defuse(c *comprehension.Comprehension) *chain.StageSequence {
	c = withChainSafeVar(c)

	seq := &chain.StageSequence{Source: expr.Clone(c.Source)}
	if c.Target != "" {
		seq.Binding = &chain.Binding{Keyword: DeclarationKeyword, Name: c.Target}
	}

	for _, clause := range c.Clauses {
		seq.Stages = append(seq.Stages, chain.NewFilter(c.Var, expr.Clone(clause)))
	}

	if !IsIdentity(c) {
		seq.Stages = append(seq.Stages, chain.NewMap(c.Var, expr.Clone(c.Output)))
	}

	return seq
}

// IsIdentity reports whether the output is the bound variable itself, in
// which case no map stage is needed.
func IsIdentity(c *comprehension.Comprehension) bool {
	ident, ok := c.Output.(*expr.Ident)

	return ok && ident.Name == c.Var
}

// withChainSafeVar renames a bound variable that cannot be an arrow function
// parameter.
func withChainSafeVar(c *comprehension.Comprehension) *comprehension.Comprehension {
	if !javaScript.IsKeyword(c.Var) {
		return c
	}

	taken := c.BodyNames()
	taken[c.Var] = true

	return c.Rename(expr.FreshName(c.Var, taken))
}
