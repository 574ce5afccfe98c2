// Package comprehension models a single-generator list comprehension:
// [output for var in source if c1 if c2 ...].
package comprehension

import (
	"fmt"

	"github.com/shibukawa/declo/expr"
)

type Comprehension struct {
	// Target is the assigned name for "name = [...]", empty otherwise.
	Target  string
	Var     string
	Source  expr.Expr
	Clauses []expr.Expr
	Output  expr.Expr
}

// Identical compares two comprehensions exactly, including the bound variable name.
func (c *Comprehension) Identical(o *Comprehension) bool {
	if c == nil || o == nil {
		return c == o
	}

	return c.Target == o.Target &&
		c.Var == o.Var &&
		expr.Equal(c.Source, o.Source) &&
		expr.EqualAll(c.Clauses, o.Clauses) &&
		expr.Equal(c.Output, o.Output)
}

// Equal compares two comprehensions up to renaming of the bound variable.
func (c *Comprehension) Equal(o *Comprehension) bool {
	if c == nil || o == nil {
		return c == o
	}

	a, b := alignVars(c, o)

	return a.Identical(b)
}

// Rename returns a copy with the bound variable renamed. The source is outside
// the binder and is copied unchanged.
func (c *Comprehension) Rename(name string) *Comprehension {
	clauses := make([]expr.Expr, len(c.Clauses))
	for i, clause := range c.Clauses {
		clauses[i] = expr.Rename(clause, c.Var, name)
	}

	return &Comprehension{
		Target:  c.Target,
		Var:     name,
		Source:  expr.Clone(c.Source),
		Clauses: clauses,
		Output:  expr.Rename(c.Output, c.Var, name),
	}
}

// Conjuncts returns the clause list with top-level and-operators flattened.
func (c *Comprehension) Conjuncts() []expr.Expr {
	var result []expr.Expr
	for _, clause := range c.Clauses {
		result = append(result, expr.Conjuncts(clause)...)
	}

	return result
}

// BodyNames returns every identifier used by the clauses and output.
func (c *Comprehension) BodyNames() map[string]bool {
	names := map[string]bool{}
	for _, clause := range c.Clauses {
		for _, name := range expr.Idents(clause) {
			names[name] = true
		}
	}

	for _, name := range expr.Idents(c.Output) {
		names[name] = true
	}

	return names
}

// alignVars renames both sides to a shared variable when their names differ.
func alignVars(a, b *Comprehension) (*Comprehension, *Comprehension) {
	if a.Var == b.Var {
		return a, b
	}

	taken := a.BodyNames()
	for name := range b.BodyNames() {
		taken[name] = true
	}

	fresh := expr.FreshName(a.Var, taken)

	return a.Rename(fresh), b.Rename(fresh)
}

// Divergence describes the first place two comprehensions differ.
type Divergence struct {
	Part string
	Want expr.Expr
	Got  expr.Expr
}

func (d *Divergence) String() string {
	return fmt.Sprintf("%s differs", d.Part)
}

// Equivalent compares want and got modulo the bound variable name and the
// grouping of and-combined conditions. It returns the first divergence when
// they differ.
func Equivalent(want, got *Comprehension) (bool, *Divergence) {
	a, b := alignVars(want, got)

	if a.Target != b.Target {
		return false, &Divergence{Part: fmt.Sprintf("target (%q vs %q)", a.Target, b.Target)}
	}

	if !expr.Equal(a.Source, b.Source) {
		return false, &Divergence{Part: "source", Want: a.Source, Got: b.Source}
	}

	wantConds, gotConds := a.Conjuncts(), b.Conjuncts()
	for i := 0; i < len(wantConds) || i < len(gotConds); i++ {
		var w, g expr.Expr
		if i < len(wantConds) {
			w = wantConds[i]
		}

		if i < len(gotConds) {
			g = gotConds[i]
		}

		if !expr.Equal(w, g) {
			return false, &Divergence{Part: fmt.Sprintf("condition %d", i+1), Want: w, Got: g}
		}
	}

	if !expr.Equal(a.Output, b.Output) {
		return false, &Divergence{Part: "output", Want: a.Output, Got: b.Output}
	}

	return true, nil
}
