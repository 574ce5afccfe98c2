package comprehension

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/declo/expr"
)

// [v * 2 for v in nums if v > 1]
func double(v string) *Comprehension {
	return &Comprehension{
		Var:     v,
		Source:  expr.NewIdent("nums"),
		Clauses: []expr.Expr{expr.NewBinary(expr.Gt, expr.NewIdent(v), expr.NewInt(1))},
		Output:  expr.NewBinary(expr.Mul, expr.NewIdent(v), expr.NewInt(2)),
	}
}

func TestEqualIsAlphaEquivalence(t *testing.T) {
	assert.True(t, double("x").Equal(double("x")))
	assert.True(t, double("x").Equal(double("n")))
	assert.False(t, double("x").Identical(double("n")))

	// a free variable named like the other side's binder must not be captured
	captured := double("n")
	captured.Output = expr.NewBinary(expr.Mul, expr.NewIdent("x"), expr.NewInt(2))
	assert.False(t, double("x").Equal(captured))
}

func TestEqualChecksTarget(t *testing.T) {
	a, b := double("x"), double("x")
	b.Target = "evens"

	assert.False(t, a.Equal(b))
}

func TestRenameKeepsSource(t *testing.T) {
	c := &Comprehension{
		Var:    "x",
		Source: expr.NewIdent("x"),
		Output: expr.NewIdent("x"),
	}

	renamed := c.Rename("y")
	assert.True(t, expr.Equal(expr.NewIdent("x"), renamed.Source))
	assert.True(t, expr.Equal(expr.NewIdent("y"), renamed.Output))
	assert.Equal(t, "x", c.Var)
}

func TestEquivalentFlattensConditions(t *testing.T) {
	a := expr.NewBinary(expr.Gt, expr.NewIdent("x"), expr.NewInt(1))
	b := expr.NewBinary(expr.Lt, expr.NewIdent("x"), expr.NewInt(9))

	split := &Comprehension{Var: "x", Source: expr.NewIdent("xs"), Clauses: []expr.Expr{a, b}, Output: expr.NewIdent("x")}
	joined := &Comprehension{Var: "y", Source: expr.NewIdent("xs"), Clauses: []expr.Expr{
		expr.NewBinary(expr.And, expr.Rename(a, "x", "y"), expr.Rename(b, "x", "y")),
	}, Output: expr.NewIdent("y")}

	ok, divergence := Equivalent(split, joined)
	assert.True(t, ok)
	assert.Zero(t, divergence)
	assert.False(t, split.Equal(joined))
}

func TestEquivalentReportsDivergence(t *testing.T) {
	want := double("x")
	got := double("x")
	got.Clauses = append(got.Clauses, expr.NewBool(true))

	ok, divergence := Equivalent(want, got)
	assert.False(t, ok)
	assert.Equal(t, "condition 2", divergence.Part)
	assert.Zero(t, divergence.Want)

	got = double("x")
	got.Output = expr.NewIdent("x")
	ok, divergence = Equivalent(want, got)
	assert.False(t, ok)
	assert.Equal(t, "output", divergence.Part)
}
