package expr

import (
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

// Equal reports structural equality of two trees.
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case *Literal:
		b, ok := b.(*Literal)
		return ok && literalEqual(a, b)
	case *Ident:
		b, ok := b.(*Ident)
		return ok && a.Name == b.Name
	case *Unary:
		b, ok := b.(*Unary)
		return ok && a.Op == b.Op && Equal(a.X, b.X)
	case *Binary:
		b, ok := b.(*Binary)
		return ok && a.Op == b.Op && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *Call:
		b, ok := b.(*Call)
		return ok && Equal(a.Func, b.Func) && EqualAll(a.Args, b.Args)
	case *Attr:
		b, ok := b.(*Attr)
		return ok && a.Name == b.Name && Equal(a.X, b.X)
	case *Index:
		b, ok := b.(*Index)
		return ok && Equal(a.X, b.X) && Equal(a.Index, b.Index)
	case *List:
		b, ok := b.(*List)
		return ok && EqualAll(a.Elems, b.Elems)
	case *Dict:
		b, ok := b.(*Dict)
		if !ok || len(a.Entries) != len(b.Entries) {
			return false
		}

		for i := range a.Entries {
			if !Equal(a.Entries[i].Key, b.Entries[i].Key) || !Equal(a.Entries[i].Value, b.Entries[i].Value) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// EqualAll compares two expression lists element-wise.
func EqualAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

func literalEqual(a, b *Literal) bool {
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case IntLiteral, FloatLiteral:
		return a.Num.Equal(b.Num)
	case StringLiteral:
		return a.Str == b.Str
	case BoolLiteral:
		return a.Bool == b.Bool
	default:
		return true
	}
}

// CmpOptions makes go-cmp usable on expression trees.
func CmpOptions() cmp.Options {
	return cmp.Options{
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
	}
}

// Diff returns a human readable diff between two trees, or "" when they match.
func Diff(want, got Expr) string {
	if Equal(want, got) {
		return ""
	}

	return cmp.Diff(want, got, CmpOptions())
}
