package expr

import (
	"strconv"
)

// Walk visits e in depth-first pre-order. Returning false from fn skips the
// children of the current node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}

	switch e := e.(type) {
	case *Unary:
		Walk(e.X, fn)
	case *Binary:
		Walk(e.Left, fn)
		Walk(e.Right, fn)
	case *Call:
		Walk(e.Func, fn)
		for _, arg := range e.Args {
			Walk(arg, fn)
		}
	case *Attr:
		Walk(e.X, fn)
	case *Index:
		Walk(e.X, fn)
		Walk(e.Index, fn)
	case *List:
		for _, elem := range e.Elems {
			Walk(elem, fn)
		}
	case *Dict:
		for _, entry := range e.Entries {
			Walk(entry.Key, fn)
			Walk(entry.Value, fn)
		}
	}
}

// Idents returns the identifier names referenced by e in first-occurrence
// order. Attribute names are not identifiers.
func Idents(e Expr) []string {
	var names []string
	seen := map[string]bool{}

	Walk(e, func(n Expr) bool {
		if ident, ok := n.(*Ident); ok && !seen[ident.Name] {
			seen[ident.Name] = true
			names = append(names, ident.Name)
		}

		return true
	})

	return names
}

// Mentions reports whether name occurs as an identifier in e.
func Mentions(e Expr, name string) bool {
	found := false

	Walk(e, func(n Expr) bool {
		if found {
			return false
		}

		if ident, ok := n.(*Ident); ok && ident.Name == name {
			found = true
		}

		return !found
	})

	return found
}

// Clone returns a deep copy of e.
func Clone(e Expr) Expr {
	return rewrite(e, func(Expr) Expr { return nil })
}

// Substitute replaces every occurrence of the identifier name in e with a fresh
// copy of replacement. The input tree is not modified.
func Substitute(e Expr, name string, replacement Expr) Expr {
	return rewrite(e, func(n Expr) Expr {
		if ident, ok := n.(*Ident); ok && ident.Name == name {
			return Clone(replacement)
		}

		return nil
	})
}

// Rename substitutes the identifier from with an identifier to.
func Rename(e Expr, from, to string) Expr {
	if from == to {
		return Clone(e)
	}

	return Substitute(e, from, NewIdent(to))
}

// rewrite copies e bottom-up. When replace returns non-nil for a node, that
// value is used instead of copying the node.
func rewrite(e Expr, replace func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}

	if r := replace(e); r != nil {
		return r
	}

	switch e := e.(type) {
	case *Literal:
		copied := *e
		return &copied
	case *Ident:
		return &Ident{Name: e.Name}
	case *Unary:
		return &Unary{Op: e.Op, X: rewrite(e.X, replace)}
	case *Binary:
		return &Binary{Op: e.Op, Left: rewrite(e.Left, replace), Right: rewrite(e.Right, replace)}
	case *Call:
		return &Call{Func: rewrite(e.Func, replace), Args: rewriteAll(e.Args, replace)}
	case *Attr:
		return &Attr{X: rewrite(e.X, replace), Name: e.Name}
	case *Index:
		return &Index{X: rewrite(e.X, replace), Index: rewrite(e.Index, replace)}
	case *List:
		return &List{Elems: rewriteAll(e.Elems, replace)}
	case *Dict:
		entries := make([]DictEntry, len(e.Entries))
		for i, entry := range e.Entries {
			entries[i] = DictEntry{Key: rewrite(entry.Key, replace), Value: rewrite(entry.Value, replace)}
		}

		return &Dict{Entries: entries}
	default:
		return e
	}
}

func rewriteAll(list []Expr, replace func(Expr) Expr) []Expr {
	if list == nil {
		return nil
	}

	result := make([]Expr, len(list))
	for i, e := range list {
		result[i] = rewrite(e, replace)
	}

	return result
}

// Conjuncts flattens the top-level And nodes of e.
func Conjuncts(e Expr) []Expr {
	if b, ok := e.(*Binary); ok && b.Op == And {
		return append(Conjuncts(b.Left), Conjuncts(b.Right)...)
	}

	return []Expr{e}
}

// JoinConjuncts builds a left-associated And of conds. It returns nil for an
// empty list.
func JoinConjuncts(conds []Expr) Expr {
	var result Expr
	for _, c := range conds {
		if result == nil {
			result = Clone(c)
			continue
		}

		result = NewBinary(And, result, Clone(c))
	}

	return result
}

// FreshName returns base, or base followed by the smallest positive integer,
// that is not in taken.
func FreshName(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}

	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}
