// Package chain models a source collection followed by filter and map stages,
// the shape of a JavaScript style xs.filter(...).map(...) pipeline.
package chain

import (
	"github.com/shibukawa/declo/expr"
)

// StageKind selects between the two supported stage methods.
type StageKind int

const (
	Filter StageKind = iota
	Map
)

func (k StageKind) String() string {
	switch k {
	case Filter:
		return "filter"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// ParseStageKind maps a method name to its kind.
func ParseStageKind(method string) (StageKind, bool) {
	switch method {
	case "filter":
		return Filter, true
	case "map":
		return Map, true
	default:
		return 0, false
	}
}

// Stage is one .filter(p => body) or .map(p => body) call.
type Stage struct {
	Kind  StageKind
	Param string
	Body  expr.Expr
}

func NewFilter(param string, body expr.Expr) Stage {
	return Stage{Kind: Filter, Param: param, Body: body}
}

func NewMap(param string, body expr.Expr) Stage {
	return Stage{Kind: Map, Param: param, Body: body}
}

// Binding is an optional declaration prefix such as "const evens =".
type Binding struct {
	Keyword string
	Name    string
}

// StageSequence is the parsed form of a whole chain.
type StageSequence struct {
	Binding *Binding
	Source  expr.Expr
	Stages  []Stage
}

// Equal compares two sequences structurally, parameter names included.
func (s *StageSequence) Equal(o *StageSequence) bool {
	if s == nil || o == nil {
		return s == o
	}

	if !bindingEqual(s.Binding, o.Binding) || !expr.Equal(s.Source, o.Source) || len(s.Stages) != len(o.Stages) {
		return false
	}

	for i := range s.Stages {
		a, b := s.Stages[i], o.Stages[i]
		if a.Kind != b.Kind || a.Param != b.Param || !expr.Equal(a.Body, b.Body) {
			return false
		}
	}

	return true
}

func bindingEqual(a, b *Binding) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Keyword == b.Keyword && a.Name == b.Name
}

// Count returns the number of stages of the given kind.
func (s *StageSequence) Count(kind StageKind) int {
	n := 0
	for _, stage := range s.Stages {
		if stage.Kind == kind {
			n++
		}
	}

	return n
}

// Target returns the bound name, or "" for a bare expression.
func (s *StageSequence) Target() string {
	if s.Binding == nil {
		return ""
	}

	return s.Binding.Name
}
