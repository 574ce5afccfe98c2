package testrunner

import (
	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/defusion"
	"github.com/shibukawa/declo/formatter"
	"github.com/shibukawa/declo/fusion"
	"github.com/shibukawa/declo/parser"
)

// Engine is the set of transformations the harness exercises. Tests swap in
// deliberately broken engines to check the bookkeeping.
type Engine interface {
	ParseChain(text string) (*chain.StageSequence, error)
	ParseComprehension(text string) (*comprehension.Comprehension, error)
	Fuse(seq *chain.StageSequence) *comprehension.Comprehension
	Defuse(c *comprehension.Comprehension) *chain.StageSequence
	RenderChain(seq *chain.StageSequence) string
	RenderComprehension(c *comprehension.Comprehension) string
}

// DefaultEngine wires the real parsers, compilers and renderers.
type DefaultEngine struct{}

var _ Engine = DefaultEngine{}

func (DefaultEngine) ParseChain(text string) (*chain.StageSequence, error) {
	return parser.ParseChain(text)
}

func (DefaultEngine) ParseComprehension(text string) (*comprehension.Comprehension, error) {
	return parser.ParseComprehension(text)
}

func (DefaultEngine) Fuse(seq *chain.StageSequence) *comprehension.Comprehension {
	return fusion.Fuse(seq)
}

func (DefaultEngine) Defuse(c *comprehension.Comprehension) *chain.StageSequence {
	return defusion.Defuse(c)
}

func (DefaultEngine) RenderChain(seq *chain.StageSequence) string {
	return formatter.RenderChain(seq)
}

func (DefaultEngine) RenderComprehension(c *comprehension.Comprehension) string {
	return formatter.RenderComprehension(c)
}
