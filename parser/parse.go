package parser

import (
	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/parser/chainparser"
	"github.com/shibukawa/declo/parser/compparser"
	cmn "github.com/shibukawa/declo/parser/parsercommon"
)

// Re-export common types for user convenience
type (
	SyntaxError = cmn.SyntaxError
	Span        = cmn.Span
)

// Sentinel errors re-exported from parsercommon.
var (
	ErrSyntax             = cmn.ErrSyntax
	ErrUnexpectedToken    = cmn.ErrUnexpectedToken
	ErrUnmatchedParen     = cmn.ErrUnmatchedParen
	ErrUnknownStageMethod = cmn.ErrUnknownStageMethod
	ErrUnsupportedSyntax  = cmn.ErrUnsupportedSyntax
)

// ParseChain parses chained filter/map notation such as
//
//	const evens = nums.filter(x => x % 2 == 0);
//
// into a stage sequence. Errors are *SyntaxError.
func ParseChain(text string) (*chain.StageSequence, error) {
	return chainparser.Parse(text)
}

// ParseComprehension parses a single-generator list comprehension such as
//
//	evens = [x for x in nums if x % 2 == 0]
//
// Errors are *SyntaxError.
func ParseComprehension(text string) (*comprehension.Comprehension, error) {
	return compparser.Parse(text)
}

// AsSyntaxError extracts a *SyntaxError from an error chain.
func AsSyntaxError(err error) (*SyntaxError, bool) {
	return cmn.AsSyntaxError(err)
}
