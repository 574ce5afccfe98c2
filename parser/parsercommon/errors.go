package parsercommon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	tok "github.com/shibukawa/declo/tokenizer"
)

// Sentinel errors used throughout parser diagnostics. Every SyntaxError matches
// ErrSyntax and one of the more specific errors.
var (
	ErrSyntax             = errors.New("syntax error")
	ErrUnexpectedToken    = errors.New("unexpected token")
	ErrUnmatchedParen     = errors.New("unmatched parenthesis")
	ErrUnknownStageMethod = errors.New("unknown stage method")
	ErrUnsupportedSyntax  = errors.New("unsupported syntax")
)

// Span is a half-open byte range of the source text.
type Span struct {
	Start int
	End   int
}

// SyntaxError reports malformed or unsupported input.
type SyntaxError struct {
	Kind   error
	Reason string
	Token  tok.Token
	Span   Span
	// Source is the complete input, filled in by the top level parsers.
	Source string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at %s: %s", e.Kind, e.Token.Position, e.Reason)
}

func (e *SyntaxError) Unwrap() []error {
	return []error{ErrSyntax, e.Kind}
}

// Snippet returns the offending source line with a caret marker under the span.
func (e *SyntaxError) Snippet() string {
	if e.Source == "" || e.Span.Start > len(e.Source) {
		return ""
	}

	lineStart := strings.LastIndexByte(e.Source[:e.Span.Start], '\n') + 1
	lineEnd := strings.IndexByte(e.Source[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(e.Source)
	} else {
		lineEnd += lineStart
	}

	end := min(max(e.Span.End, e.Span.Start), lineEnd)
	width := max(1, runewidth.StringWidth(e.Source[e.Span.Start:end]))
	indent := runewidth.StringWidth(e.Source[lineStart:e.Span.Start])

	return e.Source[lineStart:lineEnd] + "\n" + strings.Repeat(" ", indent) + strings.Repeat("^", width)
}

// NewSyntaxError builds an error that points at token.
func NewSyntaxError(kind error, token tok.Token, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Kind:   kind,
		Reason: fmt.Sprintf(format, args...),
		Token:  token,
		Span:   Span{Start: token.Position.Offset, End: token.End()},
	}
}

// FromTokenizerError converts a lexical error into a SyntaxError.
func FromTokenizerError(err error, source string) error {
	var tokenErr *tok.Error
	if !errors.As(err, &tokenErr) {
		return err
	}

	reason := tokenErr.Err.Error()
	if tokenErr.Text != "" {
		reason += ": " + tokenErr.Text
	}

	return &SyntaxError{
		Kind:   tokenErr.Err,
		Reason: reason,
		Token:  tok.Token{Type: tok.OTHER, Position: tokenErr.Position},
		Span:   Span{Start: tokenErr.Position.Offset, End: tokenErr.Position.Offset + 1},
		Source: source,
	}
}

// AsSyntaxError extracts the SyntaxError carried by a combinator error chain.
func AsSyntaxError(err error) (*SyntaxError, bool) {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr, true
	}

	return nil, false
}
