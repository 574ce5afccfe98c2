package parsercommon

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"

	tok "github.com/shibukawa/declo/tokenizer"
)

func TestSyntaxError(t *testing.T) {
	token := tok.Token{Type: tok.IDENTIFIER, Value: "reduce", Position: tok.Position{Line: 1, Column: 6, Offset: 5}, Length: 6}
	err := NewSyntaxError(ErrUnknownStageMethod, token, "unknown stage method %q", "reduce")

	assert.Equal(t, Span{Start: 5, End: 11}, err.Span)
	assert.Equal(t, `unknown stage method at line 1, column 6: unknown stage method "reduce"`, err.Error())
	assert.True(t, errors.Is(err, ErrSyntax))
	assert.True(t, errors.Is(err, ErrUnknownStageMethod))
	assert.False(t, errors.Is(err, ErrUnmatchedParen))

	wrapped := fmt.Errorf("compile: %w", err)
	found, ok := AsSyntaxError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, err, found)

	_, ok = AsSyntaxError(errors.New("other"))
	assert.False(t, ok)
}

func TestSyntaxErrorSnippet(t *testing.T) {
	tests := []struct {
		name     string
		err      *SyntaxError
		expected string
	}{
		{
			name:     "single line",
			err:      &SyntaxError{Source: "nums.filter(x => x ? 1 : 2)", Span: Span{Start: 19, End: 20}},
			expected: "nums.filter(x => x ? 1 : 2)\n                   ^",
		},
		{
			name:     "second line",
			err:      &SyntaxError{Source: "a = [x\n  for y]\n", Span: Span{Start: 14, End: 15}},
			expected: "  for y]\n       ^",
		},
		{
			name:     "wide characters",
			err:      &SyntaxError{Source: "a = 日本 ?", Span: Span{Start: 11, End: 12}},
			expected: "a = 日本 ?\n         ^",
		},
		{
			name:     "end of input",
			err:      &SyntaxError{Source: "[1, 2", Span: Span{Start: 5, End: 5}},
			expected: "[1, 2\n     ^",
		},
		{
			name:     "no source",
			err:      &SyntaxError{Span: Span{Start: 3, End: 4}},
			expected: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Snippet())
		})
	}
}

func TestFromTokenizerError(t *testing.T) {
	source := `xs.map(x => "abc)`
	_, err := tok.Tokenize(source, JavaScript.Dialect)
	assert.Error(t, err)

	converted := FromTokenizerError(err, source)
	assert.IsError(t, converted, ErrSyntax)
	assert.IsError(t, converted, tok.ErrUnterminatedString)

	syntaxErr, ok := AsSyntaxError(converted)
	assert.True(t, ok)
	assert.Equal(t, 13, syntaxErr.Token.Position.Column)
	assert.Equal(t, source+"\n            ^", syntaxErr.Snippet())

	plain := errors.New("plain")
	assert.Equal(t, plain, FromTokenizerError(plain, source))
}
