package tokenizer

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTokenIterator(t *testing.T) {
	source := "nums.filter(x => x % 2 == 0)"
	tokenizer := NewTokenizer(source, NewJavaScriptDialect())

	expectedTypes := []TokenType{
		IDENTIFIER, DOT, IDENTIFIER, OPENED_PARENS, IDENTIFIER, WHITESPACE, ARROW, WHITESPACE,
		IDENTIFIER, WHITESPACE, MODULO, WHITESPACE, NUMBER, WHITESPACE, EQUAL, WHITESPACE, NUMBER,
		CLOSED_PARENS, EOF,
	}

	var actualTypes []TokenType
	for token, err := range tokenizer.Tokens() {
		assert.NoError(t, err)

		actualTypes = append(actualTypes, token.Type)
	}

	assert.Equal(t, expectedTypes, actualTypes)
}

func TestIteratorEarlyTermination(t *testing.T) {
	tokenizer := NewTokenizer("a.map(b => b * 2)", NewJavaScriptDialect())

	count := 0
	for _, err := range tokenizer.Tokens() {
		assert.NoError(t, err)

		count++
		if count >= 5 {
			break
		}
	}

	assert.Equal(t, 5, count)
}

func TestDialectTokens(t *testing.T) {
	tests := []struct {
		name     string
		dialect  *Dialect
		input    string
		expected []TokenType
	}{
		{
			name:     "comprehension",
			dialect:  NewPythonDialect(),
			input:    "[x * 2 for x in nums if x > 1]",
			expected: []TokenType{OPENED_BRACKET, IDENTIFIER, MULTIPLY, NUMBER, FOR, IDENTIFIER, IN, IDENTIFIER, IF, IDENTIFIER, GREATER_THAN, NUMBER, CLOSED_BRACKET, EOF},
		},
		{
			name:     "python logical keywords",
			dialect:  NewPythonDialect(),
			input:    "not a and b or None",
			expected: []TokenType{NOT, IDENTIFIER, AND, IDENTIFIER, OR, NULL, EOF},
		},
		{
			name:     "python floor division is an operator",
			dialect:  NewPythonDialect(),
			input:    "a // b # trailing",
			expected: []TokenType{IDENTIFIER, FLOOR_DIVIDE, IDENTIFIER, EOF},
		},
		{
			name:     "javascript comments",
			dialect:  NewJavaScriptDialect(),
			input:    "a // c\n.b /* x */",
			expected: []TokenType{IDENTIFIER, DOT, IDENTIFIER, EOF},
		},
		{
			name:     "javascript declaration",
			dialect:  NewJavaScriptDialect(),
			input:    "const r = xs;",
			expected: []TokenType{DECLARE, IDENTIFIER, ASSIGN, IDENTIFIER, SEMICOLON, EOF},
		},
		{
			name:     "javascript strict equality and logic",
			dialect:  NewJavaScriptDialect(),
			input:    "a === b !== !c && d || e ** 2",
			expected: []TokenType{IDENTIFIER, STRICT_EQUAL, IDENTIFIER, STRICT_NOT_EQUAL, BANG, IDENTIFIER, LOGICAL_AND, IDENTIFIER, LOGICAL_OR, IDENTIFIER, POWER, NUMBER, EOF},
		},
		{
			name:     "literals",
			dialect:  NewJavaScriptDialect(),
			input:    `true null 'a' "b" 1.5e3`,
			expected: []TokenType{BOOLEAN, NULL, STRING, STRING, NUMBER, EOF},
		},
		{
			name:     "python literals",
			dialect:  NewPythonDialect(),
			input:    `True False None`,
			expected: []TokenType{BOOLEAN, BOOLEAN, NULL, EOF},
		},
		{
			name:     "python trailing dot floats",
			dialect:  NewPythonDialect(),
			input:    "1. + 2.5 - 3.e2 * xs[4.]",
			expected: []TokenType{NUMBER, PLUS, NUMBER, MINUS, NUMBER, MULTIPLY, IDENTIFIER, OPENED_BRACKET, NUMBER, CLOSED_BRACKET, EOF},
		},
		{
			name:     "javascript member after integer",
			dialect:  NewJavaScriptDialect(),
			input:    "1.x",
			expected: []TokenType{NUMBER, DOT, IDENTIFIER, EOF},
		},
		{
			name:     "unknown character",
			dialect:  NewJavaScriptDialect(),
			input:    "a `b`",
			expected: []TokenType{IDENTIFIER, OTHER, IDENTIFIER, OTHER, EOF},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens, err := Tokenize(test.input, test.dialect)
			assert.NoError(t, err)

			var actual []TokenType
			for _, token := range tokens {
				actual = append(actual, token.Type)
			}

			assert.Equal(t, test.expected, actual)
		})
	}
}

func TestCommentsPreserved(t *testing.T) {
	tokens, err := NewTokenizer("a // c\n.b /* x */", NewJavaScriptDialect()).AllTokens()
	assert.NoError(t, err)

	var actual []TokenType
	for _, token := range tokens {
		actual = append(actual, token.Type)
	}

	assert.Equal(t, []TokenType{IDENTIFIER, WHITESPACE, LINE_COMMENT, WHITESPACE, DOT, IDENTIFIER, WHITESPACE, BLOCK_COMMENT, EOF}, actual)
	assert.Equal(t, "// c", tokens[2].Value)
	assert.Equal(t, "/* x */", tokens[7].Value)
}

func TestPositions(t *testing.T) {
	tokens, err := Tokenize("a\n  bb", NewJavaScriptDialect())
	assert.NoError(t, err)
	assert.Equal(t, 3, len(tokens))

	assert.Equal(t, Position{Line: 1, Column: 1, Offset: 0}, tokens[0].Position)
	assert.Equal(t, Position{Line: 2, Column: 3, Offset: 4}, tokens[1].Position)
	assert.Equal(t, 6, tokens[1].End())
}

func TestMultiByteColumns(t *testing.T) {
	tokens, err := Tokenize("'é' + y", NewJavaScriptDialect())
	assert.NoError(t, err)

	assert.Equal(t, STRING, tokens[0].Type)
	assert.Equal(t, 4, tokens[0].Length)
	assert.Equal(t, Position{Line: 1, Column: 5, Offset: 5}, tokens[1].Position)
}

func TestPythonIdentifierNormalization(t *testing.T) {
	tokens, err := Tokenize("ｘ + x", NewPythonDialect())
	assert.NoError(t, err)

	assert.Equal(t, "x", tokens[0].Value)
	assert.Equal(t, 3, tokens[0].Length)
	assert.Equal(t, "x", tokens[2].Value)

	tokens, err = Tokenize("ｘ", NewJavaScriptDialect())
	assert.NoError(t, err)
	assert.Equal(t, "ｘ", tokens[0].Value)
}

func TestTokenizerErrors(t *testing.T) {
	tests := []struct {
		name     string
		dialect  *Dialect
		input    string
		expected error
	}{
		{"unterminated string", NewJavaScriptDialect(), `"abc`, ErrUnterminatedString},
		{"string broken by newline", NewPythonDialect(), "'ab\ncd'", ErrUnterminatedString},
		{"bad exponent", NewJavaScriptDialect(), "1e", ErrInvalidNumber},
		{"identifier glued to number", NewPythonDialect(), "12abc", ErrInvalidNumber},
		{"unterminated comment", NewJavaScriptDialect(), "a /* b", ErrUnterminatedComment},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Tokenize(test.input, test.dialect)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, test.expected))

			var tokenErr *Error
			assert.True(t, errors.As(err, &tokenErr))
			assert.Equal(t, 1, tokenErr.Position.Line)
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"abc"`, "abc"},
		{`'it\'s'`, "it's"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"é\x41"`, "éA"},
		{`"back\\slash"`, `back\slash`},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			actual, err := Unquote(test.input)
			assert.NoError(t, err)
			assert.Equal(t, test.expected, actual)
		})
	}

	_, err := Unquote(`"bad \q"`)
	assert.True(t, errors.Is(err, ErrInvalidEscape))
}
