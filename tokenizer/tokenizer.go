package tokenizer

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// Tokenizer is a tokenizer that returns an iterator
type Tokenizer struct {
	input   string
	dialect *Dialect
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	SkipComments   bool
}

// NewTokenizer creates a new Tokenizer
func NewTokenizer(input string, dialect *Dialect, options ...TokenizerOptions) *Tokenizer {
	opts := TokenizerOptions{}
	if len(options) > 0 {
		opts = options[0]
	}

	return &Tokenizer{
		input:   input,
		dialect: dialect,
		options: opts,
	}
}

// Tokenize returns the significant tokens of input, terminated by an EOF token.
func Tokenize(input string, dialect *Dialect) ([]Token, error) {
	return NewTokenizer(input, dialect, TokenizerOptions{SkipWhitespace: true, SkipComments: true}).AllTokens()
}

// Tokens returns an iterator of tokens. The iterator stops after the first error.
func (t *Tokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input:   t.input,
			line:    1,
			column:  1,
			dialect: t.dialect,
		}

		tokenizer.readChar()

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				yield(Token{}, err)
				return
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}

			if t.options.SkipComments && (token.Type == LINE_COMMENT || token.Type == BLOCK_COMMENT) {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice
func (t *Tokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 64)

	for token, err := range t.Tokens() {
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

var operators = []struct {
	text      string
	tokenType TokenType
}{
	{"===", STRICT_EQUAL},
	{"!==", STRICT_NOT_EQUAL},
	{"**", POWER},
	{"=>", ARROW},
	{"==", EQUAL},
	{"!=", NOT_EQUAL},
	{"<=", LESS_EQUAL},
	{">=", GREATER_EQUAL},
	{"&&", LOGICAL_AND},
	{"||", LOGICAL_OR},
	{"(", OPENED_PARENS},
	{")", CLOSED_PARENS},
	{"[", OPENED_BRACKET},
	{"]", CLOSED_BRACKET},
	{"{", OPENED_BRACE},
	{"}", CLOSED_BRACE},
	{",", COMMA},
	{";", SEMICOLON},
	{":", COLON},
	{".", DOT},
	{"=", ASSIGN},
	{"?", QUESTION},
	{"+", PLUS},
	{"-", MINUS},
	{"*", MULTIPLY},
	{"/", DIVIDE},
	{"%", MODULO},
	{"<", LESS_THAN},
	{">", GREATER_THAN},
	{"!", BANG},
}

type tokenizer struct {
	input   string
	offset  int // byte offset of current
	next    int // byte offset after current
	line    int
	column  int
	current rune
	dialect *Dialect
}

func (t *tokenizer) nextToken() (Token, error) {
	rest := t.input[t.offset:]

	switch {
	case t.offset >= len(t.input):
		return t.tokenFrom(EOF, t.offset, t.line, t.column), nil
	case unicode.IsSpace(t.current):
		return t.readWhitespace(), nil
	case t.dialect.LineComment != "" && strings.HasPrefix(rest, t.dialect.LineComment) && !(t.dialect.FloorDivide && strings.HasPrefix(rest, "//")):
		return t.readLineComment(), nil
	case t.dialect.BlockComments && strings.HasPrefix(rest, "/*"):
		return t.readBlockComment()
	case t.dialect.FloorDivide && strings.HasPrefix(rest, "//"):
		return t.readFixed(FLOOR_DIVIDE, 2), nil
	case t.current == '\'' || t.current == '"':
		return t.readString(t.current)
	case t.isIdentifierStart(t.current):
		return t.readWord(), nil
	case unicode.IsDigit(t.current):
		return t.readNumber()
	}

	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			return t.readFixed(op.tokenType, len(op.text)), nil
		}
	}

	return t.readFixed(OTHER, 1), nil
}

// readChar advances to the next rune
func (t *tokenizer) readChar() {
	if t.current == '\n' {
		t.line++
		t.column = 1
	} else if t.next > 0 {
		t.column++
	}

	t.offset = t.next
	if t.next >= len(t.input) {
		t.current = 0
		t.next = len(t.input)
		return
	}

	r, width := utf8.DecodeRuneInString(t.input[t.next:])
	t.current = r
	t.next += width
}

func (t *tokenizer) peekChar() rune {
	if t.next >= len(t.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(t.input[t.next:])

	return r
}

func (t *tokenizer) isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || (r == '$' && !t.dialect.NormalizeIdentifiers)
}

func (t *tokenizer) isIdentifierPart(r rune) bool {
	return t.isIdentifierStart(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// tokenFrom builds a token spanning from start to the current offset
func (t *tokenizer) tokenFrom(tokenType TokenType, start, line, column int) Token {
	return Token{
		Type:  tokenType,
		Value: t.input[start:t.offset],
		Position: Position{
			Line:   line,
			Column: column,
			Offset: start,
		},
		Length: t.offset - start,
	}
}

// readFixed consumes a token of n ASCII bytes
func (t *tokenizer) readFixed(tokenType TokenType, n int) Token {
	start, line, column := t.offset, t.line, t.column
	for range n {
		t.readChar()
	}

	return t.tokenFrom(tokenType, start, line, column)
}

func (t *tokenizer) readWhitespace() Token {
	start, line, column := t.offset, t.line, t.column
	for t.offset < len(t.input) && unicode.IsSpace(t.current) {
		t.readChar()
	}

	return t.tokenFrom(WHITESPACE, start, line, column)
}

// readWord reads identifiers and keywords
func (t *tokenizer) readWord() Token {
	start, line, column := t.offset, t.line, t.column
	for t.offset < len(t.input) && t.isIdentifierPart(t.current) {
		t.readChar()
	}

	token := t.tokenFrom(IDENTIFIER, start, line, column)
	token.Type, token.Value = t.dialect.classifyWord(token.Value)

	return token
}

// readString reads string literals. The value keeps its quotes; see Unquote.
func (t *tokenizer) readString(delimiter rune) (Token, error) {
	start, line, column := t.offset, t.line, t.column
	t.readChar()

	for t.offset < len(t.input) && t.current != delimiter && t.current != '\n' {
		if t.current == '\\' {
			t.readChar()
			if t.offset >= len(t.input) {
				break
			}
		}

		t.readChar()
	}

	if t.current != delimiter || t.offset >= len(t.input) {
		return Token{}, &Error{Err: ErrUnterminatedString, Position: Position{Line: line, Column: column, Offset: start}}
	}

	t.readChar()

	return t.tokenFrom(STRING, start, line, column), nil
}

// readNumber reads numeric literals
func (t *tokenizer) readNumber() (Token, error) {
	start, line, column := t.offset, t.line, t.column

	for unicode.IsDigit(t.current) {
		t.readChar()
	}

	if t.current == '.' && unicode.IsDigit(t.peekChar()) {
		t.readChar()

		for unicode.IsDigit(t.current) {
			t.readChar()
		}
	} else if t.current == '.' && t.dialect.TrailingDotFloats {
		if next := t.peekChar(); next != '.' && (!t.isIdentifierStart(next) || next == 'e' || next == 'E') {
			t.readChar()
		}
	}

	if t.current == 'e' || t.current == 'E' {
		t.readChar()

		if t.current == '+' || t.current == '-' {
			t.readChar()
		}

		if !unicode.IsDigit(t.current) {
			return Token{}, &Error{Err: ErrInvalidNumber, Position: Position{Line: line, Column: column, Offset: start}, Text: "invalid exponent"}
		}

		for unicode.IsDigit(t.current) {
			t.readChar()
		}
	}

	if t.offset < len(t.input) && t.isIdentifierPart(t.current) {
		return Token{}, &Error{Err: ErrInvalidNumber, Position: Position{Line: line, Column: column, Offset: start}, Text: t.input[start:t.next]}
	}

	return t.tokenFrom(NUMBER, start, line, column), nil
}

func (t *tokenizer) readLineComment() Token {
	start, line, column := t.offset, t.line, t.column
	for t.offset < len(t.input) && t.current != '\n' {
		t.readChar()
	}

	return t.tokenFrom(LINE_COMMENT, start, line, column)
}

func (t *tokenizer) readBlockComment() (Token, error) {
	start, line, column := t.offset, t.line, t.column
	t.readChar()
	t.readChar()

	for t.offset < len(t.input) {
		if t.current == '*' && t.peekChar() == '/' {
			t.readChar()
			t.readChar()

			return t.tokenFrom(BLOCK_COMMENT, start, line, column), nil
		}

		t.readChar()
	}

	return Token{}, &Error{Err: ErrUnterminatedComment, Position: Position{Line: line, Column: column, Offset: start}}
}
