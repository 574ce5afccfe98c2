package tokenizer

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedComment = errors.New("unterminated block comment")
	ErrInvalidNumber       = errors.New("invalid number format")
	ErrInvalidEscape       = errors.New("invalid escape sequence")
)

// TokenType represents the type of a token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	WHITESPACE
	IDENTIFIER
	KEYWORD // reserved word with no dedicated token type
	NUMBER
	STRING
	BOOLEAN
	NULL

	// Brackets and punctuation
	OPENED_PARENS  // (
	CLOSED_PARENS  // )
	OPENED_BRACKET // [
	CLOSED_BRACKET // ]
	OPENED_BRACE   // {
	CLOSED_BRACE   // }
	COMMA          // ,
	SEMICOLON      // ;
	COLON          // :
	DOT            // .
	ARROW          // =>
	ASSIGN         // =
	QUESTION       // ?

	// Arithmetic operators
	PLUS         // +
	MINUS        // -
	MULTIPLY     // *
	DIVIDE       // /
	FLOOR_DIVIDE // // (Python only)
	MODULO       // %
	POWER        // **

	// Comparison operators
	EQUAL            // ==
	STRICT_EQUAL     // ===
	NOT_EQUAL        // !=
	STRICT_NOT_EQUAL // !==
	LESS_THAN        // <
	GREATER_THAN     // >
	LESS_EQUAL       // <=
	GREATER_EQUAL    // >=

	// Logical operators
	LOGICAL_AND // &&
	LOGICAL_OR  // ||
	BANG        // !
	AND         // and
	OR          // or
	NOT         // not

	// Comprehension keywords
	FOR // for
	IN  // in
	IF  // if

	// Declarations
	DECLARE // const, let, var

	// Comments
	LINE_COMMENT  // // or #
	BLOCK_COMMENT // /* */

	// Others
	OTHER
)

var tokenTypeNames = map[TokenType]string{
	EOF:              "EOF",
	WHITESPACE:       "WHITESPACE",
	IDENTIFIER:       "IDENTIFIER",
	KEYWORD:          "KEYWORD",
	NUMBER:           "NUMBER",
	STRING:           "STRING",
	BOOLEAN:          "BOOLEAN",
	NULL:             "NULL",
	OPENED_PARENS:    "OPENED_PARENS",
	CLOSED_PARENS:    "CLOSED_PARENS",
	OPENED_BRACKET:   "OPENED_BRACKET",
	CLOSED_BRACKET:   "CLOSED_BRACKET",
	OPENED_BRACE:     "OPENED_BRACE",
	CLOSED_BRACE:     "CLOSED_BRACE",
	COMMA:            "COMMA",
	SEMICOLON:        "SEMICOLON",
	COLON:            "COLON",
	DOT:              "DOT",
	ARROW:            "ARROW",
	ASSIGN:           "ASSIGN",
	QUESTION:         "QUESTION",
	PLUS:             "PLUS",
	MINUS:            "MINUS",
	MULTIPLY:         "MULTIPLY",
	DIVIDE:           "DIVIDE",
	FLOOR_DIVIDE:     "FLOOR_DIVIDE",
	MODULO:           "MODULO",
	POWER:            "POWER",
	EQUAL:            "EQUAL",
	STRICT_EQUAL:     "STRICT_EQUAL",
	NOT_EQUAL:        "NOT_EQUAL",
	STRICT_NOT_EQUAL: "STRICT_NOT_EQUAL",
	LESS_THAN:        "LESS_THAN",
	GREATER_THAN:     "GREATER_THAN",
	LESS_EQUAL:       "LESS_EQUAL",
	GREATER_EQUAL:    "GREATER_EQUAL",
	LOGICAL_AND:      "LOGICAL_AND",
	LOGICAL_OR:       "LOGICAL_OR",
	BANG:             "BANG",
	AND:              "AND",
	OR:               "OR",
	NOT:              "NOT",
	FOR:              "FOR",
	IN:               "IN",
	IF:               "IF",
	DECLARE:          "DECLARE",
	LINE_COMMENT:     "LINE_COMMENT",
	BLOCK_COMMENT:    "BLOCK_COMMENT",
	OTHER:            "OTHER",
}

// String returns the string representation of TokenType
func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}

	return "UNKNOWN"
}

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
	// Length is the number of source bytes the token occupies. It can differ from
	// len(Value) when the dialect normalizes identifiers.
	Length int
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Position.Offset + t.Length
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// Error is a lexical error with the position where it was detected.
type Error struct {
	Err      error
	Position Position
	Text     string
}

func (e *Error) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("%v: %s at %s", e.Err, e.Text, e.Position)
	}

	return fmt.Sprintf("%v at %s", e.Err, e.Position)
}

func (e *Error) Unwrap() error {
	return e.Err
}
