package parsercommon

import (
	"slices"
	"unicode/utf8"

	pc "github.com/shibukawa/parsercombinator"

	tok "github.com/shibukawa/declo/tokenizer"
)

// Entity is the value carried through the combinators. Raw tokens only have
// Original; tokens produced by a transformation also carry the built Node.
type Entity struct {
	Original tok.Token
	Node     any
	// End is the byte offset just past the last source token the entity covers.
	End int
}

var (
	// ParenOpen parses an opening parenthesis.
	ParenOpen = PrimitiveType("parenOpen", tok.OPENED_PARENS)
	// ParenClose parses a closing parenthesis.
	ParenClose = PrimitiveType("parenClose", tok.CLOSED_PARENS)
	// BracketOpen parses an opening square bracket.
	BracketOpen = PrimitiveType("bracketOpen", tok.OPENED_BRACKET)
	// BracketClose parses a closing square bracket.
	BracketClose = PrimitiveType("bracketClose", tok.CLOSED_BRACKET)
	// Comma parses a comma delimiter.
	Comma = PrimitiveType("comma", tok.COMMA)
	// Dot parses a dot token.
	Dot = PrimitiveType("dot", tok.DOT)
	// Semicolon parses a statement terminator.
	Semicolon = PrimitiveType("semicolon", tok.SEMICOLON)
	// Arrow parses "=>".
	Arrow = PrimitiveType("arrow", tok.ARROW)
	// Assign parses "=".
	Assign = PrimitiveType("assign", tok.ASSIGN)
	// Declare parses const, let or var.
	Declare = PrimitiveType("declare", tok.DECLARE)
	// Identifier parses a plain identifier.
	Identifier = PrimitiveType("identifier", tok.IDENTIFIER)
	// MemberName parses anything usable after a dot.
	MemberName = PrimitiveType("memberName", tok.IDENTIFIER, tok.KEYWORD, tok.DECLARE, tok.BOOLEAN, tok.NULL)

	For = PrimitiveType("for", tok.FOR)
	In  = PrimitiveType("in", tok.IN)
	If  = PrimitiveType("if", tok.IF)

	// EOS matches end of stream.
	EOS = pc.EOS[Entity]()
)

// PrimitiveType matches a single token of one of the given types.
func PrimitiveType(typeName string, types ...tok.TokenType) pc.Parser[Entity] {
	return pc.Trace(typeName, func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) (int, []pc.Token[Entity], error) {
		if len(tokens) > 0 && slices.Contains(types, tokens[0].Val.Original.Type) {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	})
}

// TokenToEntity converts tokenizer output for the combinators. EOF is dropped;
// EOS detects the end instead.
func TokenToEntity(tokens []tok.Token) []pc.Token[Entity] {
	results := make([]pc.Token[Entity], 0, len(tokens))
	for _, token := range tokens {
		if token.Type == tok.EOF {
			continue
		}

		results = append(results, pc.Token[Entity]{
			Type: "raw",
			Pos: &pc.Pos{
				Line:  token.Position.Line,
				Col:   token.Position.Column,
				Index: token.Position.Offset,
			},
			Val: Entity{
				Original: token,
				End:      token.End(),
			},
			Raw: token.Value,
		})
	}

	return results
}

// NewParseContext returns the context every parser in this module runs with.
func NewParseContext() *pc.ParseContext[Entity] {
	pctx := pc.NewParseContext[Entity]()
	pctx.MaxDepth = 64
	pctx.OrMode = pc.OrModeTryFast

	return pctx
}

// EndToken returns a zero-width token positioned just after the last token.
func EndToken(tokens []pc.Token[Entity]) tok.Token {
	if len(tokens) == 0 {
		return tok.Token{Type: tok.EOF, Position: tok.Position{Line: 1, Column: 1}}
	}

	last := tokens[len(tokens)-1].Val.Original

	return tok.Token{
		Type: tok.EOF,
		Position: tok.Position{
			Line:   last.Position.Line,
			Column: last.Position.Column + utf8.RuneCountInString(last.Value),
			Offset: last.End(),
		},
	}
}

// At returns the token at i, or the end token when i is past the input.
func At(tokens []pc.Token[Entity], i int) tok.Token {
	if i < len(tokens) {
		return tokens[i].Val.Original
	}

	return EndToken(tokens)
}

// Describe renders a token for error messages.
func Describe(token tok.Token) string {
	if token.Type == tok.EOF {
		return "end of input"
	}

	return "'" + token.Value + "'"
}

// Unexpected reports the token at i as unexpected.
func Unexpected(tokens []pc.Token[Entity], i int, expected string) *SyntaxError {
	token := At(tokens, i)

	return NewSyntaxError(ErrUnexpectedToken, token, "expected %s but found %s", expected, Describe(token))
}
