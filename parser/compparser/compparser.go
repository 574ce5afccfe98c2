// Package compparser parses single-generator list comprehensions:
//
//	[name =] [output for var in source if cond ...]
package compparser

import (
	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/expr"
	cmn "github.com/shibukawa/declo/parser/parsercommon"
	tok "github.com/shibukawa/declo/tokenizer"
)

var (
	// assignment := Ident '='
	assignment = pc.Seq(cmn.Identifier, cmn.Assign)

	// generator := 'for' Ident 'in'
	generator = pc.Seq(cmn.For, cmn.Identifier, cmn.In)

	expression = cmn.Expression(cmn.Python)
)

// Parse parses a comprehension program.
func Parse(text string) (*comprehension.Comprehension, error) {
	rawTokens, err := tok.Tokenize(text, cmn.Python.Dialect)
	if err != nil {
		return nil, cmn.FromTokenizerError(err, text)
	}

	tokens := cmn.TokenToEntity(rawTokens)
	pctx := cmn.NewParseContext()

	result, err := parseProgram(pctx, tokens)
	if err != nil {
		if syntaxErr, ok := cmn.AsSyntaxError(err); ok {
			syntaxErr.Source = text
			return nil, syntaxErr
		}

		return nil, err
	}

	return result, nil
}

func parseProgram(pctx *pc.ParseContext[cmn.Entity], tokens []pc.Token[cmn.Entity]) (*comprehension.Comprehension, error) {
	result := &comprehension.Comprehension{}
	offset := 0

	if consumed, match, err := assignment(pctx, tokens); err == nil {
		result.Target = match[0].Val.Original.Value
		if cmn.JavaScript.Dialect.IsKeyword(result.Target) {
			return nil, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, match[0].Val.Original,
				"%q is reserved in javascript and cannot be assigned", result.Target)
		}

		offset += consumed
	}

	consumed, open, err := cmn.BracketOpen(pctx, tokens[offset:])
	if err != nil {
		return nil, cmn.Unexpected(tokens, offset, "'[' starting a list comprehension")
	}

	offset += consumed
	bracket := open[0].Val.Original

	consumed, match, err := expression(pctx, tokens[offset:])
	if err != nil {
		return nil, err
	}

	result.Output = match[0].Val.Node.(expr.Expr)
	offset += consumed

	consumed, match, err = generator(pctx, tokens[offset:])
	if err != nil {
		return nil, generatorError(tokens, offset, bracket)
	}

	result.Var = match[1].Val.Original.Value
	offset += consumed

	consumed, match, err = expression(pctx, tokens[offset:])
	if err != nil {
		return nil, err
	}

	result.Source = match[0].Val.Node.(expr.Expr)
	offset += consumed

	for {
		token := cmn.At(tokens, offset)

		switch token.Type {
		case tok.IF:
			offset++

			consumed, match, err := expression(pctx, tokens[offset:])
			if err != nil {
				return nil, err
			}

			result.Clauses = append(result.Clauses, match[0].Val.Node.(expr.Expr))
			offset += consumed

			continue
		case tok.FOR:
			return nil, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, "multiple for clauses are not supported")
		case tok.CLOSED_BRACKET:
			offset++
		case tok.EOF:
			return nil, cmn.NewSyntaxError(cmn.ErrUnmatchedParen, bracket, "'[' is never closed")
		case tok.CLOSED_PARENS, tok.CLOSED_BRACE:
			return nil, cmn.NewSyntaxError(cmn.ErrUnmatchedParen, token, "%s does not match '[' at %s", cmn.Describe(token), bracket.Position)
		default:
			return nil, cmn.Unexpected(tokens, offset, "'if' or ']'")
		}

		break
	}

	if consumed, _, err := cmn.Semicolon(pctx, tokens[offset:]); err == nil {
		offset += consumed
	}

	if _, _, err := cmn.EOS(pctx, tokens[offset:]); err != nil {
		token := cmn.At(tokens, offset)
		switch token.Type {
		case tok.CLOSED_PARENS, tok.CLOSED_BRACKET, tok.CLOSED_BRACE:
			return nil, cmn.NewSyntaxError(cmn.ErrUnmatchedParen, token, "unmatched %s", cmn.Describe(token))
		}

		return nil, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, "only a single comprehension is supported, found %s after it", cmn.Describe(token))
	}

	if err := cmn.RejectReserved(tokens, freeNames(result), cmn.JavaScript); err != nil {
		return nil, err
	}

	return result, nil
}

// freeNames lists the names the comprehension takes from its surroundings.
// The loop variable is excluded since defusion may rename it.
func freeNames(c *comprehension.Comprehension) map[string]bool {
	names := map[string]bool{}

	for _, name := range expr.Idents(c.Source) {
		names[name] = true
	}

	for _, e := range append([]expr.Expr{c.Output}, c.Clauses...) {
		for _, name := range expr.Idents(e) {
			if name != c.Var {
				names[name] = true
			}
		}
	}

	return names
}

func generatorError(tokens []pc.Token[cmn.Entity], offset int, bracket tok.Token) error {
	token := cmn.At(tokens, offset)

	switch token.Type {
	case tok.CLOSED_BRACKET:
		return cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, "plain list literals are not comprehensions; expected 'for'")
	case tok.COMMA:
		return cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, "tuples are not supported; expected 'for'")
	case tok.EOF:
		return cmn.NewSyntaxError(cmn.ErrUnmatchedParen, bracket, "'[' is never closed")
	case tok.IF:
		return cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, "conditional expressions are not supported")
	case tok.FOR:
		next := cmn.At(tokens, offset+1)
		if next.Type == tok.IDENTIFIER && cmn.At(tokens, offset+2).Type == tok.COMMA {
			return cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, cmn.At(tokens, offset+2), "tuple targets are not supported")
		}

		if next.Type == tok.OPENED_PARENS || next.Type == tok.OPENED_BRACKET {
			return cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, next, "tuple targets are not supported")
		}

		if next.Type != tok.IDENTIFIER {
			return cmn.Unexpected(tokens, offset+1, "a loop variable")
		}

		return cmn.Unexpected(tokens, offset+2, "'in'")
	}

	return cmn.Unexpected(tokens, offset, "'for'")
}
