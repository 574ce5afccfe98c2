// Package chainparser parses programs of the form
//
//	[const name =] source.filter(p => cond).map(p => expr)... [;]
package chainparser

import (
	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/expr"
	cmn "github.com/shibukawa/declo/parser/parsercommon"
	tok "github.com/shibukawa/declo/tokenizer"
)

var (
	// declaration := Decl Ident '='
	declaration = pc.Trans(
		pc.Seq(cmn.Declare, cmn.Identifier, cmn.Assign),
		func(pctx *pc.ParseContext[cmn.Entity], tokens []pc.Token[cmn.Entity]) ([]pc.Token[cmn.Entity], error) {
			return []pc.Token[cmn.Entity]{
				{
					Type: "declaration",
					Pos:  tokens[0].Pos,
					Val: cmn.Entity{
						Original: tokens[0].Val.Original,
						Node: &chain.Binding{
							Keyword: tokens[0].Val.Original.Value,
							Name:    tokens[1].Val.Original.Value,
						},
						End: tokens[2].Val.End,
					},
				},
			}, nil
		},
	)

	// stageHead := '.' Method '('
	stageHead = pc.Seq(cmn.Dot, cmn.MemberName, cmn.ParenOpen)

	// arrowHead := Ident '=>' | '(' Ident ')' '=>'
	arrowHead = pc.Trans(
		pc.Or(
			pc.Seq(cmn.Identifier, cmn.Arrow),
			pc.Seq(cmn.ParenOpen, cmn.Identifier, cmn.ParenClose, cmn.Arrow),
		),
		func(pctx *pc.ParseContext[cmn.Entity], tokens []pc.Token[cmn.Entity]) ([]pc.Token[cmn.Entity], error) {
			param := tokens[0]
			if len(tokens) == 4 {
				param = tokens[1]
			}

			return []pc.Token[cmn.Entity]{param}, nil
		},
	)

	source = cmn.SourceExpression(cmn.JavaScript)
	body   = cmn.Expression(cmn.JavaScript)
)

// Parse parses a chain program.
func Parse(text string) (*chain.StageSequence, error) {
	rawTokens, err := tok.Tokenize(text, cmn.JavaScript.Dialect)
	if err != nil {
		return nil, cmn.FromTokenizerError(err, text)
	}

	tokens := cmn.TokenToEntity(rawTokens)
	pctx := cmn.NewParseContext()

	seq, err := parseProgram(pctx, tokens)
	if err != nil {
		if syntaxErr, ok := cmn.AsSyntaxError(err); ok {
			syntaxErr.Source = text
			return nil, syntaxErr
		}

		return nil, err
	}

	return seq, nil
}

func parseProgram(pctx *pc.ParseContext[cmn.Entity], tokens []pc.Token[cmn.Entity]) (*chain.StageSequence, error) {
	result := &chain.StageSequence{}
	offset := 0

	consumed, match, err := declaration(pctx, tokens)
	if err == nil {
		result.Binding = match[0].Val.Node.(*chain.Binding)
		if cmn.JavaScript.Dialect.IsKeyword(result.Binding.Name) {
			return nil, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, tokens[1].Val.Original,
				"%q cannot be declared", result.Binding.Name)
		}

		offset += consumed
	} else if cmn.At(tokens, 0).Type == tok.DECLARE {
		return nil, cmn.Unexpected(tokens, 1, "a declaration of the form 'const name ='")
	}

	consumed, match, err = source(pctx, tokens[offset:])
	if err != nil {
		return nil, err
	}

	result.Source = match[0].Val.Node.(expr.Expr)
	offset += consumed

	for cmn.At(tokens, offset).Type == tok.DOT {
		stage, consumed, err := parseStage(pctx, tokens, offset)
		if err != nil {
			return nil, err
		}

		result.Stages = append(result.Stages, stage)
		offset += consumed
	}

	if consumed, _, err := cmn.Semicolon(pctx, tokens[offset:]); err == nil {
		offset += consumed
	}

	if _, _, err := cmn.EOS(pctx, tokens[offset:]); err != nil {
		token := cmn.At(tokens, offset)
		switch token.Type {
		case tok.CLOSED_PARENS, tok.CLOSED_BRACKET, tok.CLOSED_BRACE:
			return nil, cmn.NewSyntaxError(cmn.ErrUnmatchedParen, token, "unmatched %s", cmn.Describe(token))
		case tok.SEMICOLON:
			return nil, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, "multiple statements are not supported")
		}

		if offset > 0 && cmn.At(tokens, offset-1).Type == tok.SEMICOLON {
			return nil, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, "multiple statements are not supported")
		}

		return nil, cmn.Unexpected(tokens, offset, "'.filter(...)', '.map(...)' or end of input")
	}

	if err := cmn.RejectReserved(tokens, freeNames(result), cmn.Python); err != nil {
		return nil, err
	}

	return result, nil
}

// freeNames lists the names the chain takes from its surroundings, including
// the declared name. Stage parameters are excluded since fusion may rename
// them.
func freeNames(seq *chain.StageSequence) map[string]bool {
	names := map[string]bool{}

	if seq.Binding != nil {
		names[seq.Binding.Name] = true
	}

	for _, name := range expr.Idents(seq.Source) {
		names[name] = true
	}

	for _, stage := range seq.Stages {
		for _, name := range expr.Idents(stage.Body) {
			if name != stage.Param {
				names[name] = true
			}
		}
	}

	return names
}

// parseStage parses one ".method(p => body)" starting at tokens[start].
func parseStage(pctx *pc.ParseContext[cmn.Entity], tokens []pc.Token[cmn.Entity], start int) (chain.Stage, int, error) {
	offset := start

	consumed, head, err := stageHead(pctx, tokens[offset:])
	if err != nil {
		return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, cmn.At(tokens, offset),
			"only .filter(...) and .map(...) calls with an arrow function may follow the source")
	}

	method := head[1].Val.Original
	open := head[2].Val.Original
	offset += consumed

	if !cmn.ArrowStartsAt(tokens, offset) {
		if cmn.At(tokens, offset).Type == tok.OPENED_PARENS {
			return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, cmn.At(tokens, offset),
				"arrow functions must take exactly one parameter")
		}

		return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, cmn.At(tokens, offset),
			"the argument of .%s() must be an arrow function", method.Value)
	}

	kind, ok := chain.ParseStageKind(method.Value)
	if !ok {
		return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnknownStageMethod, method,
			"unknown stage method %q (expected filter or map)", method.Value)
	}

	consumed, param, err := arrowHead(pctx, tokens[offset:])
	if err != nil {
		return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, cmn.At(tokens, offset),
			"arrow functions must take exactly one parameter")
	}

	paramToken := param[0].Val.Original
	if cmn.JavaScript.Dialect.IsKeyword(paramToken.Value) {
		return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, paramToken,
			"%q cannot be an arrow function parameter", paramToken.Value)
	}

	offset += consumed

	if cmn.At(tokens, offset).Type == tok.OPENED_BRACE {
		return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, cmn.At(tokens, offset),
			"block-bodied arrow functions are not supported")
	}

	consumed, match, err := body(pctx, tokens[offset:])
	if err != nil {
		return chain.Stage{}, 0, err
	}

	offset += consumed

	if _, _, err := cmn.ParenClose(pctx, tokens[offset:]); err != nil {
		token := cmn.At(tokens, offset)
		if token.Type == tok.EOF {
			return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnmatchedParen, open, "'(' of .%s is never closed", method.Value)
		}

		if token.Type == tok.COMMA {
			return chain.Stage{}, 0, cmn.NewSyntaxError(cmn.ErrUnsupportedSyntax, token, ".%s() takes a single argument", method.Value)
		}

		return chain.Stage{}, 0, cmn.Unexpected(tokens, offset, "')'")
	}

	offset++

	return chain.Stage{
		Kind:  kind,
		Param: param[0].Val.Original.Value,
		Body:  match[0].Val.Node.(expr.Expr),
	}, offset - start, nil
}
