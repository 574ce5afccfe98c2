package parsercommon

import (
	"fmt"

	pc "github.com/shibukawa/parsercombinator"

	"github.com/shibukawa/declo/expr"
	tok "github.com/shibukawa/declo/tokenizer"
)

const maxExpressionDepth = 200

// Expression parses one expression of grammar g. The produced token carries the
// expr.Expr in Val.Node. Failures inside the expression are critical errors
// wrapping a *SyntaxError.
func Expression(g *Grammar) pc.Parser[Entity] {
	return expression(g, false)
}

// SourceExpression is Expression for the head of a chain: the postfix loop
// stops in front of the first ".name(" whose argument is an arrow function.
func SourceExpression(g *Grammar) pc.Parser[Entity] {
	return expression(g, true)
}

func expression(g *Grammar, stopBeforeStage bool) pc.Parser[Entity] {
	return pc.Trace(g.Name+"-expression", func(pctx *pc.ParseContext[Entity], tokens []pc.Token[Entity]) (int, []pc.Token[Entity], error) {
		p := &exprParser{grammar: g, tokens: tokens, stopBeforeStage: stopBeforeStage}

		node, err := p.parseExpr(0)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %w", pc.ErrCritical, err)
		}

		return p.pos, []pc.Token[Entity]{
			{
				Type: "expression",
				Pos:  tokens[0].Pos,
				Val: Entity{
					Original: tokens[0].Val.Original,
					Node:     node,
					End:      tokens[p.pos-1].Val.End,
				},
			},
		}, nil
	})
}

type exprParser struct {
	grammar         *Grammar
	tokens          []pc.Token[Entity]
	pos             int
	depth           int
	stopBeforeStage bool
}

func (p *exprParser) peek() tok.Token {
	return At(p.tokens, p.pos)
}

func (p *exprParser) next() tok.Token {
	token := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}

	return token
}

// parseExpr is precedence climbing over the grammar's binary operator table.
func (p *exprParser) parseExpr(minPrec int) (expr.Expr, error) {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > maxExpressionDepth {
		return nil, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "expression is nested too deeply")
	}

	left, parenthesized, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	builtComparison := false

	for {
		token := p.peek()

		if reason, ok := p.grammar.Unsupported[token.Type]; ok {
			return nil, NewSyntaxError(ErrUnsupportedSyntax, token, "%s", reason)
		}

		if token.Type == tok.KEYWORD || (p.grammar.Comprehensions && token.Type == tok.NOT) {
			return nil, NewSyntaxError(ErrUnsupportedSyntax, token, "operator %s is not supported", Describe(token))
		}

		rule, ok := p.grammar.Binary[token.Type]
		if !ok || rule.Prec < minPrec {
			return left, nil
		}

		if rule.Op.IsComparison() && builtComparison && p.grammar.ChainedComparisons {
			return nil, NewSyntaxError(ErrUnsupportedSyntax, token, "chained comparisons are not supported")
		}

		if rule.Op == expr.Pow && p.grammar.UnaryPowBase && !parenthesized {
			if _, ok := left.(*expr.Unary); ok {
				return nil, NewSyntaxError(ErrUnexpectedToken, token, "unary operand on the left of '**' must be parenthesized")
			}
		}

		p.next()

		nextMin := rule.Prec + 1
		if rule.RightAssoc {
			nextMin = rule.Prec
		}

		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}

		left = expr.NewBinary(rule.Op, left, right)
		parenthesized = false
		builtComparison = rule.Op.IsComparison()
	}
}

func (p *exprParser) parseUnary() (expr.Expr, bool, error) {
	token := p.peek()

	if rule, ok := p.grammar.Prefix[token.Type]; ok {
		p.next()

		operand, err := p.parseExpr(rule.Prec)
		if err != nil {
			return nil, false, err
		}

		return expr.NewUnary(rule.Op, operand), false, nil
	}

	primary, parenthesized, err := p.parsePrimary()
	if err != nil {
		return nil, false, err
	}

	result, err := p.parsePostfix(primary)
	if err != nil {
		return nil, false, err
	}

	if result != primary {
		parenthesized = false
	}

	return result, parenthesized, nil
}

func (p *exprParser) parsePrimary() (expr.Expr, bool, error) {
	token := p.peek()

	switch token.Type {
	case tok.NUMBER:
		p.next()

		literal, err := expr.NewNumber(token.Value)
		if err != nil {
			return nil, false, NewSyntaxError(tok.ErrInvalidNumber, token, "invalid number %s", Describe(token))
		}

		return literal, false, nil
	case tok.STRING:
		p.next()

		value, err := tok.Unquote(token.Value)
		if err != nil {
			return nil, false, NewSyntaxError(tok.ErrInvalidEscape, token, "%v", err)
		}

		return expr.NewString(value), false, nil
	case tok.BOOLEAN:
		p.next()
		return expr.NewBool(token.Value == "true" || token.Value == "True"), false, nil
	case tok.NULL:
		p.next()
		return expr.NewNull(), false, nil
	case tok.IDENTIFIER:
		p.next()

		if p.grammar.ArrowFunctions && p.peek().Type == tok.ARROW {
			return nil, false, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "nested arrow functions are not supported")
		}

		return expr.NewIdent(token.Value), false, nil
	case tok.OPENED_PARENS:
		return p.parseParenthesized()
	case tok.OPENED_BRACKET:
		list, err := p.parseList()
		return list, false, err
	case tok.OPENED_BRACE:
		dict, err := p.parseDict()
		return dict, false, err
	case tok.KEYWORD, tok.DECLARE, tok.FOR, tok.IF:
		return nil, false, NewSyntaxError(ErrUnsupportedSyntax, token, "%s is not supported in expressions", Describe(token))
	case tok.CLOSED_PARENS, tok.CLOSED_BRACKET, tok.CLOSED_BRACE:
		return nil, false, NewSyntaxError(ErrUnmatchedParen, token, "unmatched %s", Describe(token))
	case tok.EOF:
		return nil, false, NewSyntaxError(ErrUnexpectedToken, token, "expected an expression but found end of input")
	}

	return nil, false, NewSyntaxError(ErrUnexpectedToken, token, "expected an expression but found %s", Describe(token))
}

func (p *exprParser) parsePostfix(target expr.Expr) (expr.Expr, error) {
	for {
		token := p.peek()

		switch token.Type {
		case tok.DOT:
			if p.stopBeforeStage && StageStartsAt(p.tokens, p.pos) {
				return target, nil
			}

			p.next()

			name := p.peek()
			if !isMemberName(name.Type) {
				return nil, Unexpected(p.tokens, p.pos, "a property name after '.'")
			}

			p.next()
			target = &expr.Attr{X: target, Name: name.Value}
		case tok.OPENED_BRACKET:
			p.next()

			index, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}

			if err := p.expectClose(tok.CLOSED_BRACKET, token); err != nil {
				return nil, err
			}

			target = &expr.Index{X: target, Index: index}
		case tok.OPENED_PARENS:
			p.next()

			args, err := p.parseSequence(tok.CLOSED_PARENS, token, func() (expr.Expr, error) {
				arg, err := p.parseExpr(0)
				if err == nil && p.peek().Type == tok.ASSIGN {
					return nil, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "keyword arguments are not supported")
				}

				return arg, err
			})
			if err != nil {
				return nil, err
			}

			target = &expr.Call{Func: target, Args: args}
		default:
			return target, nil
		}
	}
}

func (p *exprParser) parseParenthesized() (expr.Expr, bool, error) {
	open := p.next()

	inner, err := p.parseExpr(0)
	if err != nil {
		return nil, false, err
	}

	if p.peek().Type == tok.COMMA {
		return nil, false, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "tuples and comma expressions are not supported")
	}

	if err := p.expectClose(tok.CLOSED_PARENS, open); err != nil {
		return nil, false, err
	}

	if p.grammar.ArrowFunctions && p.peek().Type == tok.ARROW {
		return nil, false, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "nested arrow functions are not supported")
	}

	return inner, true, nil
}

func (p *exprParser) parseList() (*expr.List, error) {
	open := p.next()
	first := true

	elems, err := p.parseSequence(tok.CLOSED_BRACKET, open, func() (expr.Expr, error) {
		elem, err := p.parseExpr(0)
		if err == nil && first && p.grammar.Comprehensions && p.peek().Type == tok.FOR {
			return nil, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "nested comprehensions are not supported")
		}

		first = false

		return elem, err
	})
	if err != nil {
		return nil, err
	}

	return &expr.List{Elems: elems}, nil
}

func (p *exprParser) parseDict() (*expr.Dict, error) {
	open := p.next()
	dict := &expr.Dict{}

	for {
		if p.peek().Type == tok.CLOSED_BRACE {
			p.next()
			return dict, nil
		}

		key, err := p.parseDictKey()
		if err != nil {
			return nil, err
		}

		if p.peek().Type != tok.COLON {
			if p.peek().Type == tok.EOF {
				return nil, p.unclosed(open)
			}

			return nil, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "only key: value entries are supported in %s", Describe(open))
		}

		p.next()

		value, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		dict.Entries = append(dict.Entries, expr.DictEntry{Key: key, Value: value})

		if p.grammar.Comprehensions && p.peek().Type == tok.FOR {
			return nil, NewSyntaxError(ErrUnsupportedSyntax, p.peek(), "dict comprehensions are not supported")
		}

		switch p.peek().Type {
		case tok.COMMA:
			p.next()
		case tok.CLOSED_BRACE:
		default:
			return nil, p.closeError(tok.CLOSED_BRACE, open)
		}
	}
}

func (p *exprParser) parseDictKey() (expr.Expr, error) {
	token := p.peek()
	if !p.grammar.BareObjectKeys {
		return p.parseExpr(0)
	}

	switch token.Type {
	case tok.IDENTIFIER, tok.KEYWORD, tok.DECLARE, tok.BOOLEAN, tok.NULL:
		p.next()
		return expr.NewString(token.Value), nil
	case tok.STRING, tok.NUMBER:
		return p.parsePrimaryOnly()
	case tok.OPENED_BRACKET:
		p.next()

		key, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}

		if err := p.expectClose(tok.CLOSED_BRACKET, token); err != nil {
			return nil, err
		}

		return key, nil
	}

	return nil, Unexpected(p.tokens, p.pos, "a property key")
}

func (p *exprParser) parsePrimaryOnly() (expr.Expr, error) {
	e, _, err := p.parsePrimary()
	return e, err
}

// parseSequence parses comma separated items up to the closing token. A
// trailing comma is accepted.
func (p *exprParser) parseSequence(closing tok.TokenType, open tok.Token, item func() (expr.Expr, error)) ([]expr.Expr, error) {
	var items []expr.Expr

	for {
		if p.peek().Type == closing {
			p.next()
			return items, nil
		}

		e, err := item()
		if err != nil {
			return nil, err
		}

		items = append(items, e)

		switch p.peek().Type {
		case tok.COMMA:
			p.next()
		case closing:
		default:
			return nil, p.closeError(closing, open)
		}
	}
}

func (p *exprParser) expectClose(closing tok.TokenType, open tok.Token) error {
	if p.peek().Type == closing {
		p.next()
		return nil
	}

	return p.closeError(closing, open)
}

func (p *exprParser) closeError(closing tok.TokenType, open tok.Token) error {
	token := p.peek()

	switch token.Type {
	case tok.EOF:
		return p.unclosed(open)
	case tok.CLOSED_PARENS, tok.CLOSED_BRACKET, tok.CLOSED_BRACE:
		return NewSyntaxError(ErrUnmatchedParen, token, "%s does not match %s at %s", Describe(token), Describe(open), open.Position)
	}

	return NewSyntaxError(ErrUnexpectedToken, token, "expected %s but found %s", closingText[closing], Describe(token))
}

func (p *exprParser) unclosed(open tok.Token) error {
	return NewSyntaxError(ErrUnmatchedParen, open, "%s is never closed", Describe(open))
}

func isMemberName(t tok.TokenType) bool {
	switch t {
	case tok.IDENTIFIER, tok.KEYWORD, tok.DECLARE, tok.BOOLEAN, tok.NULL,
		tok.AND, tok.OR, tok.NOT, tok.IN, tok.FOR, tok.IF:
		return true
	default:
		return false
	}
}

var closingText = map[tok.TokenType]string{
	tok.CLOSED_PARENS:  "')'",
	tok.CLOSED_BRACKET: "']'",
	tok.CLOSED_BRACE:   "'}'",
}

// StageStartsAt reports whether tokens[i:] begins ".name(" followed by an
// arrow function head, which marks the start of a chain stage.
func StageStartsAt(tokens []pc.Token[Entity], i int) bool {
	if At(tokens, i).Type != tok.DOT || At(tokens, i+2).Type != tok.OPENED_PARENS {
		return false
	}

	switch At(tokens, i+1).Type {
	case tok.IDENTIFIER, tok.KEYWORD:
	default:
		return false
	}

	return ArrowStartsAt(tokens, i+3)
}

// ArrowStartsAt reports whether an arrow function starts at tokens[i]:
// "p =>" or a parenthesized parameter list followed by "=>".
func ArrowStartsAt(tokens []pc.Token[Entity], i int) bool {
	switch At(tokens, i).Type {
	case tok.IDENTIFIER:
		return At(tokens, i+1).Type == tok.ARROW
	case tok.OPENED_PARENS:
		depth := 0
		for j := i; j < len(tokens); j++ {
			switch tokens[j].Val.Original.Type {
			case tok.OPENED_PARENS:
				depth++
			case tok.CLOSED_PARENS:
				depth--
				if depth == 0 {
					return At(tokens, j+1).Type == tok.ARROW
				}
			}
		}
	}

	return false
}
