package formatter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/expr"
	tok "github.com/shibukawa/declo/tokenizer"
)

// Style selects the surface syntax an expression is rendered in.
type Style int

const (
	JavaScript Style = iota
	Python
)

func (s Style) String() string {
	if s == Python {
		return "python"
	}

	return "javascript"
}

const postfixPrec = 10

type styleTable struct {
	binary     map[expr.BinaryOp]string
	binaryPrec map[expr.BinaryOp]int
	unary      map[expr.UnaryOp]string
	unaryPrec  map[expr.UnaryOp]int
	trueText   string
	falseText  string
	nullText   string
	// unaryPowBase parenthesizes unary operands on the left of "**".
	unaryPowBase bool
	dialect      *tok.Dialect
}

var styles = map[Style]*styleTable{
	JavaScript: {
		binary: map[expr.BinaryOp]string{
			expr.Add: "+", expr.Sub: "-", expr.Mul: "*", expr.Div: "/", expr.Mod: "%", expr.Pow: "**",
			expr.Eq: "==", expr.NotEq: "!=", expr.Lt: "<", expr.LtE: "<=", expr.Gt: ">", expr.GtE: ">=",
			expr.And: "&&", expr.Or: "||",
		},
		binaryPrec: map[expr.BinaryOp]int{
			expr.Or: 1, expr.And: 2,
			expr.Eq: 3, expr.NotEq: 3,
			expr.Lt: 4, expr.LtE: 4, expr.Gt: 4, expr.GtE: 4,
			expr.Add: 5, expr.Sub: 5,
			expr.Mul: 6, expr.Div: 6, expr.Mod: 6,
			expr.Pow: 7,
		},
		unary:        map[expr.UnaryOp]string{expr.Neg: "-", expr.Pos: "+", expr.Not: "!"},
		unaryPrec:    map[expr.UnaryOp]int{expr.Neg: 8, expr.Pos: 8, expr.Not: 8},
		trueText:     "true",
		falseText:    "false",
		nullText:     "null",
		unaryPowBase: true,
		dialect:      tok.NewJavaScriptDialect(),
	},
	Python: {
		binary: map[expr.BinaryOp]string{
			expr.Add: "+", expr.Sub: "-", expr.Mul: "*", expr.Div: "/", expr.Mod: "%", expr.Pow: "**",
			expr.Eq: "==", expr.NotEq: "!=", expr.Lt: "<", expr.LtE: "<=", expr.Gt: ">", expr.GtE: ">=",
			expr.And: "and", expr.Or: "or",
		},
		binaryPrec: map[expr.BinaryOp]int{
			expr.Or: 1, expr.And: 2,
			expr.Eq: 4, expr.NotEq: 4, expr.Lt: 4, expr.LtE: 4, expr.Gt: 4, expr.GtE: 4,
			expr.Add: 6, expr.Sub: 6,
			expr.Mul: 7, expr.Div: 7, expr.Mod: 7,
			expr.Pow: 9,
		},
		unary:     map[expr.UnaryOp]string{expr.Neg: "-", expr.Pos: "+", expr.Not: "not "},
		unaryPrec: map[expr.UnaryOp]int{expr.Neg: 8, expr.Pos: 8, expr.Not: 3},
		trueText:  "True",
		falseText: "False",
		nullText:  "None",
		dialect:   tok.NewPythonDialect(),
	},
}

type renderer struct {
	table *styleTable
	style Style
}

// RenderExpr renders e in the given style with canonical spacing and the
// minimal parentheses the style's precedence table requires.
func RenderExpr(e expr.Expr, style Style) string {
	r := &renderer{table: styles[style], style: style}

	return r.expr(e)
}

// RenderChain renders a stage sequence as chained JavaScript.
func RenderChain(seq *chain.StageSequence) string {
	r := &renderer{table: styles[JavaScript], style: JavaScript}

	var builder strings.Builder
	if seq.Binding != nil {
		builder.WriteString(seq.Binding.Keyword)
		builder.WriteString(" ")
		builder.WriteString(seq.Binding.Name)
		builder.WriteString(" = ")
	}

	builder.WriteString(r.postfixTarget(seq.Source))

	for _, stage := range seq.Stages {
		body := r.expr(stage.Body)
		if _, ok := stage.Body.(*expr.Dict); ok {
			body = "(" + body + ")"
		}

		fmt.Fprintf(&builder, ".%s(%s => %s)", stage.Kind, stage.Param, body)
	}

	if seq.Binding != nil {
		builder.WriteString(";")
	}

	return builder.String()
}

// RenderComprehension renders [out for v in src if c1 if c2].
func RenderComprehension(c *comprehension.Comprehension) string {
	return renderComprehension(c, c.Clauses)
}

// RenderComprehensionJoined renders the clauses as one "if" joined with "and".
func RenderComprehensionJoined(c *comprehension.Comprehension) string {
	if len(c.Clauses) <= 1 {
		return renderComprehension(c, c.Clauses)
	}

	return renderComprehension(c, []expr.Expr{expr.JoinConjuncts(c.Clauses)})
}

func renderComprehension(c *comprehension.Comprehension, clauses []expr.Expr) string {
	r := &renderer{table: styles[Python], style: Python}

	var builder strings.Builder
	if c.Target != "" {
		builder.WriteString(c.Target)
		builder.WriteString(" = ")
	}

	fmt.Fprintf(&builder, "[%s for %s in %s", r.expr(c.Output), c.Var, r.expr(c.Source))

	for _, clause := range clauses {
		builder.WriteString(" if ")
		builder.WriteString(r.expr(clause))
	}

	builder.WriteString("]")

	return builder.String()
}

func (r *renderer) prec(e expr.Expr) int {
	switch e := e.(type) {
	case *expr.Binary:
		return r.table.binaryPrec[e.Op]
	case *expr.Unary:
		return r.table.unaryPrec[e.Op]
	default:
		return postfixPrec
	}
}

func (r *renderer) expr(e expr.Expr) string {
	switch e := e.(type) {
	case *expr.Literal:
		return r.literal(e)
	case *expr.Ident:
		return e.Name
	case *expr.Unary:
		operand := r.expr(e.X)
		if _, nested := e.X.(*expr.Unary); nested || r.prec(e.X) < r.table.unaryPrec[e.Op] {
			operand = "(" + operand + ")"
		}

		return r.table.unary[e.Op] + operand
	case *expr.Binary:
		return r.binary(e)
	case *expr.Call:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = r.expr(arg)
		}

		return r.postfixTarget(e.Func) + "(" + strings.Join(args, ", ") + ")"
	case *expr.Attr:
		return r.postfixTarget(e.X) + "." + e.Name
	case *expr.Index:
		return r.postfixTarget(e.X) + "[" + r.expr(e.Index) + "]"
	case *expr.List:
		elems := make([]string, len(e.Elems))
		for i, elem := range e.Elems {
			elems[i] = r.expr(elem)
		}

		return "[" + strings.Join(elems, ", ") + "]"
	case *expr.Dict:
		entries := make([]string, len(e.Entries))
		for i, entry := range e.Entries {
			entries[i] = r.dictKey(entry.Key) + ": " + r.expr(entry.Value)
		}

		return "{" + strings.Join(entries, ", ") + "}"
	default:
		panic(fmt.Sprintf("formatter: unknown expression node %T", e))
	}
}

func (r *renderer) binary(e *expr.Binary) string {
	prec := r.table.binaryPrec[e.Op]
	rightAssoc := e.Op == expr.Pow

	left := r.expr(e.Left)
	leftPrec := r.prec(e.Left)
	if leftPrec < prec || (leftPrec == prec && rightAssoc) || r.nestedComparison(e, e.Left) {
		left = "(" + left + ")"
	} else if _, unary := e.Left.(*expr.Unary); unary && e.Op == expr.Pow && r.table.unaryPowBase {
		left = "(" + left + ")"
	}

	right := r.expr(e.Right)
	rightPrec := r.prec(e.Right)
	if rightPrec < prec || (rightPrec == prec && !rightAssoc) || r.nestedComparison(e, e.Right) {
		right = "(" + right + ")"
	}

	return left + " " + r.table.binary[e.Op] + " " + right
}

func (r *renderer) nestedComparison(parent *expr.Binary, child expr.Expr) bool {
	b, ok := child.(*expr.Binary)

	return ok && parent.Op.IsComparison() && b.Op.IsComparison()
}

// postfixTarget renders the object of an attribute, index or call.
func (r *renderer) postfixTarget(e expr.Expr) string {
	s := r.expr(e)
	if r.prec(e) < postfixPrec {
		return "(" + s + ")"
	}

	if lit, ok := e.(*expr.Literal); ok && (lit.Kind == expr.IntLiteral || lit.Kind == expr.FloatLiteral) {
		return "(" + s + ")"
	}

	return s
}

func (r *renderer) dictKey(key expr.Expr) string {
	if r.style != JavaScript {
		return r.expr(key)
	}

	if lit, ok := key.(*expr.Literal); ok && lit.Kind == expr.StringLiteral {
		if isIdentifier(lit.Str) && !r.table.dialect.IsKeyword(lit.Str) {
			return lit.Str
		}

		return quote(lit.Str)
	}

	return "[" + r.expr(key) + "]"
}

func (r *renderer) literal(lit *expr.Literal) string {
	switch lit.Kind {
	case expr.IntLiteral:
		return lit.Num.String()
	case expr.FloatLiteral:
		s := lit.Num.String()
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}

		return s
	case expr.StringLiteral:
		return quote(lit.Str)
	case expr.BoolLiteral:
		if lit.Bool {
			return r.table.trueText
		}

		return r.table.falseText
	default:
		return r.table.nullText
	}
}

// quote renders a double quoted string using only escapes both dialects share.
func quote(s string) string {
	var builder strings.Builder
	builder.WriteByte('"')

	for _, c := range s {
		switch c {
		case '"':
			builder.WriteString(`\"`)
		case '\\':
			builder.WriteString(`\\`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&builder, `\u%04x`, c)
			} else {
				builder.WriteRune(c)
			}
		}
	}

	builder.WriteByte('"')

	return builder.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if unicode.IsLetter(c) || c == '_' || c == '$' || (i > 0 && unicode.IsDigit(c)) {
			continue
		}

		return false
	}

	return true
}
