package chainparser

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/expr"
	cmn "github.com/shibukawa/declo/parser/parsercommon"
	tok "github.com/shibukawa/declo/tokenizer"
)

func TestParse(t *testing.T) {
	x := expr.NewIdent("x")

	tests := []struct {
		name     string
		input    string
		expected *chain.StageSequence
	}{
		{
			name:  "single filter",
			input: "nums.filter(x => x % 2 == 0)",
			expected: &chain.StageSequence{
				Source: expr.NewIdent("nums"),
				Stages: []chain.Stage{
					chain.NewFilter("x", expr.NewBinary(expr.Eq, expr.NewBinary(expr.Mod, x, expr.NewInt(2)), expr.NewInt(0))),
				},
			},
		},
		{
			name:  "declaration with filter and map",
			input: "const evens = nums.filter(x => x > 2).map(y => y * 10);",
			expected: &chain.StageSequence{
				Binding: &chain.Binding{Keyword: "const", Name: "evens"},
				Source:  expr.NewIdent("nums"),
				Stages: []chain.Stage{
					chain.NewFilter("x", expr.NewBinary(expr.Gt, x, expr.NewInt(2))),
					chain.NewMap("y", expr.NewBinary(expr.Mul, expr.NewIdent("y"), expr.NewInt(10))),
				},
			},
		},
		{
			name:  "parenthesized parameter and strict equality",
			input: "let r = xs.filter((v) => v === null)",
			expected: &chain.StageSequence{
				Binding: &chain.Binding{Keyword: "let", Name: "r"},
				Source:  expr.NewIdent("xs"),
				Stages: []chain.Stage{
					chain.NewFilter("v", expr.NewBinary(expr.Eq, expr.NewIdent("v"), expr.NewNull())),
				},
			},
		},
		{
			name:  "multi line with comments",
			input: "nums // source\n  .map(x => x + 1) /* first */\n  .filter(x => x)",
			expected: &chain.StageSequence{
				Source: expr.NewIdent("nums"),
				Stages: []chain.Stage{
					chain.NewMap("x", expr.NewBinary(expr.Add, x, expr.NewInt(1))),
					chain.NewFilter("x", x),
				},
			},
		},
		{
			name:  "object literal body",
			input: "users.map(u => ({name: u.name, [k]: 1}))",
			expected: &chain.StageSequence{
				Source: expr.NewIdent("users"),
				Stages: []chain.Stage{
					chain.NewMap("u", &expr.Dict{Entries: []expr.DictEntry{
						{Key: expr.NewString("name"), Value: &expr.Attr{X: expr.NewIdent("u"), Name: "name"}},
						{Key: expr.NewIdent("k"), Value: expr.NewInt(1)},
					}}),
				},
			},
		},
		{
			name:  "postfix source",
			input: "data.items[0].filter(x => x)",
			expected: &chain.StageSequence{
				Source: &expr.Index{X: &expr.Attr{X: expr.NewIdent("data"), Name: "items"}, Index: expr.NewInt(0)},
				Stages: []chain.Stage{chain.NewFilter("x", x)},
			},
		},
		{
			name:  "non arrow argument stays in the source",
			input: "nums.filter(isEven)",
			expected: &chain.StageSequence{
				Source: &expr.Call{
					Func: &expr.Attr{X: expr.NewIdent("nums"), Name: "filter"},
					Args: []expr.Expr{expr.NewIdent("isEven")},
				},
			},
		},
		{
			name:  "source only",
			input: "[1, 2]",
			expected: &chain.StageSequence{
				Source: &expr.List{Elems: []expr.Expr{expr.NewInt(1), expr.NewInt(2)}},
			},
		},
		{
			name:  "power is right associative",
			input: "xs.map(x => 2 ** x ** 2)",
			expected: &chain.StageSequence{
				Source: expr.NewIdent("xs"),
				Stages: []chain.Stage{
					chain.NewMap("x", expr.NewBinary(expr.Pow, expr.NewInt(2), expr.NewBinary(expr.Pow, x, expr.NewInt(2)))),
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			actual, err := Parse(test.input)
			require.NoError(t, err)
			assert.True(t, test.expected.Equal(actual), "unexpected sequence: %#v", actual)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   error
		line   int
		column int
	}{
		{"unknown method", "nums.reduce(x => x)", cmn.ErrUnknownStageMethod, 1, 6},
		{"two parameters", "nums.filter((a, b) => a)", cmn.ErrUnsupportedSyntax, 1, 13},
		{"block body", "nums.filter(x => { return x })", cmn.ErrUnsupportedSyntax, 1, 18},
		{"unclosed stage", "nums.filter(x => x > 1", cmn.ErrUnmatchedParen, 1, 12},
		{"stray closer", "nums.filter(x => x > 1))", cmn.ErrUnmatchedParen, 1, 24},
		{"unary base of power", "nums.map(x => -x ** 2)", cmn.ErrUnexpectedToken, 1, 18},
		{"conditional", "nums.filter(x => x ? 1 : 2)", cmn.ErrUnsupportedSyntax, 1, 20},
		{"second statement", "a; b", cmn.ErrUnsupportedSyntax, 1, 4},
		{"nested arrow", "nums.map(x => y => y)", cmn.ErrUnsupportedSyntax, 1, 17},
		{"extra argument", "nums.filter(x => x, 1)", cmn.ErrUnsupportedSyntax, 1, 19},
		{"missing name", "const = nums", cmn.ErrUnexpectedToken, 1, 7},
		{"unclosed list", "[1, 2", cmn.ErrUnmatchedParen, 1, 1},
		{"missing operand", "nums.map(x => x +)", cmn.ErrUnmatchedParen, 1, 18},
		{"unterminated string", `nums.filter(x => x == "abc)`, tok.ErrUnterminatedString, 1, 23},
		{"python operator name", "xs.map(x => not)", cmn.ErrUnsupportedSyntax, 1, 13},
		{"python literal name", "xs.filter(x => x != None)", cmn.ErrUnsupportedSyntax, 1, 21},
		{"python keyword source", "lambda.map(x => x)", cmn.ErrUnsupportedSyntax, 1, 1},
		{"python keyword declaration", "const pass = xs", cmn.ErrUnsupportedSyntax, 1, 7},
		{"this as parameter", "xs.map(this => this)", cmn.ErrUnsupportedSyntax, 1, 8},
		{"this declared", "let this = xs", cmn.ErrUnsupportedSyntax, 1, 5},
		{"javascript keyword", "xs.map(x => delete)", cmn.ErrUnsupportedSyntax, 1, 13},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.input)
			assert.Error(t, err)
			assert.IsError(t, err, cmn.ErrSyntax)
			assert.IsError(t, err, test.kind)

			var syntaxErr *cmn.SyntaxError
			assert.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, test.line, syntaxErr.Token.Position.Line)
			assert.Equal(t, test.column, syntaxErr.Token.Position.Column)
			assert.Equal(t, test.input, syntaxErr.Source)
		})
	}
}

func TestParseErrorSnippet(t *testing.T) {
	_, err := Parse("nums.reduce(x => x)")

	syntaxErr, ok := cmn.AsSyntaxError(err)
	assert.True(t, ok)
	assert.Equal(t, "nums.reduce(x => x)\n     ^^^^^^", syntaxErr.Snippet())
	assert.Contains(t, syntaxErr.Error(), "line 1, column 6")
	assert.Contains(t, syntaxErr.Error(), `"reduce"`)
}

func TestParseUnclosedAcrossLines(t *testing.T) {
	source := "const r = nums\n  .map(x => x\n"
	_, err := Parse(source)
	assert.IsError(t, err, cmn.ErrUnmatchedParen)

	syntaxErr, ok := cmn.AsSyntaxError(err)
	assert.True(t, ok)
	assert.Equal(t, 2, syntaxErr.Token.Position.Line)
	assert.Equal(t, 7, syntaxErr.Token.Position.Column)
	assert.Equal(t, "  .map(x => x\n      ^", syntaxErr.Snippet())
}

func TestParseThis(t *testing.T) {
	actual, err := Parse("xs.filter(x => x > this.min)")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "this"}, expr.Idents(actual.Stages[0].Body))

	actual, err = Parse("xs.map(not => not.id)")
	require.NoError(t, err)
	assert.Equal(t, "not", actual.Stages[0].Param)
}
