package parsercommon

import (
	"github.com/shibukawa/declo/expr"
	tok "github.com/shibukawa/declo/tokenizer"
)

// BinaryRule describes an infix operator of a grammar.
type BinaryRule struct {
	Op         expr.BinaryOp
	Prec       int
	RightAssoc bool
}

// PrefixRule describes a prefix operator. The operand is parsed at Prec.
type PrefixRule struct {
	Op   expr.UnaryOp
	Prec int
}

// Grammar is the operator table and the dialect quirks of one surface syntax.
type Grammar struct {
	Name    string
	Dialect *tok.Dialect
	Binary  map[tok.TokenType]BinaryRule
	Prefix  map[tok.TokenType]PrefixRule
	// Unsupported lists operator tokens that are valid in the language but
	// outside the supported subset.
	Unsupported map[tok.TokenType]string
	// ChainedComparisons rejects "a < b < c" instead of grouping it.
	ChainedComparisons bool
	// UnaryPowBase rejects an unparenthesized unary operand left of "**".
	UnaryPowBase bool
	// BareObjectKeys turns identifier keys of object literals into strings.
	BareObjectKeys bool
	// ArrowFunctions enables detection of nested arrow functions.
	ArrowFunctions bool
	// Comprehensions enables detection of nested comprehensions.
	Comprehensions bool
}

// JavaScript is the grammar of chain programs.
var JavaScript = &Grammar{
	Name:    "javascript",
	Dialect: tok.NewJavaScriptDialect(),
	Binary: map[tok.TokenType]BinaryRule{
		tok.LOGICAL_OR:       {Op: expr.Or, Prec: 1},
		tok.LOGICAL_AND:      {Op: expr.And, Prec: 2},
		tok.EQUAL:            {Op: expr.Eq, Prec: 3},
		tok.STRICT_EQUAL:     {Op: expr.Eq, Prec: 3},
		tok.NOT_EQUAL:        {Op: expr.NotEq, Prec: 3},
		tok.STRICT_NOT_EQUAL: {Op: expr.NotEq, Prec: 3},
		tok.LESS_THAN:        {Op: expr.Lt, Prec: 4},
		tok.LESS_EQUAL:       {Op: expr.LtE, Prec: 4},
		tok.GREATER_THAN:     {Op: expr.Gt, Prec: 4},
		tok.GREATER_EQUAL:    {Op: expr.GtE, Prec: 4},
		tok.PLUS:             {Op: expr.Add, Prec: 5},
		tok.MINUS:            {Op: expr.Sub, Prec: 5},
		tok.MULTIPLY:         {Op: expr.Mul, Prec: 6},
		tok.DIVIDE:           {Op: expr.Div, Prec: 6},
		tok.MODULO:           {Op: expr.Mod, Prec: 6},
		tok.POWER:            {Op: expr.Pow, Prec: 7, RightAssoc: true},
	},
	Prefix: map[tok.TokenType]PrefixRule{
		tok.BANG:  {Op: expr.Not, Prec: 8},
		tok.MINUS: {Op: expr.Neg, Prec: 8},
		tok.PLUS:  {Op: expr.Pos, Prec: 8},
	},
	Unsupported: map[tok.TokenType]string{
		tok.QUESTION: "conditional expressions are not supported",
	},
	UnaryPowBase:   true,
	BareObjectKeys: true,
	ArrowFunctions: true,
}

// Python is the grammar of comprehension programs.
var Python = &Grammar{
	Name:    "python",
	Dialect: tok.NewPythonDialect(),
	Binary: map[tok.TokenType]BinaryRule{
		tok.OR:            {Op: expr.Or, Prec: 1},
		tok.AND:           {Op: expr.And, Prec: 2},
		tok.EQUAL:         {Op: expr.Eq, Prec: 4},
		tok.NOT_EQUAL:     {Op: expr.NotEq, Prec: 4},
		tok.LESS_THAN:     {Op: expr.Lt, Prec: 4},
		tok.LESS_EQUAL:    {Op: expr.LtE, Prec: 4},
		tok.GREATER_THAN:  {Op: expr.Gt, Prec: 4},
		tok.GREATER_EQUAL: {Op: expr.GtE, Prec: 4},
		tok.PLUS:          {Op: expr.Add, Prec: 6},
		tok.MINUS:         {Op: expr.Sub, Prec: 6},
		tok.MULTIPLY:      {Op: expr.Mul, Prec: 7},
		tok.DIVIDE:        {Op: expr.Div, Prec: 7},
		tok.MODULO:        {Op: expr.Mod, Prec: 7},
		tok.POWER:         {Op: expr.Pow, Prec: 9, RightAssoc: true},
	},
	Prefix: map[tok.TokenType]PrefixRule{
		tok.NOT:   {Op: expr.Not, Prec: 3},
		tok.MINUS: {Op: expr.Neg, Prec: 8},
		tok.PLUS:  {Op: expr.Pos, Prec: 8},
	},
	Unsupported: map[tok.TokenType]string{
		tok.FLOOR_DIVIDE: "floor division is not supported",
		tok.IN:           "membership tests are not supported",
	},
	ChainedComparisons: true,
	Comprehensions:     true,
}
