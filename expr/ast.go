// Package expr holds the expression tree shared by the chain and comprehension
// notations. Nodes carry no source positions so that trees produced from either
// surface syntax compare structurally.
package expr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Expr is an expression node. The set of node types is closed.
type Expr interface {
	exprNode()
}

// LiteralKind distinguishes literal values.
type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	FloatLiteral
	StringLiteral
	BoolLiteral
	NullLiteral
)

func (k LiteralKind) String() string {
	switch k {
	case IntLiteral:
		return "int"
	case FloatLiteral:
		return "float"
	case StringLiteral:
		return "string"
	case BoolLiteral:
		return "bool"
	case NullLiteral:
		return "null"
	default:
		return "unknown"
	}
}

// Literal is a constant. Num is set for IntLiteral and FloatLiteral, Str for
// StringLiteral and Bool for BoolLiteral.
type Literal struct {
	Kind LiteralKind
	Num  decimal.Decimal
	Str  string
	Bool bool
}

// Ident is a variable reference.
type Ident struct {
	Name string
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	Neg UnaryOp = iota
	Pos
	Not
)

func (op UnaryOp) String() string {
	switch op {
	case Neg:
		return "Neg"
	case Pos:
		return "Pos"
	case Not:
		return "Not"
	default:
		return "UnknownUnary"
	}
}

type Unary struct {
	Op UnaryOp
	X  Expr
}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Pow
	Eq
	NotEq
	Lt
	LtE
	Gt
	GtE
	And
	Or
)

var binaryOpNames = [...]string{
	Add:   "Add",
	Sub:   "Sub",
	Mul:   "Mul",
	Div:   "Div",
	Mod:   "Mod",
	Pow:   "Pow",
	Eq:    "Eq",
	NotEq: "NotEq",
	Lt:    "Lt",
	LtE:   "LtE",
	Gt:    "Gt",
	GtE:   "GtE",
	And:   "And",
	Or:    "Or",
}

func (op BinaryOp) String() string {
	if int(op) >= 0 && int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}

	return "UnknownBinary"
}

// IsComparison reports whether op is one of the comparison operators.
func (op BinaryOp) IsComparison() bool {
	return op >= Eq && op <= GtE
}

// IsLogical reports whether op is And or Or.
func (op BinaryOp) IsLogical() bool {
	return op == And || op == Or
}

type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// Call is a function or method call. Method calls have an *Attr as Func.
type Call struct {
	Func Expr
	Args []Expr
}

// Attr is attribute access, X.Name.
type Attr struct {
	X    Expr
	Name string
}

// Index is subscript access, X[Index].
type Index struct {
	X     Expr
	Index Expr
}

type List struct {
	Elems []Expr
}

type DictEntry struct {
	Key   Expr
	Value Expr
}

// Dict keeps its entries in source order.
type Dict struct {
	Entries []DictEntry
}

func (*Literal) exprNode() {}
func (*Ident) exprNode()   {}
func (*Unary) exprNode()   {}
func (*Binary) exprNode()  {}
func (*Call) exprNode()    {}
func (*Attr) exprNode()    {}
func (*Index) exprNode()   {}
func (*List) exprNode()    {}
func (*Dict) exprNode()    {}

// NewInt returns an integer literal.
func NewInt(v int64) *Literal {
	return &Literal{Kind: IntLiteral, Num: decimal.NewFromInt(v)}
}

var trailingDot = strings.NewReplacer(".e", ".0e", ".E", ".0E")

// NewNumber parses a numeric literal. Text with a fraction or exponent yields a
// FloatLiteral.
func NewNumber(text string) (*Literal, error) {
	digits := trailingDot.Replace(text)
	if strings.HasSuffix(digits, ".") {
		digits += "0"
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return nil, err
	}

	kind := IntLiteral
	for _, c := range text {
		if c == '.' || c == 'e' || c == 'E' {
			kind = FloatLiteral
			break
		}
	}

	return &Literal{Kind: kind, Num: d}, nil
}

func NewString(s string) *Literal {
	return &Literal{Kind: StringLiteral, Str: s}
}

func NewBool(b bool) *Literal {
	return &Literal{Kind: BoolLiteral, Bool: b}
}

func NewNull() *Literal {
	return &Literal{Kind: NullLiteral}
}

func NewIdent(name string) *Ident {
	return &Ident{Name: name}
}

func NewBinary(op BinaryOp, left, right Expr) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func NewUnary(op UnaryOp, x Expr) *Unary {
	return &Unary{Op: op, X: x}
}
