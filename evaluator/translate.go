package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shibukawa/declo/chain"
	"github.com/shibukawa/declo/comprehension"
	"github.com/shibukawa/declo/expr"
)

// Functions with a CEL counterpart. Python spellings and JavaScript spellings
// map to the same builtin.
var functions = map[string]string{
	"len":    "size",
	"str":    "string",
	"String": "string",
	"float":  "double",
	"int":    "int",
	"bool":   "bool",
}

var methods = map[string]string{
	"startswith": "startsWith",
	"startsWith": "startsWith",
	"endswith":   "endsWith",
	"endsWith":   "endsWith",
	"includes":   "contains",
	"contains":   "contains",
}

var reserved = map[string]bool{
	"in": true, "as": true, "break": true, "const": true, "continue": true, "else": true,
	"for": true, "function": true, "if": true, "import": true, "let": true, "loop": true,
	"package": true, "namespace": true, "return": true, "var": true, "void": true, "while": true,
}

var binaryOps = map[expr.BinaryOp]string{
	expr.Add: "+", expr.Sub: "-", expr.Mul: "*", expr.Div: "/", expr.Mod: "%",
	expr.Eq: "==", expr.NotEq: "!=", expr.Lt: "<", expr.LtE: "<=", expr.Gt: ">", expr.GtE: ">=",
	expr.And: "&&", expr.Or: "||",
}

// TranslateChain renders seq as a CEL expression using the filter and map macros.
func TranslateChain(seq *chain.StageSequence) (string, error) {
	result, err := Translate(seq.Source)
	if err != nil {
		return "", err
	}

	for _, stage := range seq.Stages {
		if err := checkName(stage.Param); err != nil {
			return "", err
		}

		body, err := Translate(stage.Body)
		if err != nil {
			return "", err
		}

		result = fmt.Sprintf("(%s).%s(%s, %s)", result, stage.Kind, stage.Param, body)
	}

	return result, nil
}

// TranslateComprehension renders c as src.filter(v, conds).map(v, out).
func TranslateComprehension(c *comprehension.Comprehension) (string, error) {
	if err := checkName(c.Var); err != nil {
		return "", err
	}

	result, err := Translate(c.Source)
	if err != nil {
		return "", err
	}

	result = "(" + result + ")"

	if len(c.Clauses) > 0 {
		cond, err := Translate(expr.JoinConjuncts(c.Clauses))
		if err != nil {
			return "", err
		}

		result = fmt.Sprintf("%s.filter(%s, %s)", result, c.Var, cond)
	}

	if ident, ok := c.Output.(*expr.Ident); !ok || ident.Name != c.Var {
		output, err := Translate(c.Output)
		if err != nil {
			return "", err
		}

		result = fmt.Sprintf("%s.map(%s, %s)", result, c.Var, output)
	}

	return result, nil
}

// Translate renders one expression as fully parenthesized CEL. It fails with
// ErrNotEvaluable for constructs CEL cannot express.
func Translate(e expr.Expr) (string, error) {
	switch e := e.(type) {
	case *expr.Literal:
		return literal(e), nil
	case *expr.Ident:
		if err := checkName(e.Name); err != nil {
			return "", err
		}

		return e.Name, nil
	case *expr.Unary:
		operand, err := Translate(e.X)
		if err != nil {
			return "", err
		}

		switch e.Op {
		case expr.Neg:
			return "-(" + operand + ")", nil
		case expr.Not:
			return "!(" + operand + ")", nil
		default:
			return operand, nil
		}
	case *expr.Binary:
		op, ok := binaryOps[e.Op]
		if !ok {
			return "", fmt.Errorf("%w: operator %s", ErrNotEvaluable, e.Op)
		}

		left, err := Translate(e.Left)
		if err != nil {
			return "", err
		}

		right, err := Translate(e.Right)
		if err != nil {
			return "", err
		}

		return "(" + left + " " + op + " " + right + ")", nil
	case *expr.Call:
		return call(e)
	case *expr.Attr:
		target, err := Translate(e.X)
		if err != nil {
			return "", err
		}

		if e.Name == "length" {
			return "size(" + target + ")", nil
		}

		if err := checkName(e.Name); err != nil {
			return "", err
		}

		return target + "." + e.Name, nil
	case *expr.Index:
		target, err := Translate(e.X)
		if err != nil {
			return "", err
		}

		index, err := Translate(e.Index)
		if err != nil {
			return "", err
		}

		return target + "[" + index + "]", nil
	case *expr.List:
		elems, err := translateAll(e.Elems)
		if err != nil {
			return "", err
		}

		return "[" + strings.Join(elems, ", ") + "]", nil
	case *expr.Dict:
		entries := make([]string, len(e.Entries))
		for i, entry := range e.Entries {
			key, err := Translate(entry.Key)
			if err != nil {
				return "", err
			}

			value, err := Translate(entry.Value)
			if err != nil {
				return "", err
			}

			entries[i] = key + ": " + value
		}

		return "{" + strings.Join(entries, ", ") + "}", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrNotEvaluable, e)
	}
}

func call(e *expr.Call) (string, error) {
	args, err := translateAll(e.Args)
	if err != nil {
		return "", err
	}

	switch fn := e.Func.(type) {
	case *expr.Ident:
		name, ok := functions[fn.Name]
		if !ok {
			return "", fmt.Errorf("%w: function %s", ErrNotEvaluable, fn.Name)
		}

		return name + "(" + strings.Join(args, ", ") + ")", nil
	case *expr.Attr:
		name, ok := methods[fn.Name]
		if !ok {
			return "", fmt.Errorf("%w: method %s", ErrNotEvaluable, fn.Name)
		}

		target, err := Translate(fn.X)
		if err != nil {
			return "", err
		}

		return target + "." + name + "(" + strings.Join(args, ", ") + ")", nil
	}

	return "", fmt.Errorf("%w: computed call", ErrNotEvaluable)
}

func translateAll(list []expr.Expr) ([]string, error) {
	result := make([]string, len(list))
	for i, e := range list {
		s, err := Translate(e)
		if err != nil {
			return nil, err
		}

		result[i] = s
	}

	return result, nil
}

func literal(lit *expr.Literal) string {
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
		return strconv.Quote(lit.Str)
	case expr.BoolLiteral:
		return strconv.FormatBool(lit.Bool)
	default:
		return "null"
	}
}

func checkName(name string) error {
	if reserved[name] || strings.ContainsRune(name, '$') {
		return fmt.Errorf("%w: identifier %s", ErrNotEvaluable, name)
	}

	return nil
}
