package evaluator

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/declo/parser"
)

func TestTranslate(t *testing.T) {
	seq, err := parser.ParseChain("nums.filter(x => x % 2 == 0).map(x => x * x)")
	require.NoError(t, err)

	chainSource, err := TranslateChain(seq)
	require.NoError(t, err)
	assert.Equal(t, "((nums).filter(x, ((x % 2) == 0))).map(x, (x * x))", chainSource)

	c, err := parser.ParseComprehension("[x * x for x in nums if x > 2 if x < 9]")
	require.NoError(t, err)

	compSource, err := TranslateComprehension(c)
	require.NoError(t, err)
	assert.Equal(t, "(nums).filter(x, ((x > 2) && (x < 9))).map(x, (x * x))", compSource)

	identity, err := parser.ParseComprehension("[v for v in xs]")
	require.NoError(t, err)

	identitySource, err := TranslateComprehension(identity)
	require.NoError(t, err)
	assert.Equal(t, "(xs)", identitySource)
}

func TestTranslateExpressions(t *testing.T) {
	tests := []struct {
		name     string
		chain    string
		expected string
	}{
		{"length and methods", `xs.filter(s => s.length > 0 && s.startsWith("a"))`, `((size(s) > 0) && s.startsWith("a"))`},
		{"unary", "xs.filter(v => !(v < 2) || -v == 1)", "(!((v < 2)) || (-(v) == 1))"},
		{"literals", "xs.map(v => [1, 2.0, 'q', true, null])", `[1, 2.0, "q", true, null]`},
		{"object", "xs.map(v => ({id: v.id, n: v[0]}))", `{"id": v.id, "n": v[0]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			seq, err := parser.ParseChain(test.chain)
			require.NoError(t, err)

			actual, err := Translate(seq.Stages[0].Body)
			require.NoError(t, err)
			assert.Equal(t, test.expected, actual)
		})
	}
}

func TestTranslateNotEvaluable(t *testing.T) {
	for _, input := range []string{
		"[x ** 2 for x in xs]",
		"[x for x in range(3)]",
		"[x.upper() for x in xs]",
		"[f(x)(1) for x in xs]",
	} {
		t.Run(input, func(t *testing.T) {
			c, err := parser.ParseComprehension(input)
			require.NoError(t, err)

			_, err = TranslateComprehension(c)
			assert.IsError(t, err, ErrNotEvaluable)
		})
	}
}

func TestCompare(t *testing.T) {
	inputs := map[string]any{
		"nums":  []any{1, 2, 3, 4, 5, 6},
		"users": []any{map[string]any{"name": "ann", "age": 31}, map[string]any{"name": "bob", "age": 17}},
	}

	tests := []struct {
		name          string
		chain         string
		comprehension string
		status        Status
		result        any
	}{
		{
			name:          "filter",
			chain:         "nums.filter(x => x % 2 == 0)",
			comprehension: "[x for x in nums if x % 2 == 0]",
			status:        Match,
			result:        []any{int64(2), int64(4), int64(6)},
		},
		{
			name:          "filter map filter",
			chain:         "nums.filter(x => x > 2).map(x => x * x).filter(x => x < 20)",
			comprehension: "[x * x for x in nums if x > 2 and x * x < 20]",
			status:        Match,
			result:        []any{int64(9), int64(16)},
		},
		{
			name:          "records",
			chain:         "users.filter(u => u.age >= 18).map(u => u.name)",
			comprehension: "[u.name for u in users if u.age >= 18]",
			status:        Match,
			result:        []any{"ann"},
		},
		{
			name:          "different output",
			chain:         "nums.map(x => x + 1)",
			comprehension: "[x for x in nums]",
			status:        Mismatch,
		},
		{
			name:          "power is skipped",
			chain:         "nums.map(x => x ** 2)",
			comprehension: "[x ** 2 for x in nums]",
			status:        Skipped,
		},
		{
			name:          "unbound name is skipped",
			chain:         "missing.filter(x => x)",
			comprehension: "[x for x in missing if x]",
			status:        Skipped,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			seq, err := parser.ParseChain(test.chain)
			require.NoError(t, err)

			c, err := parser.ParseComprehension(test.comprehension)
			require.NoError(t, err)

			outcome := Compare(context.Background(), seq, c, inputs)
			assert.Equal(t, test.status, outcome.Status, outcome.Reason)

			if test.result != nil {
				assert.Equal(t, test.result, outcome.Chain)
				assert.Equal(t, test.result, outcome.Comprehension)
			}

			if test.status == Skipped {
				assert.NotEqual(t, "", outcome.Reason)
			}
		})
	}
}

func TestEvalDict(t *testing.T) {
	seq, err := parser.ParseChain("xs.map(v => ({v: v, double: v * 2}))")
	require.NoError(t, err)

	result, err := EvalChain(context.Background(), seq, map[string]any{"xs": []any{1}})
	require.NoError(t, err)
	assert.Equal(t, any([]any{map[string]any{"v": int64(1), "double": int64(2)}}), Native(result))
}

func TestNormalize(t *testing.T) {
	var decoded map[string]any

	decoder := json.NewDecoder(strings.NewReader(`{"nums": [1, 2.0, 2.5, 12345678901234], "m": {"k": 3}}`))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&decoded))

	assert.Equal(t, any(map[string]any{
		"nums": []any{int64(1), int64(2), 2.5, int64(12345678901234)},
		"m":    map[string]any{"k": int64(3)},
	}), Normalize(decoded))

	assert.Equal(t, any(int64(4)), Normalize(4.0))
	assert.Equal(t, any("s"), Normalize("s"))
}
