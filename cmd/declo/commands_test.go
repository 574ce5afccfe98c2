package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/shibukawa/declo/corpus"
	"github.com/shibukawa/declo/evaluator"
	"github.com/shibukawa/declo/history"
	"github.com/shibukawa/declo/parser"
	"github.com/shibukawa/declo/testhelper"
)

const passingCorpus = `examples:
  - title: Even numbers
    chain: nums.filter(x => x % 2 == 0)
    comprehension: "[x for x in nums if x % 2 == 0]"
    inputs:
      nums: [1, 2, 3, 4]
`

const failingCorpus = `examples:
  - title: Squares
    chain: nums.map(x => x * x)
    comprehension: "[x * x for x in nums]"
  - title: Wrong offset
    chain: nums.map(x => x + 1)
    comprehension: "[x + 2 for x in nums]"
`

func TestCompileCmd(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		tc := newTestContext(t, "", "nums.filter(x => x % 2 == 0)\n")

		err := (&CompileCmd{}).Run(tc.Context)
		assert.NoError(t, err)
		assert.Equal(t, "[x for x in nums if x % 2 == 0]\n", tc.stdout.String())
	})

	t.Run("joined from file", func(t *testing.T) {
		path := testhelper.WriteFile(t, t.TempDir(), "program.js", "nums.filter(x => x > 2).filter(x => x < 9).map(x => x * 2)")
		tc := newTestContext(t, "", "")

		err := (&CompileCmd{Input: path, Joined: true}).Run(tc.Context)
		assert.NoError(t, err)
		assert.Equal(t, "[x * 2 for x in nums if x > 2 and x < 9]\n", tc.stdout.String())
	})

	t.Run("syntax error", func(t *testing.T) {
		tc := newTestContext(t, "", "nums.reduce(x => x)")

		err := (&CompileCmd{Input: "-"}).Run(tc.Context)
		assert.IsError(t, err, parser.ErrUnknownStageMethod)
		assert.Contains(t, err.Error(), "<stdin>")
		assert.Equal(t, "", tc.stdout.String())
	})

	t.Run("missing file", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&CompileCmd{Input: filepath.Join(t.TempDir(), "missing.js")}).Run(tc.Context)
		assert.IsError(t, err, os.ErrNotExist)
	})
}

func TestDecompileCmd(t *testing.T) {
	tc := newTestContext(t, "", "evens = [n for n in nums if n % 2 == 0]")

	err := (&DecompileCmd{}).Run(tc.Context)
	assert.NoError(t, err)
	assert.Equal(t, "const evens = nums.filter(n => n % 2 == 0);\n", tc.stdout.String())

	tc = newTestContext(t, "", "[x for x in]")
	err = (&DecompileCmd{}).Run(tc.Context)
	assert.IsError(t, err, parser.ErrSyntax)
}

func TestRoundtripCmd(t *testing.T) {
	tc := newTestContext(t, "", "nums.filter(x => x > 2).map(x => x * x)")

	err := (&RoundtripCmd{}).Run(tc.Context)
	assert.NoError(t, err)
	assert.Equal(t, ""+
		"comprehension: [x * x for x in nums if x > 2]\n"+
		"chain:         nums.filter(x => x > 2).map(x => x * x)\n"+
		"stable:        true\n", tc.stdout.String())
}

func TestRunCmd(t *testing.T) {
	inputs := testhelper.WriteFile(t, t.TempDir(), "inputs.yaml", "nums: [1, 2, 3, 4, -6]\n")

	t.Run("json", func(t *testing.T) {
		tc := newTestContext(t, "", "nums.filter(x => x % 2 == 0).map(x => x * x)")

		err := (&RunCmd{Inputs: inputs, Format: "json"}).Run(tc.Context)
		assert.NoError(t, err)
		assert.Equal(t, "[4,16,36]\n", tc.stdout.String())
	})

	t.Run("yaml from file", func(t *testing.T) {
		path := testhelper.WriteFile(t, t.TempDir(), "program.js", "const big = nums.filter(x => x > 3);")
		tc := newTestContext(t, "", "")

		err := (&RunCmd{Input: path, Inputs: inputs, Format: "yaml"}).Run(tc.Context)
		assert.NoError(t, err)
		assert.Equal(t, "- 4\n", tc.stdout.String())
	})

	t.Run("unbound variable", func(t *testing.T) {
		tc := newTestContext(t, "", "nums.map(x => x + 1)")

		err := (&RunCmd{Format: "json"}).Run(tc.Context)
		assert.IsError(t, err, evaluator.ErrEvaluation)
		assert.Contains(t, err.Error(), "<stdin>")
	})

	t.Run("syntax error", func(t *testing.T) {
		tc := newTestContext(t, "", "nums.reduce(x => x)")

		err := (&RunCmd{Inputs: inputs, Format: "json"}).Run(tc.Context)
		assert.IsError(t, err, parser.ErrUnknownStageMethod)
		assert.Contains(t, tc.stderr.String(), "^^^^^^")
	})

	t.Run("broken inputs", func(t *testing.T) {
		broken := testhelper.WriteFile(t, t.TempDir(), "broken.yaml", "nums: [1, 2\n")
		tc := newTestContext(t, "", "nums")

		err := (&RunCmd{Inputs: broken, Format: "json"}).Run(tc.Context)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse inputs")
	})
}

func TestTestCmd(t *testing.T) {
	dir := t.TempDir()
	passing := testhelper.WriteFile(t, dir, "basics.yaml", passingCorpus)
	failing := testhelper.WriteFile(t, dir, "offsets.yaml", failingCorpus)

	t.Run("table", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&TestCmd{Paths: []string{passing}}).run(context.Background(), tc.Context)
		assert.NoError(t, err)

		output := tc.stdout.String()
		assert.Contains(t, output, "=== Differential Test Summary ===")
		assert.Contains(t, output, "Semantic            1      1      0       0  100.0%")
		assert.Contains(t, output, "All examples passed! ✅")
	})

	t.Run("no semantic", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&TestCmd{Paths: []string{passing}, NoSemantic: true}).run(context.Background(), tc.Context)
		assert.NoError(t, err)
		assert.NotContains(t, tc.stdout.String(), "Semantic")
	})

	t.Run("failures", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&TestCmd{Paths: []string{failing}, Parallel: 2}).run(context.Background(), tc.Context)
		assert.IsError(t, err, ErrExamplesFailed)

		output := tc.stdout.String()
		assert.Contains(t, output, "Compilation: [2]")
		assert.Contains(t, output, "Some examples failed! ❌")
	})

	t.Run("json", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&TestCmd{Paths: []string{passing}, Format: "json"}).run(context.Background(), tc.Context)
		assert.NoError(t, err)

		var decoded struct {
			Name  string `json:"name"`
			Total int    `json:"total"`
		}
		require.NoError(t, json.Unmarshal(tc.stdout.Bytes(), &decoded))
		assert.Equal(t, "basics", decoded.Name)
		assert.Equal(t, 1, decoded.Total)
	})

	t.Run("run filter", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&TestCmd{Paths: []string{failing}, Filter: "Squares", Format: "yaml"}).run(context.Background(), tc.Context)
		assert.NoError(t, err)
		assert.Contains(t, tc.stdout.String(), "name: offsets\n")

		err = (&TestCmd{Paths: []string{failing}, Filter: "7"}).run(context.Background(), tc.Context)
		assert.IsError(t, err, corpus.ErrExampleNotFound)
	})

	t.Run("invalid format", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&TestCmd{Paths: []string{passing}, Format: "xml"}).run(context.Background(), tc.Context)
		assert.IsError(t, err, ErrInvalidFlag)
	})

	t.Run("history requires a database", func(t *testing.T) {
		tc := newTestContext(t, "", "")

		err := (&TestCmd{Paths: []string{passing}, History: true}).run(context.Background(), tc.Context)
		assert.IsError(t, err, ErrHistoryDisabled)
	})
}

func TestHistoryCmd(t *testing.T) {
	dir := t.TempDir()
	passing := testhelper.WriteFile(t, dir, "basics.yaml", passingCorpus)
	failing := testhelper.WriteFile(t, dir, "offsets.yaml", failingCorpus)
	dbPath := filepath.Join(dir, "history.db")

	config := "history:\n" +
		"  databases:\n" +
		"    local:\n" +
		"      driver: sqlite3\n" +
		"      connection: " + dbPath + "\n"

	tc := newTestContext(t, config, "")

	err := (&TestCmd{Paths: []string{passing, failing}, History: true, Format: "json"}).run(context.Background(), tc.Context)
	assert.IsError(t, err, ErrExamplesFailed)

	tc = newTestContext(t, config, "")
	err = (&HistoryCmd{Limit: 20}).Run(tc.Context)
	assert.NoError(t, err)

	output := tc.stdout.String()
	assert.Contains(t, output, "basics")
	assert.Contains(t, output, "offsets")
	assert.Contains(t, output, "local")
	assert.Contains(t, output, "Compilation")

	store, err := history.Open("sqlite3", dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runs, err := store.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, len(runs))

	var failedRun string
	for _, run := range runs {
		if run.Corpus == "offsets" {
			failedRun = run.ID
		}
	}

	tc = newTestContext(t, config, "")
	err = (&HistoryCmd{Failures: failedRun}).Run(tc.Context)
	assert.NoError(t, err)
	assert.Contains(t, tc.stdout.String(), "#2 Wrong offset: output differs")

	tc = newTestContext(t, config, "")
	err = (&HistoryCmd{Failures: "no-such-run"}).Run(tc.Context)
	assert.IsError(t, err, history.ErrRunNotFound)
}

func TestListCmd(t *testing.T) {
	dir := t.TempDir()
	testhelper.WriteFile(t, dir, "offsets.yaml", failingCorpus)

	tc := newTestContext(t, "", "")

	err := (&ListCmd{Paths: []string{dir}}).Run(tc.Context)
	assert.NoError(t, err)
	assert.Equal(t, ""+
		filepath.Join(dir, "offsets.yaml")+" (2 examples)\n"+
		"   1  Squares\n"+
		"   2  Wrong offset\n", tc.stdout.String())
}

const unformattedMarkdown = "## Even numbers\n\n```js\nnums.filter( x=>x%2===0 )\n```\n"

const formattedMarkdown = "## Even numbers\n\n```js\nnums.filter(x => x % 2 == 0)\n```\n"

func TestFmtCmd(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		path := testhelper.WriteFile(t, t.TempDir(), "doc.md", unformattedMarkdown)
		tc := newTestContext(t, "", "")

		err := (&FmtCmd{Input: path}).Run(tc.Context)
		assert.NoError(t, err)
		assert.Equal(t, formattedMarkdown, tc.stdout.String())
	})

	t.Run("check", func(t *testing.T) {
		dir := t.TempDir()
		unformatted := testhelper.WriteFile(t, dir, "a.md", unformattedMarkdown)
		formatted := testhelper.WriteFile(t, dir, "b.md", formattedMarkdown)
		tc := newTestContext(t, "", "")

		err := (&FmtCmd{Input: unformatted, Check: true}).Run(tc.Context)
		assert.IsError(t, err, ErrFileNotFormatted)
		assert.Contains(t, tc.stderr.String(), "a.md is not formatted")

		err = (&FmtCmd{Input: formatted, Check: true}).Run(tc.Context)
		assert.NoError(t, err)
	})

	t.Run("write directory", func(t *testing.T) {
		dir := t.TempDir()
		path := testhelper.WriteFile(t, dir, "doc.md", unformattedMarkdown)
		testhelper.WriteFile(t, dir, "notes.txt", "left alone")
		tc := newTestContext(t, "", "")

		err := (&FmtCmd{Input: dir, Write: true}).Run(tc.Context)
		assert.NoError(t, err)
		assert.Equal(t, "Formatted: "+path+"\n", tc.stdout.String())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, formattedMarkdown, string(data))
	})

	t.Run("stdin", func(t *testing.T) {
		tc := newTestContext(t, "", "```python\n[ x for x in nums ]\n```\n")

		err := (&FmtCmd{Joined: true}).Run(tc.Context)
		assert.NoError(t, err)
		assert.Equal(t, "```python\n[x for x in nums]\n```\n", tc.stdout.String())
	})
}

func TestConfigureColor(t *testing.T) {
	err := configureColor("sometimes", nil)
	assert.IsError(t, err, ErrInvalidFlag)

	assert.NoError(t, configureColor("never", nil))
	assert.NoError(t, configureColor("auto", nil))
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger("info", true)
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("loud", false)
	assert.Error(t, err)
}
