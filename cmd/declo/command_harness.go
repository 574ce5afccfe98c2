package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/shibukawa/declo/corpus"
	"github.com/shibukawa/declo/history"
	"github.com/shibukawa/declo/testrunner"
)

// TestCmd represents the test command
type TestCmd struct {
	Paths      []string      `arg:"" optional:"" help:"Corpus files or directories (default: corpus.paths)"`
	Filter     string        `name:"run" help:"Run only examples whose title matches this pattern, or the example with this 1-based index"`
	Parallel   int           `short:"p" help:"Number of examples checked at once (default: harness.parallel)"`
	Timeout    time.Duration `help:"Timeout per example (default: harness.example_timeout)"`
	Format     string        `short:"f" help:"Output format: table, json or yaml (default: output.format)"`
	NoSemantic bool          `help:"Skip the semantic comparison"`
	History    bool          `help:"Store the results in the history database"`
}

// Run executes the test command
func (cmd *TestCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return cmd.run(runCtx, ctx)
}

func (cmd *TestCmd) run(runCtx context.Context, ctx *Context) error {
	format := cmd.Format
	if format == "" {
		format = ctx.Config.Output.Format
	}

	switch format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("%w: format %q (want table, json or yaml)", ErrInvalidFlag, format)
	}

	paths := cmd.Paths
	if len(paths) == 0 {
		paths = ctx.Config.Corpus.Paths
	}

	corpora, err := corpus.LoadAll(paths)
	if err != nil {
		return err
	}

	options := cmd.options(ctx)

	var store *history.Store

	environment := ""

	if cmd.History || ctx.Config.History.Enabled {
		name, db, err := ctx.Config.HistoryDatabase()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHistoryDisabled, err)
		}

		store, err = history.Open(db.Driver, db.Connection, ctx.Logger)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(runCtx); err != nil {
			return err
		}

		environment = name
	}

	failed := false

	for _, c := range corpora {
		examples, err := corpus.Filter(c.Examples, cmd.Filter)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Path, err)
		}

		if len(examples) == 0 {
			ctx.Logger.Debug("no examples selected", zap.String("corpus", c.Path))
			continue
		}

		ctx.Logger.Debug("running corpus",
			zap.String("corpus", c.Path),
			zap.Int("examples", len(examples)),
			zap.Int("parallel", options.Parallel))

		report := testrunner.RunCorpus(runCtx, examples, options)
		report.Name = c.Name

		if err := cmd.write(ctx, report, format, len(corpora) > 1); err != nil {
			return err
		}

		if !report.Passed() {
			failed = true
		}

		if store != nil {
			id, err := store.SaveReport(runCtx, report, c.Name, environment)
			if err != nil {
				return err
			}

			ctx.Logger.Info("stored run", zap.String("id", id), zap.String("corpus", c.Name))
		}
	}

	if failed {
		return ErrExamplesFailed
	}

	return nil
}

func (cmd *TestCmd) options(ctx *Context) *testrunner.Options {
	options := &testrunner.Options{
		Parallel:       ctx.Config.Harness.Parallel,
		ExampleTimeout: ctx.Config.Harness.ExampleTimeout,
		Semantic:       ctx.Config.Harness.SemanticEnabled() && !cmd.NoSemantic,
		Logger:         ctx.Logger,
	}

	if cmd.Parallel > 0 {
		options.Parallel = cmd.Parallel
	}

	if cmd.Timeout > 0 {
		options.ExampleTimeout = cmd.Timeout
	}

	return options
}

func (cmd *TestCmd) write(ctx *Context, report *testrunner.Report, format string, heading bool) error {
	switch format {
	case "json":
		return report.WriteJSON(ctx.Stdout)
	case "yaml":
		return report.WriteYAML(ctx.Stdout)
	}

	if ctx.Quiet {
		if !report.Passed() {
			fmt.Fprintf(ctx.Stdout, "%s: %d of %d examples failed\n", report.Name, report.FailedExamples(), report.Total)
		}

		return nil
	}

	if heading {
		fmt.Fprintf(ctx.Stdout, "\n# %s\n", report.Name)
	}

	testrunner.PrintSummary(ctx.Stdout, report, ctx.Verbose)

	return nil
}

// ListCmd represents the list command
type ListCmd struct {
	Paths []string `arg:"" optional:"" help:"Corpus files or directories (default: corpus.paths)"`
}

// Run executes the list command
func (cmd *ListCmd) Run(ctx *Context) error {
	paths := cmd.Paths
	if len(paths) == 0 {
		paths = ctx.Config.Corpus.Paths
	}

	corpora, err := corpus.LoadAll(paths)
	if err != nil {
		return err
	}

	for _, c := range corpora {
		fmt.Fprintf(ctx.Stdout, "%s (%d examples)\n", c.Path, len(c.Examples))

		for _, e := range c.Examples {
			fmt.Fprintf(ctx.Stdout, "%4d  %s\n", e.Index, e.Title)
		}
	}

	return nil
}

// HistoryCmd represents the history command
type HistoryCmd struct {
	Limit    int    `short:"n" default:"20" help:"Number of runs to show"`
	Failures string `help:"Show the failing examples of this run ID"`
}

// Run executes the history command
func (cmd *HistoryCmd) Run(ctx *Context) error {
	_, db, err := ctx.Config.HistoryDatabase()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHistoryDisabled, err)
	}

	store, err := history.Open(db.Driver, db.Connection, ctx.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	runCtx := context.Background()

	if err := store.Migrate(runCtx); err != nil {
		return err
	}

	if cmd.Failures != "" {
		return cmd.printFailures(runCtx, ctx, store)
	}

	runs, err := store.ListRuns(runCtx, cmd.Limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(ctx.Stdout, "No runs recorded.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(ctx.Stdout, "%s  %s  %-12s %-20s %d examples, %d failed\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), run.Environment, run.Corpus, run.Total, run.Failed)

		for _, category := range run.Categories {
			fmt.Fprintf(ctx.Stdout, "    %-14s %3d/%-3d %6.1f%%\n",
				testrunner.Category(category.Category).Label(), category.Passed, category.Total, category.Rate)
		}
	}

	return nil
}

func (cmd *HistoryCmd) printFailures(runCtx context.Context, ctx *Context, store *history.Store) error {
	failures, err := store.Failures(runCtx, cmd.Failures)
	if err != nil {
		return err
	}

	if len(failures) == 0 {
		fmt.Fprintf(ctx.Stdout, "Run %s had no failures.\n", cmd.Failures)
		return nil
	}

	for _, f := range failures {
		fmt.Fprintf(ctx.Stdout, "%-14s #%d %s: %s\n",
			testrunner.Category(f.Category).Label(), f.Index, f.Title, f.Reason)
	}

	return nil
}
