package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/shibukawa/declo"
	"github.com/shibukawa/declo/parser"
)

var version = "dev"

// Context represents the global context for commands
type Context struct {
	Config  *declo.Config
	Verbose bool
	Quiet   bool
	Logger  *zap.Logger
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// CLI represents the command-line interface
var CLI struct {
	Config  string `help:"Configuration file path" default:"declo.yaml"`
	Verbose bool   `help:"Enable verbose output" short:"v"`
	Quiet   bool   `help:"Suppress output" short:"q"`
	Color   string `help:"Colorize output: auto, always or never (default: output.color)"`

	Compile   CompileCmd   `cmd:"" help:"Compile a filter/map chain into a list comprehension"`
	Decompile DecompileCmd `cmd:"" help:"Decompile a list comprehension into a filter/map chain"`
	Roundtrip RoundtripCmd `cmd:"" help:"Compile a chain, decompile the result and check it compiles back"`
	Run       RunCmd       `cmd:"" help:"Evaluate a chain with bound inputs and print the result"`
	Test      TestCmd      `cmd:"" help:"Run the differential harness over corpus files"`
	List      ListCmd      `cmd:"" help:"List corpus examples"`
	History   HistoryCmd   `cmd:"" help:"Show stored harness runs"`
	Fmt       FmtCmd       `cmd:"" help:"Rewrite chain and comprehension blocks in Markdown files canonically"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintf(ctx.Stdout, "declo %s\n", version)
	return nil
}

// newContext loads the configuration and prepares logging and colors.
func newContext(configPath string, verbose, quiet bool, colorMode string) (*Context, error) {
	config, err := declo.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if colorMode == "" {
		colorMode = config.Output.Color
	}

	if err := configureColor(colorMode, os.Stdout); err != nil {
		return nil, err
	}

	logger, err := newLogger(config.Logging.Level, verbose)
	if err != nil {
		return nil, err
	}

	return &Context{
		Config:  config,
		Verbose: verbose,
		Quiet:   quiet,
		Logger:  logger,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("declo"),
		kong.Description("Convert between filter/map chains and list comprehensions."),
		kong.UsageOnError(),
	)

	appCtx, err := newContext(CLI.Config, CLI.Verbose, CLI.Quiet, CLI.Color)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = ctx.Run(appCtx)

	_ = appCtx.Logger.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// reportSyntaxError prints the offending source line of a parse failure and
// prefixes err with the input name.
func (ctx *Context) reportSyntaxError(name string, err error) error {
	if syntaxErr, ok := parser.AsSyntaxError(err); ok && !ctx.Quiet {
		if snippet := syntaxErr.Snippet(); snippet != "" {
			fmt.Fprintln(ctx.Stderr, snippet)
		}
	}

	return fmt.Errorf("%s: %w", name, err)
}
