package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/shibukawa/declo/formatter"
)

// FmtCmd represents the fmt command
type FmtCmd struct {
	Input  string `arg:"" optional:"" help:"Markdown file or directory (default: stdin)"`
	Write  bool   `short:"w" help:"Write result to input file instead of stdout"`
	Check  bool   `short:"c" help:"Check if files are formatted (exit 1 if not)"`
	Diff   bool   `short:"d" help:"Show diff instead of rewriting files"`
	Joined bool   `short:"j" help:"Render comprehensions with a single and-joined if clause"`
}

// Run executes the fmt command
func (cmd *FmtCmd) Run(ctx *Context) error {
	markdownFormatter := formatter.NewMarkdownFormatter()
	markdownFormatter.Joined = cmd.Joined

	if cmd.Input == "" || cmd.Input == "-" {
		return cmd.formatFromReader(ctx, markdownFormatter, ctx.Stdin, ctx.Stdout, "<stdin>")
	}

	info, err := os.Stat(cmd.Input)
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}

	if info.IsDir() {
		return cmd.formatDirectory(ctx, markdownFormatter, cmd.Input)
	}

	return cmd.formatFile(ctx, markdownFormatter, cmd.Input)
}

func (cmd *FmtCmd) formatFromReader(ctx *Context, markdownFormatter *formatter.MarkdownFormatter, reader io.Reader, writer io.Writer, filename string) error {
	input, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	formatted, err := markdownFormatter.Format(string(input))
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", filename, err)
	}

	formatted += "\n"

	if cmd.Check {
		if strings.TrimSpace(string(input)) != strings.TrimSpace(formatted) {
			fmt.Fprintf(ctx.Stderr, "%s is not formatted\n", filename)
			return ErrFileNotFormatted
		}

		return nil
	}

	if cmd.Diff {
		cmd.showDiff(ctx, string(input), formatted, filename)
		return nil
	}

	_, err = io.WriteString(writer, formatted)

	return err
}

func (cmd *FmtCmd) formatFile(ctx *Context, markdownFormatter *formatter.MarkdownFormatter, filename string) error {
	if !formatter.IsMarkdownFile(filename) {
		if !cmd.Check {
			fmt.Fprintf(ctx.Stderr, "Skipping non-Markdown file: %s\n", filename)
		}

		return nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	if !cmd.Write || cmd.Check || cmd.Diff {
		return cmd.formatFromReader(ctx, markdownFormatter, file, ctx.Stdout, filename)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filename), ".declo-fmt-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	err = cmd.formatFromReader(ctx, markdownFormatter, file, tempFile, filename)
	closeErr := tempFile.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tempFile.Name())
		return err
	}

	if err := os.Rename(tempFile.Name(), filename); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}

	return nil
}

func (cmd *FmtCmd) formatDirectory(ctx *Context, markdownFormatter *formatter.MarkdownFormatter, dirPath string) error {
	var hasErrors bool

	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !formatter.IsMarkdownFile(path) {
			return nil
		}

		if err := cmd.formatFile(ctx, markdownFormatter, path); err != nil {
			fmt.Fprintf(ctx.Stderr, "Error formatting %s: %v\n", path, err)

			hasErrors = true

			return nil
		}

		if cmd.Write && !cmd.Check && !cmd.Diff {
			fmt.Fprintf(ctx.Stdout, "Formatted: %s\n", path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	if hasErrors {
		return ErrFormattingErrors
	}

	return nil
}

// showDiff prints a line diff between the original and formatted content.
func (cmd *FmtCmd) showDiff(ctx *Context, original, formatted, filename string) {
	if strings.TrimSpace(original) == strings.TrimSpace(formatted) {
		return
	}

	fmt.Fprintf(ctx.Stdout, "--- %s (original)\n", filename)
	fmt.Fprintf(ctx.Stdout, "+++ %s (formatted)\n", filename)
	fmt.Fprint(ctx.Stdout, cmp.Diff(strings.Split(original, "\n"), strings.Split(formatted, "\n")))
}

// Help returns help text for the fmt command
func (cmd *FmtCmd) Help() string {
	return `Rewrite the chain and comprehension code blocks of Markdown corpus files
into canonical form, leaving the rest of the document untouched.

Blocks tagged js, javascript or declo are parsed as chains. Blocks tagged
python or py are parsed as comprehensions. Blocks that do not parse are kept
as they are.

Examples:
  # Print the formatted document
  declo fmt examples/array_methods.md

  # Format every Markdown corpus in place
  declo fmt -w ./examples/

  # Check formatting in CI
  declo fmt -c ./examples/`
}
