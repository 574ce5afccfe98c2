package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/shibukawa/declo"
)

// readProgram reads a program from a file, or from stdin when input is empty
// or "-".
func (ctx *Context) readProgram(input string) (string, string, error) {
	if input == "" || input == "-" {
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}

		return "<stdin>", string(data), nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", input, err)
	}

	return input, string(data), nil
}

// CompileCmd represents the compile command
type CompileCmd struct {
	Input  string `arg:"" optional:"" help:"Chain program file (default: stdin)"`
	Joined bool   `short:"j" help:"Join all conditions into a single if clause"`
}

// Run executes the compile command
func (cmd *CompileCmd) Run(ctx *Context) error {
	name, program, err := ctx.readProgram(cmd.Input)
	if err != nil {
		return err
	}

	compile := declo.Compile
	if cmd.Joined {
		compile = declo.CompileJoined
	}

	result, err := compile(program)
	if err != nil {
		return ctx.reportSyntaxError(name, err)
	}

	ctx.Logger.Debug("compiled program", zap.String("input", name))
	fmt.Fprintln(ctx.Stdout, result)

	return nil
}

// DecompileCmd represents the decompile command
type DecompileCmd struct {
	Input string `arg:"" optional:"" help:"Comprehension program file (default: stdin)"`
}

// Run executes the decompile command
func (cmd *DecompileCmd) Run(ctx *Context) error {
	name, program, err := ctx.readProgram(cmd.Input)
	if err != nil {
		return err
	}

	result, err := declo.Decompile(program)
	if err != nil {
		return ctx.reportSyntaxError(name, err)
	}

	ctx.Logger.Debug("decompiled program", zap.String("input", name))
	fmt.Fprintln(ctx.Stdout, result)

	return nil
}

// RoundtripCmd represents the roundtrip command
type RoundtripCmd struct {
	Input string `arg:"" optional:"" help:"Chain program file (default: stdin)"`
}

// Run executes the roundtrip command
func (cmd *RoundtripCmd) Run(ctx *Context) error {
	name, program, err := ctx.readProgram(cmd.Input)
	if err != nil {
		return err
	}

	result, err := declo.Roundtrip(program)
	if err != nil {
		return ctx.reportSyntaxError(name, err)
	}

	fmt.Fprintf(ctx.Stdout, "comprehension: %s\n", result.Comprehension)
	fmt.Fprintf(ctx.Stdout, "chain:         %s\n", result.Chain)
	fmt.Fprintf(ctx.Stdout, "stable:        %t\n", result.Stable)

	if !result.Stable {
		return fmt.Errorf("%s: %w", name, ErrUnstableRoundtrip)
	}

	return nil
}

// Help returns help text for the roundtrip command
func (cmd *RoundtripCmd) Help() string {
	return strings.TrimSpace(`
Compile a chain into a comprehension, decompile that comprehension into a
canonical chain and compile it again. The run is stable when both compiled
comprehensions are equivalent up to the name of the bound variable.

Example:
  echo 'nums.filter(x => x > 2).map(x => x * x)' | declo roundtrip`)
}
