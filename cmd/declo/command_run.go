package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/shibukawa/declo"
)

// RunCmd represents the run command
type RunCmd struct {
	Input  string `arg:"" optional:"" help:"Chain program file (default: stdin)"`
	Inputs string `short:"i" type:"existingfile" help:"YAML or JSON file binding the free variables of the program"`
	Format string `short:"f" default:"json" enum:"json,yaml" help:"Output format: json or yaml"`
}

// Run executes the run command
func (cmd *RunCmd) Run(ctx *Context) error {
	name, program, err := ctx.readProgram(cmd.Input)
	if err != nil {
		return err
	}

	inputs, err := loadInputs(cmd.Inputs)
	if err != nil {
		return err
	}

	result, err := declo.Evaluate(context.Background(), program, inputs)
	if err != nil {
		return ctx.reportSyntaxError(name, err)
	}

	ctx.Logger.Debug("evaluated program", zap.String("input", name), zap.Int("inputs", len(inputs)))

	switch cmd.Format {
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		_, err = ctx.Stdout.Write(data)

		return err
	case "json", "":
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		fmt.Fprintln(ctx.Stdout, string(data))

		return nil
	default:
		return fmt.Errorf("%w: format %q (want json or yaml)", ErrInvalidFlag, cmd.Format)
	}
}

// Help returns help text for the run command
func (cmd *RunCmd) Help() string {
	return strings.TrimSpace(`
Evaluate a chain with the variables of an inputs file and print the result.
The inputs file is a YAML (or JSON) mapping from variable names to values.

Example:
  echo 'nums.filter(x => x % 2 == 0)' | declo run --inputs inputs.yaml`)
}

// loadInputs decodes the variable bindings of path. An empty path binds nothing.
func loadInputs(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	inputs := map[string]any{}
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("failed to parse inputs %s: %w", path, err)
	}

	return inputs, nil
}
