package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// configureColor applies the --color / output.color mode. "auto" enables
// colors only when out is a terminal and NO_COLOR is unset.
func configureColor(mode string, out *os.File) error {
	switch mode {
	case "", "auto":
		_, noColor := os.LookupEnv("NO_COLOR")
		color.NoColor = noColor || !isTerminal(out)
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("%w: color mode %q (want auto, always or never)", ErrInvalidFlag, mode)
	}

	return nil
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
