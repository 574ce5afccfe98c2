// Package testhelper holds small utilities shared by package tests.
package testhelper

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var (
	whiteSpaces = regexp.MustCompile(`(\s+)`)
	leadingTabs = regexp.MustCompile(`^(\t+)`)
)

// TrimIndent strips the indentation of the first content line from every line
// of a raw string literal and drops the leading newline. Remaining leading tabs
// become four spaces each.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")

	var indent string
	if len(lines) > 1 {
		indent = whiteSpaces.FindString(lines[1])
	}

	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		lines[i] = leadingTabs.ReplaceAllStringFunc(line, func(match string) string {
			return strings.Repeat("    ", len(match))
		})
	}

	return strings.Join(lines[1:], "\n")
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}

	return path
}
