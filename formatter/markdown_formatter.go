package formatter

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shibukawa/declo/parser"
)

var (
	codeBlockStartRe = regexp.MustCompile("^(\\s*)`{3}([A-Za-z]*)\\s*$")
	codeBlockEndRe   = regexp.MustCompile("^(\\s*)`{3}\\s*$")
)

// MarkdownFormatter rewrites the chain and comprehension code blocks of a
// Markdown corpus into canonical form.
type MarkdownFormatter struct {
	// Joined renders comprehensions with a single and-joined if clause.
	Joined bool
}

// NewMarkdownFormatter creates a new Markdown formatter
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// BlockLanguage classifies a fenced code block info string.
func BlockLanguage(info string) string {
	switch strings.ToLower(info) {
	case "js", "javascript", "declo":
		return "chain"
	case "python", "py":
		return "comprehension"
	case "yaml", "yml", "json":
		return "inputs"
	default:
		return ""
	}
}

// Format formats code blocks within a Markdown document. Blocks that do not
// parse are left untouched.
func (f *MarkdownFormatter) Format(markdown string) (string, error) {
	var result strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(markdown))

	var inBlock bool
	var language string
	var blockIndent string
	var content strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		if !inBlock {
			if match := codeBlockStartRe.FindStringSubmatch(line); match != nil {
				inBlock = true
				blockIndent = match[1]
				language = BlockLanguage(match[2])
				content.Reset()
			}

			result.WriteString(line)
			result.WriteString("\n")

			continue
		}

		if codeBlockEndRe.MatchString(line) {
			inBlock = false
			result.WriteString(f.formatBlock(content.String(), language, blockIndent))
			result.WriteString(line)
			result.WriteString("\n")

			continue
		}

		content.WriteString(strings.TrimPrefix(line, blockIndent))
		content.WriteString("\n")
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading markdown: %w", err)
	}

	if inBlock {
		result.WriteString(content.String())
	}

	return strings.TrimRight(result.String(), "\n"), nil
}

func (f *MarkdownFormatter) formatBlock(content, language, indent string) string {
	formatted, ok := f.formatProgram(content, language)
	if !ok {
		var builder strings.Builder
		for _, line := range strings.SplitAfter(content, "\n") {
			if line == "" {
				continue
			}

			if strings.TrimSpace(line) != "" {
				builder.WriteString(indent)
			}

			builder.WriteString(line)
		}

		return builder.String()
	}

	return indent + formatted + "\n"
}

func (f *MarkdownFormatter) formatProgram(content, language string) (string, bool) {
	if strings.TrimSpace(content) == "" {
		return "", false
	}

	switch language {
	case "chain":
		seq, err := parser.ParseChain(content)
		if err != nil {
			return "", false
		}

		return RenderChain(seq), true
	case "comprehension":
		c, err := parser.ParseComprehension(content)
		if err != nil {
			return "", false
		}

		if f.Joined {
			return RenderComprehensionJoined(c), true
		}

		return RenderComprehension(c), true
	default:
		return "", false
	}
}

// FormatFromReader formats code blocks from a reader and writes to a writer
func (f *MarkdownFormatter) FormatFromReader(reader io.Reader, writer io.Writer) error {
	input, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	formatted, err := f.Format(string(input))
	if err != nil {
		return fmt.Errorf("failed to format markdown: %w", err)
	}

	_, err = io.WriteString(writer, formatted+"\n")

	return err
}

// IsMarkdownFile checks if a file is a Markdown file
func IsMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))

	return ext == ".md" || ext == ".markdown"
}
