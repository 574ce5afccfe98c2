// Package markdownparser splits a Markdown corpus document into sections and
// the fenced code blocks they contain.
package markdownparser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Sentinel errors
var (
	ErrInvalidFrontMatter = errors.New("invalid front matter")
)

// Document is a parsed Markdown file.
type Document struct {
	Metadata map[string]any
	// Title is the first level-1 heading, or the front matter title.
	Title    string
	Sections []Section
}

// Section is the content between a level-2 (or deeper) heading and the next.
type Section struct {
	Title  string
	Level  int
	Line   int
	Blocks []CodeBlock
}

// CodeBlock is a fenced code block. Line is the 1-based line of its first
// content line.
type CodeBlock struct {
	Info    string
	Content string
	Line    int
}

// Block returns the first block whose info string satisfies match.
func (s *Section) Block(match func(info string) bool) (CodeBlock, bool) {
	for _, block := range s.Blocks {
		if match(block.Info) {
			return block, true
		}
	}

	return CodeBlock{}, false
}

// Parse parses a markdown corpus file.
func Parse(reader io.Reader) (*Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	frontMatter, body, lineOffset, err := parseFrontMatter(string(content))
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	source := []byte(body)
	doc := md.Parser().Parse(text.NewReader(source))

	document := &Document{Metadata: frontMatter}
	if title, ok := frontMatter["title"].(string); ok {
		document.Title = title
	}

	lineOf := func(offset int) int {
		return lineOffset + 1 + strings.Count(body[:offset], "\n")
	}

	var current *Section

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromHeadingNode(n, source)

			if n.Level == 1 {
				if document.Title == "" {
					document.Title = headingText
				}

				continue
			}

			document.Sections = append(document.Sections, Section{
				Title: headingText,
				Level: n.Level,
				Line:  lineOf(nodeOffset(n)),
			})
			current = &document.Sections[len(document.Sections)-1]
		case *ast.FencedCodeBlock:
			if current == nil {
				continue
			}

			current.Blocks = append(current.Blocks, CodeBlock{
				Info:    strings.ToLower(strings.TrimSpace(getCodeBlockInfo(n, source))),
				Content: extractCodeBlockContent(n, source),
				Line:    lineOf(nodeOffset(n)),
			})
		}
	}

	return document, nil
}

// extractTextFromHeadingNode extracts text content from a heading AST node
func extractTextFromHeadingNode(heading ast.Node, content []byte) string {
	var result strings.Builder

	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			segment := node.Segment
			result.Write(content[segment.Start:segment.Stop])
		case *ast.String:
			result.Write(node.Value)
		}

		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(result.String())
}

// nodeOffset returns the byte offset of the first line of a block node.
func nodeOffset(node ast.Node) int {
	if node.Lines() != nil && node.Lines().Len() > 0 {
		return node.Lines().At(0).Start
	}

	return 0
}

func getCodeBlockInfo(codeBlock *ast.FencedCodeBlock, content []byte) string {
	if codeBlock.Info != nil {
		segment := codeBlock.Info.Segment
		return string(content[segment.Start:segment.Stop])
	}

	return ""
}

// extractCodeBlockContent extracts the actual content from a code block AST node
func extractCodeBlockContent(codeBlock ast.Node, content []byte) string {
	var result strings.Builder

	if codeBlock.Lines() != nil {
		for i := 0; i < codeBlock.Lines().Len(); i++ {
			line := codeBlock.Lines().At(i)
			result.Write(content[line.Start:line.Stop])
		}
	}

	return strings.TrimRight(result.String(), "\n")
}
