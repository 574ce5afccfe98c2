package markdownparser

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParseBasic(t *testing.T) {
	input := `---
title: "Array examples"
category: basics
---

# Ignored because front matter has a title

## Even numbers

` + "```js" + `
nums.filter(x => x % 2 == 0)
` + "```" + `

` + "```python" + `
[x for x in nums if x % 2 == 0]
` + "```" + `

` + "```yaml" + `
nums: [1, 2, 3, 4]
` + "```" + `

## Squares

Some prose.

` + "```javascript" + `
nums.map(x => x * x)
` + "```" + `
`

	doc, err := Parse(strings.NewReader(input))
	assert.NoError(t, err)

	assert.Equal(t, "Array examples", doc.Title)
	assert.Equal(t, "basics", doc.Metadata["category"])
	assert.Equal(t, 2, len(doc.Sections))

	even := doc.Sections[0]
	assert.Equal(t, "Even numbers", even.Title)
	assert.Equal(t, 2, even.Level)
	assert.Equal(t, 8, even.Line)
	assert.Equal(t, 3, len(even.Blocks))
	assert.Equal(t, CodeBlock{Info: "js", Content: "nums.filter(x => x % 2 == 0)", Line: 11}, even.Blocks[0])
	assert.Equal(t, CodeBlock{Info: "python", Content: "[x for x in nums if x % 2 == 0]", Line: 15}, even.Blocks[1])
	assert.Equal(t, "nums: [1, 2, 3, 4]", even.Blocks[2].Content)

	block, ok := even.Block(func(info string) bool { return info == "python" })
	assert.True(t, ok)
	assert.Equal(t, 15, block.Line)

	_, ok = doc.Sections[1].Block(func(info string) bool { return info == "python" })
	assert.False(t, ok)
}

func TestParseWithoutFrontMatter(t *testing.T) {
	input := "# Corpus\n\n## One\n\n```py\n[a for a in b]\n```\n"

	doc, err := Parse(strings.NewReader(input))
	assert.NoError(t, err)
	assert.Equal(t, "Corpus", doc.Title)
	assert.Equal(t, 1, len(doc.Sections))
	assert.Equal(t, 3, doc.Sections[0].Line)
	assert.Equal(t, 6, doc.Sections[0].Blocks[0].Line)
}

func TestParseInvalidFrontMatter(t *testing.T) {
	_, err := Parse(strings.NewReader("---\ntitle: x\n"))
	assert.IsError(t, err, ErrInvalidFrontMatter)

	_, err = Parse(strings.NewReader("---\ntitle: [x\n---\n"))
	assert.IsError(t, err, ErrInvalidFrontMatter)
}
