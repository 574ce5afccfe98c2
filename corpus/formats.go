package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"

	"github.com/shibukawa/declo/formatter"
	"github.com/shibukawa/declo/markdownparser"
)

// loadJSON reads the original {"examples": [...]} layout. Numbers are kept as
// json.Number so integers survive until the evaluator normalizes them.
func loadJSON(path string, data []byte) ([]Example, error) {
	var file struct {
		Examples []rawExample `json:"examples"`
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCorpus, path, err)
	}

	examples := make([]Example, 0, len(file.Examples))
	for i, raw := range file.Examples {
		e, err := raw.example(path, i+1, 0)
		if err != nil {
			return nil, err
		}

		examples = append(examples, e)
	}

	return examples, nil
}

// loadYAML reads a top-level "examples:" list, keeping each item's line.
func loadYAML(path string, data []byte) ([]Example, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCorpus, path, err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: top level must be a mapping with an examples list", ErrInvalidCorpus, path)
	}

	mapping := root.Content[0]

	var list *yaml.Node
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == "examples" {
			list = mapping.Content[i+1]
			break
		}
	}

	if list == nil || list.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: %s: examples must be a list", ErrInvalidCorpus, path)
	}

	examples := make([]Example, 0, len(list.Content))
	for i, item := range list.Content {
		var raw rawExample
		if err := item.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %w", ErrInvalidCorpus, path, item.Line, err)
		}

		e, err := raw.example(path, i+1, item.Line)
		if err != nil {
			return nil, err
		}

		examples = append(examples, e)
	}

	return examples, nil
}

// loadMarkdown treats every section heading as one example.
func loadMarkdown(path string, data []byte) ([]Example, error) {
	doc, err := markdownparser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCorpus, path, err)
	}

	isLanguage := func(language string) func(string) bool {
		return func(info string) bool { return formatter.BlockLanguage(info) == language }
	}

	examples := make([]Example, 0, len(doc.Sections))
	for _, section := range doc.Sections {
		chainBlock, hasChain := section.Block(isLanguage("chain"))
		compBlock, hasComp := section.Block(isLanguage("comprehension"))

		if !hasChain && !hasComp {
			continue
		}

		e := Example{
			Index:         len(examples) + 1,
			Title:         section.Title,
			Chain:         strings.TrimSpace(chainBlock.Content),
			Comprehension: strings.TrimSpace(compBlock.Content),
			File:          path,
			Line:          section.Line,
		}

		if inputs, ok := section.Block(isLanguage("inputs")); ok {
			e.Inputs, err = decodeInputs(inputs.Content)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: inputs: %w", ErrInvalidCorpus, path, inputs.Line, err)
			}
		}

		if err := e.validate(); err != nil {
			return nil, err
		}

		examples = append(examples, e)
	}

	return examples, nil
}

// loadXML reads <corpus><example title=""><chain/><comprehension/><input name=""/></example></corpus>.
func loadXML(path string, data []byte) ([]Example, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCorpus, path, err)
	}

	root := doc.SelectElement("corpus")
	if root == nil {
		return nil, fmt.Errorf("%w: %s: missing <corpus> element", ErrInvalidCorpus, path)
	}

	var examples []Example

	for i, elem := range root.SelectElements("example") {
		e := Example{
			Index: i + 1,
			Title: strings.TrimSpace(elem.SelectAttrValue("title", "")),
			File:  path,
		}

		if chain := elem.SelectElement("chain"); chain != nil {
			e.Chain = strings.TrimSpace(chain.Text())
		}

		if comp := elem.SelectElement("comprehension"); comp != nil {
			e.Comprehension = strings.TrimSpace(comp.Text())
		}

		for _, input := range elem.SelectElements("input") {
			name := input.SelectAttrValue("name", "")
			if name == "" {
				return nil, fmt.Errorf("%w: %s example %d: <input> needs a name", ErrInvalidCorpus, path, e.Index)
			}

			var value any
			if err := yaml.Unmarshal([]byte(input.Text()), &value); err != nil {
				return nil, fmt.Errorf("%w: %s example %d: input %s: %w", ErrInvalidCorpus, path, e.Index, name, err)
			}

			if e.Inputs == nil {
				e.Inputs = map[string]any{}
			}

			e.Inputs[name] = value
		}

		if err := e.validate(); err != nil {
			return nil, err
		}

		examples = append(examples, e)
	}

	return examples, nil
}

// decodeInputs parses a YAML or JSON mapping of input bindings.
func decodeInputs(content string) (map[string]any, error) {
	var inputs map[string]any
	if err := yaml.Unmarshal([]byte(content), &inputs); err != nil {
		return nil, err
	}

	return inputs, nil
}
