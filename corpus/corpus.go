// Package corpus loads the example collections the differential harness runs:
// pairs of a chain program and the comprehension it should compile to,
// optionally with input bindings for semantic checks.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Sentinel errors
var (
	ErrUnsupportedFormat = errors.New("unsupported corpus format")
	ErrInvalidCorpus     = errors.New("invalid corpus")
	ErrInvalidExample    = errors.New("invalid example")
	ErrExampleNotFound   = errors.New("example not found")
	ErrNoCorpus          = errors.New("no corpus files")
)

// Example is one chain/comprehension pair.
type Example struct {
	// Index is the 1-based position within its corpus.
	Index         int
	Title         string
	Chain         string
	Comprehension string
	// Inputs binds source names for semantic checks. Nil when absent.
	Inputs map[string]any
	File   string
	// Line is the 1-based line of the example in File, 0 when unknown.
	Line int
}

// Location renders file:line for messages.
func (e Example) Location() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d", e.File, e.Line)
	}

	return e.File
}

// Corpus is the ordered content of one corpus file.
type Corpus struct {
	Name     string
	Path     string
	Examples []Example
}

// rawExample is the on-disk layout shared by the JSON and YAML formats. The
// declo/python names come from the original corpus files.
type rawExample struct {
	Title         string         `json:"title" yaml:"title"`
	Declo         string         `json:"declo" yaml:"declo"`
	Chain         string         `json:"chain" yaml:"chain"`
	Python        string         `json:"python" yaml:"python"`
	Comprehension string         `json:"comprehension" yaml:"comprehension"`
	Inputs        map[string]any `json:"inputs" yaml:"inputs"`
}

func (r rawExample) example(path string, index, line int) (Example, error) {
	e := Example{
		Index:         index,
		Title:         strings.TrimSpace(r.Title),
		Chain:         strings.TrimSpace(firstNonEmpty(r.Chain, r.Declo)),
		Comprehension: strings.TrimSpace(firstNonEmpty(r.Comprehension, r.Python)),
		Inputs:        r.Inputs,
		File:          path,
		Line:          line,
	}

	return e, e.validate()
}

func (e Example) validate() error {
	if e.Chain == "" {
		return fmt.Errorf("%w: %s example %d (%s) has no chain", ErrInvalidExample, e.Location(), e.Index, e.Title)
	}

	if e.Comprehension == "" {
		return fmt.Errorf("%w: %s example %d (%s) has no comprehension", ErrInvalidExample, e.Location(), e.Index, e.Title)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

type loader func(path string, data []byte) ([]Example, error)

var loaders = map[string]loader{
	".json":     loadJSON,
	".yaml":     loadYAML,
	".yml":      loadYAML,
	".md":       loadMarkdown,
	".markdown": loadMarkdown,
	".xml":      loadXML,
}

// Supported reports whether path has a corpus file extension.
func Supported(path string) bool {
	_, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads one corpus file, choosing the format by extension.
func Load(path string) (*Corpus, error) {
	load, ok := loaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}

	examples, err := load(path, data)
	if err != nil {
		return nil, err
	}

	return &Corpus{
		Name:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:     path,
		Examples: examples,
	}, nil
}

// LoadAll loads every path. Directories are searched recursively for
// supported files in lexical order, skipping hidden and vendor directories.
func LoadAll(paths []string) ([]*Corpus, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access corpus %s: %w", path, err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				name := d.Name()
				if p != path && (name == "vendor" || name == "node_modules" || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}

				return nil
			}

			if Supported(p) {
				files = append(files, p)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan corpus directory %s: %w", path, err)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCorpus, strings.Join(paths, ", "))
	}

	corpora := make([]*Corpus, 0, len(files))
	for _, file := range files {
		c, err := Load(file)
		if err != nil {
			return nil, err
		}

		corpora = append(corpora, c)
	}

	return corpora, nil
}

// Filter selects examples by a 1-based index or a regular expression matched
// against titles. An empty pattern selects everything.
func Filter(examples []Example, pattern string) ([]Example, error) {
	if pattern == "" {
		return examples, nil
	}

	if index, err := strconv.Atoi(pattern); err == nil {
		for _, e := range examples {
			if e.Index == index {
				return []Example{e}, nil
			}
		}

		return nil, fmt.Errorf("%w: index %d (valid range 1-%d)", ErrExampleNotFound, index, len(examples))
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid example pattern %q: %w", pattern, err)
	}

	var result []Example
	for _, e := range examples {
		if re.MatchString(e.Title) {
			result = append(result, e)
		}
	}

	return result, nil
}
