package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/constellation_viewer/pkg/model"

	"gopkg.in/yaml.v3"
)

// Format of a tree file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultFileNames are tried in order by LoadTree when given a directory.
var DefaultFileNames = []string{
	"constellation.yaml",
	"constellation.yml",
	"constellation.json",
}

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON
var ErrUnsupportedFormat = errors.New("unsupported tree format")

//go:embed sample.yaml
var sampleYAML []byte

// SampleTree returns the built-in demonstration tree.
func SampleTree() *model.ConceptNode {
	root, err := ParseTree(sampleYAML, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded sample tree is invalid: %v", err))
	}
	return root
}

// LoadTree reads a concept tree from path. A directory is searched for one of
// DefaultFileNames; an empty path means the current working directory.
func LoadTree(path string) (*model.ConceptNode, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no concept tree found at %s", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		found, err := findTreeFile(path)
		if err != nil {
			return nil, err
		}
		path = found
	}
	return LoadTreeFromFile(path)
}

// ResolvePath returns the file LoadTree would read for path.
func ResolvePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return findTreeFile(path)
	}
	return path, nil
}

func findTreeFile(dir string) (string, error) {
	for _, name := range DefaultFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no concept tree found in %s (looked for %s)", dir, strings.Join(DefaultFileNames, ", "))
}

// LoadTreeFromFile reads a tree file, choosing the format by extension.
func LoadTreeFromFile(path string) (*model.ConceptNode, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	root, err := ParseTree(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// FormatForPath maps a file extension to a Format.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseTree decodes and validates a tree. An empty document is an error;
// an empty tree is a root with no children.
func ParseTree(data []byte, format Format) (*model.ConceptNode, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("tree document is empty")
	}

	var root model.ConceptNode
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&root); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&root); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err := root.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tree: %w", err)
	}
	return &root, nil
}
