package score

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tmarcher/scorebreak/pkg/errors"
)

// Input formats for stack sequences.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// stackDoc is the on-disk shape of a stack sequence. Rationals are
// strings so every format stays exact.
type stackDoc struct {
	Stacks []stackSpec `json:"stacks" toml:"stacks" yaml:"stacks"`
}

type stackSpec struct {
	Min    Rat `json:"min" toml:"min" yaml:"min"`
	Ideal  Rat `json:"ideal" toml:"ideal" yaml:"ideal"`
	Gutter Rat `json:"gutter,omitempty" toml:"gutter,omitempty" yaml:"gutter,omitempty"`
}

// ReadStacks decodes a stack sequence from r in the given format
// (FormatJSON, FormatTOML, or FormatYAML). Indices are assigned from
// sequence order. The result is validated before it is returned.
func ReadStacks(r io.Reader, format string) ([]MeasureStack, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stacks")
	}

	var doc stackDoc
	switch strings.ToLower(format) {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatYAML, "yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported stack format: %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s stacks", format)
	}

	if len(doc.Stacks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no stacks in input")
	}

	stacks := make([]MeasureStack, len(doc.Stacks))
	for i, spec := range doc.Stacks {
		stacks[i] = NewStack(i, spec.Min.Rat, spec.Ideal.Rat, spec.Gutter.Rat)
	}
	if err := ValidateStacks(stacks); err != nil {
		return nil, err
	}
	return stacks, nil
}

// ReadStacksFile loads a stack sequence from path, inferring the format
// from the file extension.
func ReadStacksFile(path string) ([]MeasureStack, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	stacks, err := ReadStacks(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stacks, nil
}

// FormatFromPath maps a file extension to an input format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer format from %q (use .json, .toml, .yaml)", path)
	}
}
