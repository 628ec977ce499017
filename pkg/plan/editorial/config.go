package editorial

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tmarcher/scorebreak/pkg/errors"
	"github.com/tmarcher/scorebreak/pkg/score"
)

// constraintsDoc is the on-disk shape of an editorial constraints file.
// Prevented ranges are [lo, hi) pairs; override keys are stack indices.
type constraintsDoc struct {
	Forced    []int                   `json:"forced" toml:"forced" yaml:"forced"`
	Prevented [][2]int                `json:"prevented" toml:"prevented" yaml:"prevented"`
	Overrides map[string]overrideSpec `json:"overrides" toml:"overrides" yaml:"overrides"`
}

type overrideSpec struct {
	Min   *score.Rat `json:"min,omitempty" toml:"min,omitempty" yaml:"min,omitempty"`
	Ideal *score.Rat `json:"ideal,omitempty" toml:"ideal,omitempty" yaml:"ideal,omitempty"`
}

// ReadConstraints decodes editorial constraints from r in the given
// format (score.FormatJSON, score.FormatTOML, or score.FormatYAML).
// Structural validation against a specific sequence length happens
// later, in Validate.
func ReadConstraints(r io.Reader, format string) (Constraints, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Constraints{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read constraints")
	}

	var doc constraintsDoc
	switch strings.ToLower(format) {
	case score.FormatJSON:
		err = json.Unmarshal(data, &doc)
	case score.FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case score.FormatYAML, "yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return Constraints{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported constraints format: %q", format)
	}
	if err != nil {
		return Constraints{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s constraints", format)
	}

	c := Constraints{Forced: doc.Forced}
	for _, pr := range doc.Prevented {
		c.Prevented = append(c.Prevented, Range{Lo: pr[0], Hi: pr[1]})
	}
	if len(doc.Overrides) > 0 {
		c.Overrides = make(map[int]Override, len(doc.Overrides))
		for key, spec := range doc.Overrides {
			idx, err := strconv.Atoi(key)
			if err != nil {
				return Constraints{}, errors.New(errors.ErrCodeConfigConflict, "override key %q is not a stack index", key)
			}
			ov := Override{}
			if spec.Min != nil {
				ov.Min = new(big.Rat).Set(spec.Min.Rat)
			}
			if spec.Ideal != nil {
				ov.Ideal = new(big.Rat).Set(spec.Ideal.Rat)
			}
			c.Overrides[idx] = ov
		}
	}
	return c, nil
}

// ReadConstraintsFile loads constraints from path, inferring the format
// from the file extension.
func ReadConstraintsFile(path string) (Constraints, error) {
	format, err := score.FormatFromPath(path)
	if err != nil {
		return Constraints{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Constraints{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return Constraints{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	c, err := ReadConstraints(f, format)
	if err != nil {
		return Constraints{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
