package score

import (
	"math/big"

	"gopkg.in/yaml.v3"

	"github.com/tmarcher/scorebreak/pkg/errors"
)

// R returns the exact rational n/d. It panics if d is zero; use it for
// literals in tests and policies, not for untrusted input.
func R(n, d int64) *big.Rat {
	return big.NewRat(n, d)
}

// ParseRat parses an exact rational from its string form. Accepted forms
// are "n/d" fractions, plain integers, and decimal numbers ("1.25"),
// all of which big.Rat represents exactly.
func ParseRat(s string) (*big.Rat, error) {
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty rational")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid rational: %q", s)
	}
	return r, nil
}

// FormatRat renders r in its shortest exact form: "n" for integers,
// "n/d" otherwise. A nil rational renders as "0".
func FormatRat(r *big.Rat) string {
	if r == nil {
		return "0"
	}
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}

// Rat is an exact rational that encodes as a string in JSON, TOML, and
// YAML documents. The zero value unmarshals but is invalid until set.
type Rat struct {
	*big.Rat
}

// NewRatValue wraps an existing big.Rat for serialization.
func NewRatValue(r *big.Rat) Rat {
	return Rat{Rat: r}
}

// MarshalText implements encoding.TextMarshaler, used by both the JSON
// and TOML encoders.
func (r Rat) MarshalText() ([]byte, error) {
	return []byte(FormatRat(r.Rat)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rat) UnmarshalText(text []byte) error {
	v, err := ParseRat(string(text))
	if err != nil {
		return err
	}
	r.Rat = v
	return nil
}

// MarshalYAML implements yaml.Marshaler so rationals stay strings in YAML.
func (r Rat) MarshalYAML() (any, error) {
	return FormatRat(r.Rat), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. yaml.v3 does not consult
// encoding.TextUnmarshaler, so this is required for YAML input.
func (r *Rat) UnmarshalYAML(node *yaml.Node) error {
	return r.UnmarshalText([]byte(node.Value))
}
