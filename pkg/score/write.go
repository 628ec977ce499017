package score

import (
	"bytes"
	"encoding/json"
)

// MarshalStacks encodes a validated stack sequence as the canonical JSON
// document. This is the format used for cache entries and interchange;
// rationals stay exact strings.
func MarshalStacks(stacks []MeasureStack) ([]byte, error) {
	if err := ValidateStacks(stacks); err != nil {
		return nil, err
	}
	doc := stackDoc{Stacks: make([]stackSpec, len(stacks))}
	for i, s := range stacks {
		doc.Stacks[i] = stackSpec{
			Min:    NewRatValue(s.Min),
			Ideal:  NewRatValue(s.Ideal),
			Gutter: NewRatValue(s.GutterOrZero()),
		}
	}
	return json.Marshal(doc)
}

// UnmarshalStacks decodes the canonical JSON document produced by
// MarshalStacks.
func UnmarshalStacks(data []byte) ([]MeasureStack, error) {
	return ReadStacks(bytes.NewReader(data), FormatJSON)
}
