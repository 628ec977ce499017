package score

import (
	"encoding/json"
	"testing"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

func TestParseRat(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "3/2", want: "3/2"},
		{in: "4", want: "4"},
		{in: "1.25", want: "5/4"},
		{in: "0", want: "0"},
		{in: "-7/3", want: "-7/3"},
		{in: "", err: true},
		{in: "abc", err: true},
		{in: "1/0", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r, err := ParseRat(tt.in)
			if tt.err {
				if err == nil {
					t.Fatalf("ParseRat(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRat(%q) error: %v", tt.in, err)
			}
			if got := FormatRat(r); got != tt.want {
				t.Errorf("FormatRat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRatNil(t *testing.T) {
	if got := FormatRat(nil); got != "0" {
		t.Errorf("FormatRat(nil) = %q, want 0", got)
	}
}

func TestRatJSONRoundTrip(t *testing.T) {
	type doc struct {
		W Rat `json:"w"`
	}
	in := `{"w": "7/5"}`

	var d doc
	if err := json.Unmarshal([]byte(in), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if FormatRat(d.W.Rat) != "7/5" {
		t.Errorf("decoded %s, want 7/5", FormatRat(d.W.Rat))
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"w":"7/5"}` {
		t.Errorf("encoded %s", out)
	}
}

func TestRatYAML(t *testing.T) {
	type doc struct {
		W Rat `yaml:"w"`
	}
	var d doc
	if err := yaml.Unmarshal([]byte("w: 3/4\n"), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if FormatRat(d.W.Rat) != "3/4" {
		t.Errorf("decoded %s, want 3/4", FormatRat(d.W.Rat))
	}
}

func TestRatTOML(t *testing.T) {
	type doc struct {
		W Rat `toml:"w"`
	}
	var d doc
	if err := toml.Unmarshal([]byte(`w = "9/8"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if FormatRat(d.W.Rat) != "9/8" {
		t.Errorf("decoded %s, want 9/8", FormatRat(d.W.Rat))
	}
}

func TestRatDecimalStaysExact(t *testing.T) {
	r, err := ParseRat("0.1")
	if err != nil {
		t.Fatal(err)
	}
	// 0.1 is exactly 1/10 as a rational, unlike its float64 form.
	if FormatRat(r) != "1/10" {
		t.Errorf("0.1 parsed to %s, want 1/10", FormatRat(r))
	}
}
