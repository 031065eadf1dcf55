package filters

import (
	"regexp"

	"datalens/internal/dataset"
)

// Kind identifies how a filter narrows its column
type Kind string

const (
	// KindRange keeps rows whose numeric value falls inside [Low, High]
	KindRange Kind = "range"
	// KindMembership keeps rows whose value is one of the selected set
	KindMembership Kind = "membership"
	// KindRegex keeps rows whose string form matches a case-insensitive pattern
	KindRegex Kind = "regex"
)

// Spec is the full description of one active column filter: the owning
// column, the filter kind and the current parameter value. Specs are
// plain values held by the registry; they carry no widget or callback state.
type Spec struct {
	Column string `json:"column"`
	Kind   Kind   `json:"kind"`

	// Range parameters
	Low  float64 `json:"low,omitempty"`
	High float64 `json:"high,omitempty"`

	// Membership parameters
	Selected []string `json:"selected,omitempty"`
	// Options is the seed set of selectable values, fixed at Add time
	Options []string `json:"options,omitempty"`

	// Regex parameters. A pattern that fails to compile leaves re nil,
	// turning the spec into a pass-through.
	Pattern string `json:"pattern,omitempty"`
	re      *regexp.Regexp
}

// matches reports whether row i of the column passes this spec.
// A spec with nothing to constrain (empty selection, empty or invalid
// pattern) passes every row.
func (s *Spec) matches(col *dataset.Column, i int) bool {
	switch s.Kind {
	case KindRange:
		v := col.Floats[i]
		return v >= s.Low && v <= s.High

	case KindMembership:
		if len(s.Selected) == 0 {
			return true
		}
		v := col.CellString(i)
		for _, sel := range s.Selected {
			if sel == v {
				return true
			}
		}
		return false

	case KindRegex:
		if s.re == nil {
			return true
		}
		return s.re.MatchString(col.CellString(i))
	}
	return true
}

// compilePattern compiles a user pattern as a case-insensitive,
// substring-matching regex. Returns nil for the empty pattern.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile("(?i)" + pattern)
}
