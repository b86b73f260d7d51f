package types

import "github.com/aoyoqui/benderr/pkg/errs"

// SpecKind discriminates the four accepted spec variants.
type SpecKind string

const (
	SpecNone    SpecKind = "none"
	SpecBoolean SpecKind = "boolean"
	SpecNumeric SpecKind = "numeric"
	SpecString  SpecKind = "string"
)

// NoneAction controls what a NoneSpec does with the handler's return value.
type NoneAction string

const (
	NoneLog    NoneAction = "log"
	NoneIgnore NoneAction = "ignore"
)

// Comparator enumerates the fourteen numeric comparison operators. The
// LTGT family is disjunctive ("outside a band") and short-circuits on its
// first true disjunct; the GTLT family is conjunctive ("inside a band").
// Do not infer meaning from naming alone; see numericPasses for the
// authoritative truth table.
type Comparator string

const (
	CompGT   Comparator = "GT"
	CompGE   Comparator = "GE"
	CompLT   Comparator = "LT"
	CompLE   Comparator = "LE"
	CompEQ   Comparator = "EQ"
	CompNEQ  Comparator = "NEQ"
	CompGTLT Comparator = "GTLT"
	CompGELT Comparator = "GELT"
	CompGTLE Comparator = "GTLE"
	CompGELE Comparator = "GELE"
	CompLTGT Comparator = "LTGT"
	CompLTGE Comparator = "LTGE"
	CompLEGT Comparator = "LEGT"
	CompLEGE Comparator = "LEGE"
)

func (c Comparator) requiresLower() bool {
	switch c {
	case CompGT, CompGE, CompEQ, CompNEQ, CompGTLT, CompGELT, CompGTLE, CompGELE, CompLTGT, CompLTGE, CompLEGT, CompLEGE:
		return true
	default:
		return false
	}
}

func (c Comparator) requiresUpper() bool {
	switch c {
	case CompLT, CompLE, CompGTLT, CompGELT, CompGTLE, CompGELE, CompLTGT, CompLTGE, CompLEGT, CompLEGE:
		return true
	default:
		return false
	}
}

// Spec is the tagged pass/fail criterion attached to a Step.
// Only the fields relevant to Kind are meaningful; NewXSpec constructors
// are the supported way to build one, JSON unmarshalling is the other.
type Spec struct {
	Name string   `json:"name"`
	Kind SpecKind `json:"type"`

	// SpecNone
	Action NoneAction `json:"action,omitempty"`

	// SpecBoolean
	PassIfTrue bool `json:"pass_if_true,omitempty"`

	// SpecNumeric
	Comparator Comparator `json:"comparator,omitempty"`
	HasLower   bool       `json:"has_lower,omitempty"`
	Lower      float64    `json:"lower,omitempty"`
	HasUpper   bool       `json:"has_upper,omitempty"`
	Upper      float64    `json:"upper,omitempty"`
	Units      string     `json:"units,omitempty"`

	// SpecString
	Expected      string `json:"expected,omitempty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
}

// NewNoneSpec builds a SpecNone.
func NewNoneSpec(name string, action NoneAction) (Spec, error) {
	if action != NoneLog && action != NoneIgnore {
		return Spec{}, &errs.InvalidSpec{Reason: "unsupported none-spec action: " + string(action)}
	}
	return Spec{Name: name, Kind: SpecNone, Action: action}, nil
}

// NewBooleanSpec builds a SpecBoolean.
func NewBooleanSpec(name string, passIfTrue bool) Spec {
	return Spec{Name: name, Kind: SpecBoolean, PassIfTrue: passIfTrue}
}

// NewStringSpec builds a SpecString with the given case sensitivity. A
// string spec decoded from JSON without case_sensitive defaults to true, as
// in the original's StringSpec dataclass.
func NewStringSpec(name, expected string, caseSensitive bool) Spec {
	return Spec{Name: name, Kind: SpecString, Expected: expected, CaseSensitive: caseSensitive}
}

// NewNumericSpec builds a SpecNumeric, validating that the comparator's
// required bounds are present and that upper >= lower when both are set.
func NewNumericSpec(name string, comparator Comparator, lower, upper *float64, units string) (Spec, error) {
	s := Spec{Name: name, Kind: SpecNumeric, Comparator: comparator, Units: units}
	if lower != nil {
		s.HasLower = true
		s.Lower = *lower
	}
	if upper != nil {
		s.HasUpper = true
		s.Upper = *upper
	}
	if comparator.requiresLower() && !s.HasLower {
		return Spec{}, &errs.InvalidSpec{Reason: "comparator " + string(comparator) + " requires a lower limit to be set"}
	}
	if comparator.requiresUpper() && !s.HasUpper {
		return Spec{}, &errs.InvalidSpec{Reason: "comparator " + string(comparator) + " requires an upper limit to be set"}
	}
	if s.HasLower && s.HasUpper && s.Upper < s.Lower {
		return Spec{}, &errs.InvalidSpec{Reason: "upper limit should be greater or equal to lower limit"}
	}
	return s, nil
}
