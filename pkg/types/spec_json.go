package types

import (
	"encoding/json"
	"fmt"
)

// specWire is the on-disk / on-wire shape of a Spec: a flat object with a
// "type" discriminator and has_lower/has_upper presence bits, since 0 is a
// legal bound. On decode, a bound is present if its value or its presence
// bit is given; a set bit with no value reads as 0.
type specWire struct {
	Name          string     `json:"name"`
	Type          SpecKind   `json:"type"`
	Action        NoneAction `json:"action,omitempty"`
	PassIfTrue    bool       `json:"pass_if_true,omitempty"`
	Comparator    Comparator `json:"comparator,omitempty"`
	HasLower      bool       `json:"has_lower,omitempty"`
	Lower         *float64   `json:"lower,omitempty"`
	HasUpper      bool       `json:"has_upper,omitempty"`
	Upper         *float64   `json:"upper,omitempty"`
	Units         string     `json:"units,omitempty"`
	Expected      string     `json:"expected,omitempty"`
	CaseSensitive *bool      `json:"case_sensitive,omitempty"`
}

// MarshalJSON renders Spec back into its wire shape, including presence
// bits for numeric bounds.
func (s Spec) MarshalJSON() ([]byte, error) {
	w := specWire{Name: s.Name, Type: s.Kind}
	switch s.Kind {
	case SpecNone:
		w.Action = s.Action
	case SpecBoolean:
		w.PassIfTrue = s.PassIfTrue
	case SpecNumeric:
		w.Comparator = s.Comparator
		w.Units = s.Units
		if s.HasLower {
			lower := s.Lower
			w.HasLower = true
			w.Lower = &lower
		}
		if s.HasUpper {
			upper := s.Upper
			w.HasUpper = true
			w.Upper = &upper
		}
	case SpecString:
		w.Expected = s.Expected
		cs := s.CaseSensitive
		w.CaseSensitive = &cs
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses a Spec from its wire shape, validating numeric
// bounds the same way NewNumericSpec does.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var w specWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case SpecNone:
		action := w.Action
		if action == "" {
			action = NoneLog
		}
		spec, err := NewNoneSpec(w.Name, action)
		if err != nil {
			return err
		}
		*s = spec
	case SpecBoolean:
		*s = NewBooleanSpec(w.Name, w.PassIfTrue)
	case SpecNumeric:
		lower, upper := w.Lower, w.Upper
		if lower == nil && w.HasLower {
			lower = new(float64)
		}
		if upper == nil && w.HasUpper {
			upper = new(float64)
		}
		spec, err := NewNumericSpec(w.Name, w.Comparator, lower, upper, w.Units)
		if err != nil {
			return err
		}
		*s = spec
	case SpecString:
		caseSensitive := true
		if w.CaseSensitive != nil {
			caseSensitive = *w.CaseSensitive
		}
		*s = NewStringSpec(w.Name, w.Expected, caseSensitive)
	default:
		return fmt.Errorf("unsupported spec type %q", w.Type)
	}
	return nil
}
