package types

import "fmt"

// Kind discriminates the variants of Value. A handler returns a Value so
// the matcher can dispatch on it without runtime type assertions (see
// SPEC_FULL.md §3 and Design Note (a)).
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged union a step handler returns. Exactly one of the
// payload fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	B    bool
	N    float64 // backs both Int and Float; Kind distinguishes formatting/typing intent
	S    string
	Seq  []Value
}

// None is the value returned by a handler that carries no measurement
// (matched against a step whose specs are all NoneSpec, or against an
// empty spec list).
func None() Value { return Value{Kind: KindNone} }

// Bool wraps a boolean handler result.
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

// Int wraps an integer handler result.
func Int(n int64) Value { return Value{Kind: KindInt, N: float64(n)} }

// Float wraps a floating point handler result.
func Float(f float64) Value { return Value{Kind: KindFloat, N: f} }

// String wraps a string handler result.
func String(s string) Value { return Value{Kind: KindString, S: s} }

// Sequence wraps an ordered list of scalar handler results, matched
// positionally against an equally sized spec list.
func Sequence(values ...Value) Value { return Value{Kind: KindSequence, Seq: values} }

// IsNumeric reports whether the value is an Int or a Float. Booleans are
// deliberately excluded, mirroring the source's numbers.Number check which
// treats bool as a distinct branch tested first.
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// Float64 returns the numeric payload regardless of whether the value is an
// Int or a Float. Only valid when IsNumeric() is true.
func (v Value) Float64() float64 { return v.N }

// Normalize returns a representation of the value suitable for logging and
// for a NoneSpec(action=log) Measurement, mirroring
// Sequence._normalize_measurement_value: scalars pass through, sequences
// are stringified.
func (v Value) Normalize() any {
	switch v.Kind {
	case KindNone:
		return nil
	case KindBool:
		return v.B
	case KindInt:
		return int64(v.N)
	case KindFloat:
		return v.N
	case KindString:
		return v.S
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "<none>"
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	case KindInt:
		return fmt.Sprintf("%d", int64(v.N))
	case KindFloat:
		return fmt.Sprintf("%g", v.N)
	case KindString:
		return v.S
	case KindSequence:
		return fmt.Sprintf("%v", v.Seq)
	default:
		return "<invalid>"
	}
}
