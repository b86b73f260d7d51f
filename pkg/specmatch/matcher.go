// Package specmatch matches a handler's returned Value against a Step's
// ordered Spec list, producing the Measurement list and the step Verdict.
package specmatch

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aoyoqui/benderr/pkg/errs"
	"github.com/aoyoqui/benderr/pkg/types"
)

// Match evaluates v against specs and returns the resulting measurements
// and verdict, or a *errs.SpecMismatch if the shapes disagree. log may be
// nil; when non-nil it receives the info/debug lines a NoneSpec produces.
func Match(v types.Value, specs []types.Spec, log *zerolog.Logger) ([]types.Measurement, types.Verdict, error) {
	if len(specs) == 0 {
		return nil, types.VerdictPassed, nil
	}

	anyNone := false
	allNone := true
	for _, s := range specs {
		if s.Kind == types.SpecNone {
			anyNone = true
		} else {
			allNone = false
		}
	}
	if anyNone {
		if !allNone {
			return nil, "", &errs.SpecMismatch{Reason: "none-spec entries cannot be mixed with other spec types in the same step"}
		}
		return matchNone(v, specs, log)
	}

	switch v.Kind {
	case types.KindBool:
		return matchScalar(v, specs)
	case types.KindInt, types.KindFloat:
		return matchScalar(v, specs)
	case types.KindString:
		return matchScalar(v, specs)
	case types.KindSequence:
		return matchSequence(v.Seq, specs)
	default:
		return nil, "", &errs.ErrUnsupportedValue{Reason: fmt.Sprintf("handler returned unsupported kind %s", v.Kind)}
	}
}

func matchNone(v types.Value, specs []types.Spec, log *zerolog.Logger) ([]types.Measurement, types.Verdict, error) {
	var results []types.Measurement
	normalized := v.Normalize()
	for _, s := range specs {
		switch s.Action {
		case types.NoneLog:
			results = append(results, types.Measurement{Value: normalized, Passed: true, Spec: s})
			if log != nil {
				log.Info().Str("spec", s.Name).Interface("value", normalized).Msg("none-spec log")
			}
		case types.NoneIgnore:
			if log != nil {
				log.Debug().Str("spec", s.Name).Msg("none-spec ignore")
			}
		default:
			return nil, "", &errs.SpecMismatch{Reason: "unsupported none-spec action: " + string(s.Action)}
		}
	}
	return results, types.VerdictPassed, nil
}

// matchScalar handles a single scalar value (bool, numeric or string)
// against a single-element spec list.
func matchScalar(v types.Value, specs []types.Spec) ([]types.Measurement, types.Verdict, error) {
	if len(specs) != 1 {
		return nil, "", &errs.SpecMismatch{
			Reason: fmt.Sprintf("result is a single %s but spec count (%d) is not exactly one", v.Kind, len(specs)),
		}
	}
	m, err := matchOne(v, specs[0])
	if err != nil {
		return nil, "", err
	}
	verdict := types.VerdictFailed
	if m.Passed {
		verdict = types.VerdictPassed
	}
	return []types.Measurement{m}, verdict, nil
}

func matchSequence(values []types.Value, specs []types.Spec) ([]types.Measurement, types.Verdict, error) {
	if len(values) != len(specs) {
		return nil, "", &errs.SpecMismatch{
			Reason: fmt.Sprintf("result sequence length (%d) does not match specs count (%d)", len(values), len(specs)),
		}
	}
	results := make([]types.Measurement, 0, len(values))
	verdict := types.VerdictPassed
	for i, v := range values {
		m, err := matchOne(v, specs[i])
		if err != nil {
			return nil, "", err
		}
		results = append(results, m)
		if !m.Passed {
			verdict = types.VerdictFailed
		}
	}
	return results, verdict, nil
}

// matchOne matches a single scalar value against a single spec, dispatching
// on the value's runtime kind.
func matchOne(v types.Value, spec types.Spec) (types.Measurement, error) {
	switch v.Kind {
	case types.KindBool:
		if spec.Kind != types.SpecBoolean {
			return types.Measurement{}, &errs.SpecMismatch{
				Reason: fmt.Sprintf("boolean result encountered but spec %q does not define a boolean check", spec.Name),
			}
		}
		passed := spec.PassIfTrue == v.B
		return types.Measurement{Value: v.Normalize(), Passed: passed, Spec: spec}, nil
	case types.KindInt, types.KindFloat:
		if spec.Kind != types.SpecNumeric {
			return types.Measurement{}, &errs.SpecMismatch{
				Reason: fmt.Sprintf("numeric result encountered but spec %q does not define a numeric test", spec.Name),
			}
		}
		passed, err := numericPasses(v.Float64(), spec)
		if err != nil {
			return types.Measurement{}, err
		}
		return types.Measurement{Value: v.Normalize(), Passed: passed, Spec: spec}, nil
	case types.KindString:
		if spec.Kind != types.SpecString {
			return types.Measurement{}, &errs.SpecMismatch{
				Reason: fmt.Sprintf("string result encountered but spec %q does not define a string check", spec.Name),
			}
		}
		passed := stringPasses(v.S, spec)
		return types.Measurement{Value: v.Normalize(), Passed: passed, Spec: spec}, nil
	default:
		return types.Measurement{}, &errs.SpecMismatch{
			Reason: fmt.Sprintf("unsupported result kind %q in sequence; only bool, numeric and string supported", v.Kind),
		}
	}
}

func stringPasses(value string, spec types.Spec) bool {
	if spec.CaseSensitive {
		return value == spec.Expected
	}
	return strings.EqualFold(value, spec.Expected)
}

// numericPasses evaluates one of the fourteen numeric comparators. The
// LTGT family short-circuits on its first disjunct, the way Go's ||
// naturally does.
func numericPasses(value float64, spec types.Spec) (bool, error) {
	l, u := spec.Lower, spec.Upper
	switch spec.Comparator {
	case types.CompGT:
		return value > l, nil
	case types.CompGE:
		return value >= l, nil
	case types.CompLT:
		return value < u, nil
	case types.CompLE:
		return value <= u, nil
	case types.CompEQ:
		return value == l, nil
	case types.CompNEQ:
		return value != l, nil
	case types.CompGTLT:
		return l < value && value < u, nil
	case types.CompGELT:
		return l <= value && value < u, nil
	case types.CompGTLE:
		return l < value && value <= u, nil
	case types.CompGELE:
		return l <= value && value <= u, nil
	case types.CompLTGT:
		return l > value || value > u, nil
	case types.CompLTGE:
		return l > value || value >= u, nil
	case types.CompLEGT:
		return l >= value || value > u, nil
	case types.CompLEGE:
		return l >= value || value >= u, nil
	default:
		return false, &errs.SpecMismatch{Reason: fmt.Sprintf("unhandled comparator %q", spec.Comparator)}
	}
}
