// Package eventbus implements a local, multi-subscriber publish/subscribe
// transport: a length-prefixed JSON stream over a host-local socket,
// carrying StepStarted, StepEnded and Log events from one producer to many
// subscribers, possibly in other processes.
//
// grpc/protobuf were considered for this framing but would require
// protoc-generated stubs this module cannot produce (see DESIGN.md). The
// framing below is instead a small hand-rolled control protocol over a
// single listening socket.
package eventbus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aoyoqui/benderr/pkg/types"
)

// EventKind discriminates the three event kinds carried on the bus.
type EventKind string

const (
	EventStepStarted EventKind = "step_started"
	EventStepEnded   EventKind = "step_ended"
	EventLog         EventKind = "log"
)

// Event is the tagged union carried on the wire. ID is a random UUID,
// unique per published event; it carries no ordering, so it does not
// reveal events missed across a reconnect, and the bus offers no replay.
type Event struct {
	ID   string    `json:"id"`
	Kind EventKind `json:"kind"`

	Step       *wireStep       `json:"step,omitempty"`
	StepResult *wireStepResult `json:"step_result,omitempty"`
	LogMessage string          `json:"log_message,omitempty"`
	LogLevel   string          `json:"log_level,omitempty"`
}

// wireStep/wireStepResult mirror types.Step/types.StepResult but encode
// timestamps as unsigned milliseconds since epoch, 0 meaning unset.
type wireStep struct {
	ID    uint64      `json:"id"`
	Name  string      `json:"name"`
	Specs []types.Spec `json:"specs"`
}

type wireMeasurement struct {
	Value  string     `json:"value"`
	Passed bool       `json:"passed"`
	Spec   types.Spec `json:"spec"`
}

type wireStepResult struct {
	ID        uint64            `json:"id"`
	Name      string            `json:"name"`
	StartMS   uint64            `json:"start_ms"`
	EndMS     uint64            `json:"end_ms"`
	Verdict   types.Verdict     `json:"verdict"`
	Results   []wireMeasurement `json:"results"`
}

func timeToMillis(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	ms := t.UnixMilli()
	if ms <= 0 {
		return 0
	}
	return uint64(ms)
}

func millisToTime(ms uint64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func toWireStep(s types.Step) *wireStep {
	return &wireStep{ID: s.ID, Name: s.Name, Specs: s.Specs}
}

func fromWireStep(w *wireStep) types.Step {
	if w == nil {
		return types.Step{}
	}
	return types.Step{ID: w.ID, Name: w.Name, Specs: w.Specs}
}

func toWireStepResult(r types.StepResult) *wireStepResult {
	results := make([]wireMeasurement, 0, len(r.Results))
	for _, m := range r.Results {
		results = append(results, wireMeasurement{
			Value:  fmt.Sprintf("%v", m.Value),
			Passed: m.Passed,
			Spec:   m.Spec,
		})
	}
	return &wireStepResult{
		ID:      r.ID,
		Name:    r.Name,
		StartMS: timeToMillis(r.StartTime),
		EndMS:   timeToMillis(r.EndTime),
		Verdict: r.Verdict,
		Results: results,
	}
}

// valueFromWire reconstructs a Measurement's typed value from its
// stringified wire form, using the accompanying spec's kind the way the
// original's _from_proto_measurement reconstructs a value from spec.type
// rather than trusting the wire's own shape.
func valueFromWire(raw string, kind types.SpecKind) any {
	switch kind {
	case types.SpecBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case types.SpecNumeric:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case types.SpecString, types.SpecNone:
		return raw
	}
	return raw
}

func fromWireStepResult(w *wireStepResult) types.StepResult {
	if w == nil {
		return types.StepResult{}
	}
	results := make([]types.Measurement, 0, len(w.Results))
	for _, m := range w.Results {
		results = append(results, types.Measurement{
			Value:  valueFromWire(m.Value, m.Spec.Kind),
			Passed: m.Passed,
			Spec:   m.Spec,
		})
	}
	return types.StepResult{
		ID:        w.ID,
		Name:      w.Name,
		StartTime: millisToTime(w.StartMS),
		EndTime:   millisToTime(w.EndMS),
		Verdict:   w.Verdict,
		Results:   results,
	}
}

// newID returns a fresh event identifier.
func newID() string { return uuid.NewString() }

func encodeEvent(e Event) ([]byte, error) { return json.Marshal(e) }

func decodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
