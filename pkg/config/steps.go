// Package config loads the two external JSON documents this module
// consumes: a sequence's step configuration, and an agent's plan.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aoyoqui/benderr/pkg/types"
)

// SequenceConfig is the parsed form of a sequence config file, the Go port of br_sdk/parse_steps.py's StepsDefinition.
type SequenceConfig struct {
	Steps          []types.Step
	StopAtStepFail bool // default true, read from the "config" object
}

type sequenceConfigWire struct {
	Config struct {
		StopAtStepFail *bool `json:"stop_at_step_fail"`
	} `json:"config"`
	Steps []types.Step `json:"steps"`
}

// LoadSteps reads a sequence config file, accepting either of two shapes:
// a bare JSON array of steps, or an object with "config" and "steps" keys.
func LoadSteps(path string) (*SequenceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading step config %s: %w", path, err)
	}
	return ParseSteps(data)
}

// ParseSteps parses the raw bytes of a sequence config document.
func ParseSteps(data []byte) (*SequenceConfig, error) {
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid step configuration JSON: %w", err)
	}

	cfg := &SequenceConfig{StopAtStepFail: true}
	switch probe.(type) {
	case []any:
		var steps []types.Step
		if err := json.Unmarshal(data, &steps); err != nil {
			return nil, fmt.Errorf("invalid step list: %w", err)
		}
		cfg.Steps = steps
	case map[string]any:
		var wire sequenceConfigWire
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("invalid step configuration object: %w", err)
		}
		cfg.Steps = wire.Steps
		if wire.Config.StopAtStepFail != nil {
			cfg.StopAtStepFail = *wire.Config.StopAtStepFail
		}
	default:
		return nil, fmt.Errorf("step configuration must be a JSON array or object with 'steps'")
	}
	return cfg, nil
}
