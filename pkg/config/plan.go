package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aoyoqui/benderr/pkg/errs"
)

// PackagesConfig is the agent's package-provisioning policy.
type PackagesConfig struct {
	EnvRoot        string   `json:"env_root,omitempty"`
	FindLinks      string   `json:"find_links,omitempty"`
	AllowOnline    bool     `json:"allow_online,omitempty"`
	ExtraIndexURLs []string `json:"extra_index_urls,omitempty"`
	Requirements   []string `json:"requirements,omitempty"`
}

// PlanTest is one entry of a plan file's "tests" array.
type PlanTest struct {
	Name   string `json:"name"`
	Config string `json:"config"`
}

// Plan is the parsed form of an agent plan file.
type Plan struct {
	Packages PackagesConfig `json:"packages"`
	Tests    []PlanTest     `json:"tests"`
}

// LoadPlan reads and validates a plan file, resolving every relative path
// (env_root, find_links, each test's config) against the plan file's own
// directory, and rejecting an empty "tests" array with EmptyPlan.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("invalid plan JSON: %w", err)
	}
	if len(plan.Tests) == 0 {
		return nil, &errs.EmptyPlan{}
	}

	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	if plan.Packages.EnvRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving default env_root: %w", err)
		}
		plan.Packages.EnvRoot = filepath.Join(home, ".agent", "envs")
	} else {
		plan.Packages.EnvRoot = resolve(plan.Packages.EnvRoot)
	}
	if plan.Packages.FindLinks != "" {
		plan.Packages.FindLinks = resolve(plan.Packages.FindLinks)
	}
	for i := range plan.Tests {
		plan.Tests[i].Config = resolve(plan.Tests[i].Config)
	}
	return &plan, nil
}
