package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoyoqui/benderr/pkg/errs"
)

func writePlan(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlan_ResolvesRelativePathsAgainstPlanDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cache"), 0o755))
	path := writePlan(t, dir, `{
		"packages": {"find_links": "cache", "requirements": ["widget==1.0"]},
		"tests": [{"name": "A", "config": "a.json"}]
	}`)

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), plan.Packages.FindLinks)
	assert.Equal(t, filepath.Join(dir, "a.json"), plan.Tests[0].Config)
}

func TestLoadPlan_DefaultsEnvRootUnderHome(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, `{"tests": [{"name": "A", "config": "a.json"}]}`)

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".agent", "envs"), plan.Packages.EnvRoot)
}

func TestLoadPlan_EmptyTestsRejected(t *testing.T) {
	dir := t.TempDir()
	path := writePlan(t, dir, `{"tests": []}`)

	_, err := LoadPlan(path)
	var empty *errs.EmptyPlan
	require.ErrorAs(t, err, &empty)
}
