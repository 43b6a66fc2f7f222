package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const tinyScenario = `name: tiny
description: "Init and post once"
setup:
  - op: init
steps:
  - op: create_main_post
    args: { group: "1", content: "hi" }
assertions:
  - type: event_count
    count: 1
`

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeScenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scenarios")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	dir := writeScenarioDir(t, nil)

	out, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	out, err = runTestCommand(t, "json", dir)
	require.NoError(t, err)
	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ forum_walkthrough")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandHarnessScenariosBadger(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: "json", Backend: "badger"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{harnessScenarios})
	require.NoError(t, cmd.Execute(), buf.String())

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, 0, response.Data.Failed)
	assert.Equal(t, response.Data.Total, response.Data.Passed)
	assert.Positive(t, response.Data.Total)
}

func TestTestCommandFilter(t *testing.T) {
	out, err := runTestCommand(t, "text", harnessScenarios, "--filter", "admin_*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"tiny.yaml": tinyScenario})
	golden := filepath.Join(filepath.Dir(dir), "golden", "tiny.golden")

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ tiny (golden updated)")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name":"tiny"`)

	out, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, out)

	require.NoError(t, os.WriteFile(golden, []byte(`{}`), 0o644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"wrong.yaml": `name: wrong
description: "Expects a rejection that does not happen"
setup:
  - op: init
steps:
  - op: create_group
    args: { name: g }
    expect:
      error: NOT_ALLOWED
`,
		"broken.yaml": "name: broken\n",
	})

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NotContains(t, out, "Usage:", "stdout carries only the JSON document")

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	assert.Equal(t, 2, response.Data.Failed)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeTestFailed, response.Error.Code)
}

func TestTestCommandInvalidBackend(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text", Backend: "etcd"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{writeScenarioDir(t, nil)})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFindScenarioFiles(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"vote_cast.yaml":   "",
		"vote_delete.yml":  "",
		"post_create.yaml": "",
		"notes.txt":        "",
	})
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "group.yaml"), nil, 0o644))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 4)

	files, err = findScenarioFiles(dir, "vote_*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestTestHelpText(t *testing.T) {
	out, err := runTestCommand(t, "text", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "--golden")
	assert.Contains(t, out, "scenarios-dir")
}
