package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ombu/internal/model"
	"github.com/roach88/ombu/internal/storage"
	"github.com/roach88/ombu/internal/storage/badger"
)

// TestScenarios runs every scenario in testdata/scenarios against its golden file.
//
// To regenerate golden files after an intentional change:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match its file")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestScenarios_Badger(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)

	open := func() (storage.Storage, error) {
		return badger.OpenInMemory(zerolog.Nop())
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario, WithStorage(open))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Format(t *testing.T) {
	ev, err := model.NewEvent(1, "call-1", model.ChangeAdmin{NewAdmin: accounts["bob"]})
	require.NoError(t, err)

	result := NewResult()
	result.Steps = append(result.Steps,
		StepTrace{Index: 0, Phase: "step", Op: "change_admin", Sender: accounts["admin"].Hex(), Outcome: OutcomeOK},
		StepTrace{Index: 1, Phase: "step", Op: "create_group", Sender: accounts["admin"].Hex(), Outcome: OutcomeOK,
			Result: map[string]interface{}{"group_id": "2"}},
	)
	result.Events = append(result.Events, ev)

	got, err := Snapshot("format", result)
	require.NoError(t, err)

	want := `{"events":[{"call_id":"call-1","payload":"{\"newAdmin\":\"0x2222222222222222222222222222222222222222\"}","seq":1,"type":"ChangeAdmin"}],` +
		`"scenario_name":"format","steps":[` +
		`{"index":0,"op":"change_admin","outcome":"ok","phase":"step","sender":"0x9999999999999999999999999999999999999999"},` +
		`{"index":1,"op":"create_group","outcome":"ok","phase":"step","result":{"group_id":"2"},"sender":"0x9999999999999999999999999999999999999999"}]}`
	assert.Equal(t, want, string(got))
	assert.NotContains(t, string(got), ev.ID)
}

func TestSnapshot_RejectsUnsupportedResult(t *testing.T) {
	result := NewResult()
	result.Steps = append(result.Steps, StepTrace{Op: "x", Outcome: OutcomeOK, Result: map[string]interface{}{"ratio": 0.5}})

	_, err := Snapshot("bad", result)
	assert.Error(t, err)
}

func TestGoldenFilesHaveNoTrailingNewline(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "golden", "*.golden"))
	require.NoError(t, err)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.False(t, strings.HasSuffix(string(data), "\n"), path)
	}
}
