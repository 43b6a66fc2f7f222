package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ombu/internal/engine"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]uint64{"post_id": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]interface{}{"post_id": float64(3)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("NOT_ALLOWED", "sender is not the admin", map[string]string{"sender": "0x1"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_ALLOWED", resp.Error.Code)
	assert.Equal(t, "sender is not the admin", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_Result(t *testing.T) {
	buf := &bytes.Buffer{}
	text := &OutputFormatter{Format: "text", Writer: buf}
	require.NoError(t, text.Result(map[string]int{"n": 1}, "one post"))
	assert.Equal(t, "one post\n", buf.String())

	buf.Reset()
	js := &OutputFormatter{Format: "json", Writer: buf}
	require.NoError(t, js.Result(map[string]int{"n": 1}, "one post"))
	assert.JSONEq(t, `{"status":"ok","data":{"n":1}}`, buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("ALREADY_VOTED", "voter has already voted", map[string]string{"post": "1"}))
	assert.Equal(t, "Error [ALREADY_VOTED]: voter has already voted\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error("ALREADY_VOTED", "voter has already voted", map[string]string{"post": "1"}))
	assert.Contains(t, buf.String(), "Details: map[post:1]")
}

func TestOutputFormatter_CallErrorRejection(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	rejection := fmt.Errorf("vote_on_post: %w", &engine.ForumError{
		Code:    engine.CodeHasNotVoted,
		Message: "voter has not voted",
		Details: map[string]string{"post": "4"},
	})
	err := formatter.CallError(rejection)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, engine.ErrHasNotVoted)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "HAS_NOT_VOTED", resp.Error.Code)
	assert.Equal(t, "voter has not voted", resp.Error.Message)
}

func TestOutputFormatter_CallErrorWithoutMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.CallError(&engine.ForumError{Code: engine.CodeNotAllowed})
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [NOT_ALLOWED]: NOT_ALLOWED\n", buf.String())
}

func TestOutputFormatter_CallErrorInternal(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.CallError(errors.New("disk full"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E_CALL_FAILED]: disk full")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			formatter.VerboseLog("opening %s", "ombu.db")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Equal(t, "opening ombu.db\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("no such file")
	err := WrapExitError(ExitCommandError, "failed to open database", cause)
	assert.Equal(t, "failed to open database: no such file", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}
