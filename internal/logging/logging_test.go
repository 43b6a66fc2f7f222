package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn", FormatJSON)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("op", "init").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "init", line["op"])
	assert.Equal(t, "shown", line["message"])
	assert.Contains(t, line, "time")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "DEBUG", FormatText)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())

	log.Debug().Str("component", "forum").Msg("call started")
	out := buf.String()
	assert.Contains(t, out, "call started")
	assert.Contains(t, out, "component=forum")
	assert.NotContains(t, out, "{")
}

func TestNew_EmptyLevelIsInfo(t *testing.T) {
	log, err := New(&bytes.Buffer{}, "", "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", FormatJSON)
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
