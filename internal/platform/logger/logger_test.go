package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "JSON").Info("decoded", "record_id", "a-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "decoded", line["msg"])
	assert.Equal(t, "a-1", line["record_id"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "", "").Info("decoded", "record_id", "a-1")
	assert.Contains(t, buf.String(), "record_id=a-1")
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "text")
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	New(&buf, " DEBUG ", "text").Debug("detail")
	assert.Contains(t, buf.String(), "detail")
}
