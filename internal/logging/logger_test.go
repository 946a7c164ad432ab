package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProdHandlerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "prod", slog.LevelInfo))

	logger.Info("reading stored", "id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reading stored", entry["msg"])
	assert.Equal(t, float64(7), entry["id"])
}

func TestDevHandlerHasNoColorOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "dev", slog.LevelWarn))

	logger.Info("hidden")
	logger.Warn("shown", "cycle", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "cycle=3")
	assert.NotContains(t, out, "\x1b[")
}
