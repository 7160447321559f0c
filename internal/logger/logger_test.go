package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutputCarriesKeyvals(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: DebugLevel, Output: &buf, JSON: true})

	l.With("component", "indexer").Info("document indexed", "docId", "abc123", "sentences", 12)

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "document indexed", entry["msg"])
	assert.Equal(t, "indexer", entry["component"])
	assert.Equal(t, "abc123", entry["docId"])
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: WarnLevel, Output: &buf})

	l.Debug("hidden")
	l.Info("hidden too")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContext(t *testing.T) {
	nop := NewNop()
	ctx := ContextWithLogger(context.Background(), nop)
	assert.Equal(t, nop, FromContext(ctx))

	// Falls back to the process default
	assert.NotNil(t, FromContext(context.Background()))
}
