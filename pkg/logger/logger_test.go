package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestInfoCarriesServiceAndContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "pricing-test", Level: zerolog.DebugLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithVariantID(ctx, "var-9")
	logg.Info(ctx, "selection done")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "pricing-test", entry["service"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "var-9", entry["variant_id"])
	assert.Equal(t, "selection done", entry["message"])
}

func TestErrorIncludesErrAndStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "pricing-test", Output: &buf})

	logg.Error(context.Background(), "query failed", errors.New("boom"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["stack"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "pricing-test", Level: zerolog.WarnLevel, Output: &buf})

	logg.Debug(context.Background(), "noise")
	assert.Zero(t, buf.Len())

	logg.Warn(context.Background(), "slow query")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "slow query", entry["message"])
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("not-a-level"))
}
