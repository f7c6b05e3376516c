package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_AttachesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "inventory-service").
		WithComponent("batch-service").
		WithRequestID("req-1").
		WithUserID("E001")

	log.Info().Str("upc", "123456789012").Msg("batch received")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "inventory-service", entry["service"])
	assert.Equal(t, "batch-service", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "E001", entry["user_id"])
	assert.Equal(t, "123456789012", entry["upc"])
	assert.Equal(t, "batch received", entry["message"])
}

func TestNop_Discards(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() { log.Error().Msg("ignored") })
}

func TestNew_LevelOverride(t *testing.T) {
	t.Setenv("ZLAGODA_LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.WarnLevel, New("staff-service", "production").GetLevel())

	t.Setenv("ZLAGODA_LOG_LEVEL", "")
	assert.Equal(t, zerolog.InfoLevel, New("staff-service", "production").GetLevel())
	assert.Equal(t, zerolog.DebugLevel, New("staff-service", "development").GetLevel())
}
