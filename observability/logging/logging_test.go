package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "roosterctl", "test", Options{Level: slog.LevelDebug})
	logger.Debug("rooster: init", "owner", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "rooster: init", line["message"])
	require.Equal(t, "DEBUG", line["severity"])
	require.Equal(t, "roosterctl", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "abc", line["owner"])
	require.Contains(t, line, "timestamp")
	require.NotContains(t, line, "msg")
}

func TestNewOmitsEmptyEnvAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "gateway", " ", Options{Level: slog.LevelWarn})
	logger.Info("dropped")
	require.Zero(t, buf.Len())

	logger.Warn("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.NotContains(t, line, "env")
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("keypair", "/home/me/id.json").Value.String())
	require.Equal(t, "So11111111111111111111111111111111111111112", MaskField("Owner", "So11111111111111111111111111111111111111112").Value.String())
	require.Equal(t, "", MaskField("keypair", "").Value.String())
	require.Contains(t, RedactionAllowlist(), "custody")
}

func TestMaskBytes(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "svc", "", Options{}).Info("withdraw", MaskBytes("auth_data", []byte{1, 2, 3}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, map[string]any{"len": float64(3)}, line["auth_data"])
}
