package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = secret ,broken, =nokey,tenant=rooster")
	require.Equal(t, map[string]string{"api-key": "secret", "tenant": "rooster"}, got)
	require.Empty(t, ParseHeaders(""))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x=1")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg := ConfigFromEnv("rooster-gateway", "dev")
	require.Equal(t, "collector:4318", cfg.Endpoint)
	require.True(t, cfg.Insecure)
	require.True(t, cfg.Traces)
	require.True(t, cfg.Metrics)
	require.Equal(t, map[string]string{"x": "1"}, cfg.Headers)
}

func TestConfigFromEnvDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg := ConfigFromEnv("roosterctl", "")
	require.False(t, cfg.Traces)
	require.False(t, cfg.Metrics)
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)
}

func TestInitWithExportersDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "roosterctl"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
