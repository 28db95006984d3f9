package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "database", cfg.Store.Backend)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, []string{"127.0.0.1:9092"}, cfg.Messaging.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
	assert.InDelta(t, 0.7, cfg.Review.CostRatio, 1e-9)
	assert.False(t, cfg.Review.StrictLedger)
	assert.Equal(t, time.Local, cfg.Review.Location)
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("STORE_BACKEND", "HTTP")
	t.Setenv("STORE_BASE_URL", "http://orders.internal")
	t.Setenv("REVIEW_TERMINAL_STATES", "CANCELLED,REJECTED")
	t.Setenv("REVIEW_TIMEZONE", "UTC")
	t.Setenv("OBS_PROMETHEUS_PATH", "prom")
	t.Setenv("LEDGER_STRICT", "true")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, "http", cfg.Store.Backend)
	assert.Equal(t, []string{"CANCELLED", "REJECTED"}, cfg.Review.TerminalStates)
	assert.Equal(t, "UTC", cfg.Review.Location.String())
	assert.Equal(t, "/prom", cfg.Observability.PrometheusPath)
	assert.True(t, cfg.Review.StrictLedger)
}

func TestNewRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"store backend": {"STORE_BACKEND": "sftp"},
		"cost ratio":    {"REVIEW_COST_RATIO": "1.5"},
		"timezone":      {"REVIEW_TIMEZONE": "Mars/Olympus"},
		"cache driver":  {"CACHE_DRIVER": "memcached"},
		"http port":     {"HTTP_PORT": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}
