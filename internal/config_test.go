package internal

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("USPS_USER_ID", "TESTUSER")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, uint16(3000), cfg.Port)
	assert.Equal(t, "https://secure.shippingapis.com/ShippingAPI.dll", cfg.USPS.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.USPS.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "usps.address.verified", cfg.Events.Subject)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Empty(t, cfg.Events.NATSURL)
	assert.Equal(t, 90*24*time.Hour, cfg.History.Retention)
	assert.Equal(t, time.Hour, cfg.History.SweepInterval)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("USPS_USER_ID", "TESTUSER")
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("USPS_TIMEOUT", "3s")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("HISTORY_RETENTION", "0")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10,")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, uint16(8080), cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.USPS.Timeout)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, "nats://localhost:4222", cfg.Events.NATSURL)
	assert.Zero(t, cfg.History.Retention, "zero keeps history forever")
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.TrustedProxies)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing user id",
			env:     map[string]string{"USPS_USER_ID": ""},
			wantErr: "USPS_USER_ID",
		},
		{
			name:    "unknown environment",
			env:     map[string]string{"USPS_USER_ID": "X", "ENV": "staging"},
			wantErr: "ENV",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"USPS_USER_ID": "X", "LOG_LEVEL": "verbose"},
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad base url",
			env:     map[string]string{"USPS_USER_ID": "X", "USPS_BASE_URL": "not a url"},
			wantErr: "USPS_BASE_URL",
		},
		{
			name:    "negative retention",
			env:     map[string]string{"USPS_USER_ID": "X", "HISTORY_RETENTION": "-1h"},
			wantErr: "HISTORY_RETENTION",
		},
		{
			name:    "bad trusted proxy",
			env:     map[string]string{"USPS_USER_ID": "X", "TRUSTED_PROXIES": "10.0.0.0/8,proxy.internal"},
			wantErr: "TRUSTED_PROXIES",
		},
		{
			name:    "sample rate out of range",
			env:     map[string]string{"USPS_USER_ID": "X", "SENTRY_SAMPLE_RATE": "2"},
			wantErr: "SENTRY_SAMPLE_RATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "warn")

	logger.Info("hidden")
	logger.Warn("shown", "zip", "62704")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "usps", line["service"])
	assert.Equal(t, "62704", line["zip"])
}
