package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netutil.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
		assert.Equal(t, "", cfg.MonitorStrategy())
		assert.Equal(t, 5*time.Second, cfg.PollInterval())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
strategy: broadcast
poll_interval_seconds: 2
listen_addr: 127.0.0.1:9100
reload: true
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "broadcast", cfg.MonitorStrategy())
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, "127.0.0.1:9100", cfg.ListenAddr)
	assert.True(t, cfg.Reload)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output, "unset fields keep defaults")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown strategy", body: "strategy: carrier-pigeon\n"},
		{name: "negative interval", body: "poll_interval_seconds: -1\n"},
		{name: "file output without path", body: "log:\n  output: file\n"},
		{name: "not yaml", body: "strategy: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
