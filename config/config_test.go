package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.APIConf.Host)
	assert.Equal(t, DefaultPort, cfg.APIConf.Port)
	assert.Equal(t, DefaultLedgerPath, cfg.Ledger.Path)
	assert.Equal(t, DefaultNetwork, cfg.Ledger.Network)
	assert.True(t, cfg.Ledger.Serialized())
	assert.Equal(t, DefaultIdempotentTTL, cfg.Idempotency.TTL)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	content := []byte(`APIConf:
  Port: "9090"
Ledger:
  Path: /tmp/custom.json
  SerializeIssuance: false
Idempotency:
  TTL: 5m
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.APIConf.Host)
	assert.Equal(t, "9090", cfg.APIConf.Port)
	assert.Equal(t, "/tmp/custom.json", cfg.Ledger.Path)
	assert.Equal(t, DefaultNetwork, cfg.Ledger.Network)
	assert.False(t, cfg.Ledger.Serialized())
	assert.Equal(t, 5*time.Minute, cfg.Idempotency.TTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte("APIConf: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
