package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "textremind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
store:
  driver: redis
  addr: redis:6379
  code_ttl: 10m
twilio:
  account_sid: AC123
`)
	cfg, err := load(path, noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout, "unset keys keep their default")
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Addr)
	assert.Equal(t, "textremind:", cfg.Store.Prefix)
	assert.Equal(t, 10*time.Minute, cfg.Store.CodeTTL)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "store:\n  db: 1\n")
	cfg, err := load(path, envOf(map[string]string{
		"TEXTREMIND_STORE_DB":         "3",
		"TEXTREMIND_DISPATCH_ENABLED": "false",
		"TEXTREMIND_CLIENT_TIMEOUT":   "2s",
		"TWILIO_AUTH_TOKEN":           "secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Store.DB)
	assert.False(t, cfg.Dispatch.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "secret", cfg.Twilio.AuthToken)
}

func TestLoad_Errors(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), noEnv)
	assert.Error(t, err)

	_, err = load(writeFile(t, "store:\n  driver: [oops"), noEnv)
	assert.Error(t, err)

	_, err = load(writeFile(t, "store:\n  drvier: redis\n"), noEnv)
	assert.ErrorContains(t, err, "drvier")

	_, err = load(writeFile(t, "store:\n  driver: postgres\n"), noEnv)
	assert.ErrorContains(t, err, "store.driver")

	_, err = load("", envOf(map[string]string{"TEXTREMIND_CLIENT_POLICY": "sms"}))
	assert.ErrorContains(t, err, "client.policy")
}
