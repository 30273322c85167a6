package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/textremind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		_ = rootCmd.PersistentFlags().Set("config", "")
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "textremind version "+textremind.Version+"\n", out)
}

func TestDispatchCommand_EmptyQueue(t *testing.T) {
	out, err := execute(t, "dispatch")
	require.NoError(t, err)
	assert.Contains(t, out, "sent 0, failed 0, left 0")
}

func TestCommands_RejectBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textremind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: etcd\n"), 0o644))

	_, err := execute(t, "dispatch", "--config", path)
	assert.ErrorContains(t, err, "etcd")
}
