package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	root.SilenceErrors = true
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("Storage:\n  Driver: file\n  BaseDir: uploads\n"), 0o644))

	out, err := execute(t, "check-config", "--config", cfg)
	require.NoError(t, err)
	require.Contains(t, out, "config OK")

	_, err = execute(t, "check-config", "--config", cfg, "--strict")
	require.ErrorContains(t, err, "database.datasource")
}

func TestCompletion(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	require.Contains(t, out, "faultctl")

	_, err = execute(t, "completion", "tcsh")
	require.Error(t, err)
}
