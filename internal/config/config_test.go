package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/polyswarm/microengine-go/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MICROENGINE_NAME", "nanoav")
	t.Setenv("MICROENGINE_CMD_EXE", "/usr/bin/nanoav-cli")
	t.Setenv("MICROENGINE_VERBOSE_METRICS", "true")
	t.Setenv("MICROENGINE_STATSD_ADDR", "127.0.0.1:8125")

	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "nanoav", cfg.Name)
	require.Equal(t, "/usr/bin/nanoav-cli", cfg.CmdExe)
	require.True(t, cfg.VerboseMetrics)
	require.Equal(t, "127.0.0.1:8125", cfg.StatsdAddr)

	// defaults
	require.Equal(t, "local", cfg.PolyWork)
	require.Equal(t, 15*time.Second, cfg.ScanTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "microengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: clamav\nscan_timeout: 30s\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "clamav", cfg.Name)
	require.Equal(t, 30*time.Second, cfg.ScanTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestOSType(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("non-windows flavors only")
	}

	wine := filepath.Join(t.TempDir(), "wine")

	cfg := config.Config{WinePath: wine}
	require.Equal(t, "linux", cfg.OSType())

	require.NoError(t, os.WriteFile(wine, []byte("#!/bin/sh\n"), 0o755))
	require.Equal(t, "wine", cfg.OSType())
}
