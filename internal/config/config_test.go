package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetgov/kernel/internal/config"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	require.NoError(t, config.Validate(cfg))
}

func TestValidate_RejectsNil(t *testing.T) {
	t.Parallel()
	err := config.Validate(nil)
	require.ErrorIs(t, err, config.ErrConfigNil)
}

func TestValidate_RejectsBadIntegrityMode(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.Integrity.Mode = "thorough"
	require.Error(t, config.Validate(cfg))
}

func TestValidate_RejectsBadEnforcementMode(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.AgentRegistry.EnforcementMode = "yolo"
	require.Error(t, config.Validate(cfg))
}

func TestValidate_RejectsNonPositiveLockTimeout(t *testing.T) {
	t.Parallel()
	cfg := config.DefaultConfig()
	cfg.Lock.Timeout = 0
	require.Error(t, config.Validate(cfg))
}

func TestProjectConfigPath_IsDotfileAtRoot(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ".packetgov.yaml", config.ProjectConfigPath())
}

func TestGlobalConfigPath_JoinsHomeAndKernelHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.GlobalConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".packetgov", "config.yaml"), got)
}

func TestLoad_FallsBackToDefaultsWithNoFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(dir))
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.Integrity.Mode)
	assert.Equal(t, "advisory", cfg.AgentRegistry.EnforcementMode)
}

func TestWriteDefault_WritesYAMLAndRefusesOverwrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, ".packetgov.yaml")

	require.NoError(t, config.WriteDefault(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "integrity:")
	assert.Contains(t, string(data), "mode: fast")

	err = config.WriteDefault(path)
	require.Error(t, err)
}

func TestLoadWithOverrides_AppliesNonZeroFields(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(dir))
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.LoadWithOverrides(&config.Config{
		Integrity: config.IntegrityConfig{Mode: "full"},
	})
	require.NoError(t, err)
	assert.Equal(t, "full", cfg.Integrity.Mode)
}
