package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plan_glob: plans/*.yaml
out_dir: out
out_priority_level: 50
polling_time: 250ms
player:
  host: localhost
  port: 8080
  password: secret
  binary_path:
    linux: /usr/bin/vlc
    darwin: /Applications/VLC.app/Contents/MacOS/VLC
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "plans/*.yaml", cfg.PlanGlob)
	assert.Equal(t, 50, cfg.OutPriorityLevel)
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.PollingTime))
	assert.Equal(t, "localhost", cfg.Player.Host)
	assert.Equal(t, 8080, cfg.Player.Port)
}

func TestLoadOutPriorityLevelDefaultsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plan_glob: plans/*.yaml
out_dir: out
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultOutPriorityLevel, cfg.OutPriorityLevel)
}

func TestLoadOutPriorityLevelHonorsExplicitZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plan_glob: plans/*.yaml
out_dir: out
out_priority_level: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.OutPriorityLevel)
}

func TestLoadAdminAndLocationFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plan_glob: plans/*.yaml
out_dir: out
location_id: Australia/Adelaide
rebuild_spec: "@every 1h"
admin:
  addr: :8090
  jwt_secret: topsecret
player:
  host: localhost
  port: 8080
  password: secret
  binary_path:
    linux: /usr/bin/vlc
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Australia/Adelaide", cfg.LocationID)
	assert.Equal(t, "@every 1h", cfg.RebuildSpec)
	assert.Equal(t, ":8090", cfg.Admin.Addr)
	assert.Equal(t, "topsecret", cfg.Admin.JWTSecret)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPlayerConfigBinaryMissingGOOS(t *testing.T) {
	pc := PlayerConfig{BinaryPath: map[string]string{"plan9": "/bin/vlc"}}
	_, err := pc.Binary()
	assert.Error(t, err)
}

func TestPathFromEnvDefault(t *testing.T) {
	t.Setenv(EnvVar, "")
	assert.Equal(t, DefaultPath, PathFromEnv())
}
