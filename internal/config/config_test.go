package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTimeouts(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout())
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout())
	assert.Equal(t, 30*time.Second, cfg.Engine.Interval())
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dukapulse.yaml")
	content := `
server:
  port: 9000
  read_timeout_seconds: 5
engine:
  interval_seconds: 15
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout())
	assert.Equal(t, 15*time.Second, cfg.Engine.Interval())
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "unset fields keep defaults")
	assert.Equal(t, 20, cfg.Engine.RetentionCap)
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("DUKAPULSE_TEST_DSN", "postgres://shop:secret@db:5432/duka")

	path := filepath.Join(t.TempDir(), "dukapulse.yaml")
	content := "database:\n  dsn: ${DUKAPULSE_TEST_DSN}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://shop:secret@db:5432/duka", cfg.Database.DSN)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("does/not/exist.yaml")

	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	cfg, err := Load(path)

	assert.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestIntervalClampsFloor(t *testing.T) {
	e := EngineConfig{IntervalSeconds: 1}
	assert.Equal(t, 30*time.Second, e.Interval(), "sub-5s intervals fall back to the default cadence")

	e.IntervalSeconds = 5
	assert.Equal(t, 5*time.Second, e.Interval())
}
