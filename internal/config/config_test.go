package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MESHFORGE_WORKERS", "MESHFORGE_MIN_ANGLE", "MESHFORGE_MAX_TASKS",
		"MESHFORGE_LOG_LEVEL", "MESHFORGE_LOG_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "meshforge", cfg.Name)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Refine.Workers)
	assert.Equal(t, 30.0, cfg.Refine.MinAngle)
	assert.Zero(t, cfg.Refine.MaxTasks)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "meshforge.yaml")
	data := `
refine:
  workers: 2
  min_angle: 25
  max_tasks: 1000
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Refine.Workers)
	assert.Equal(t, 25.0, cfg.Refine.MinAngle)
	assert.Equal(t, int64(1000), cfg.Refine.MaxTasks)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "meshforge", cfg.Name, "unset fields keep their defaults")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refine: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MESHFORGE_WORKERS", "3")
	t.Setenv("MESHFORGE_MIN_ANGLE", "20.5")
	t.Setenv("MESHFORGE_MAX_TASKS", "500")
	t.Setenv("MESHFORGE_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Refine.Workers)
	assert.Equal(t, 20.5, cfg.Refine.MinAngle)
	assert.Equal(t, int64(500), cfg.Refine.MaxTasks)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("MESHFORGE_WORKERS", "not-a-number")
	t.Setenv("MESHFORGE_MIN_ANGLE", "-5")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Refine.Workers, cfg.Refine.Workers)
	assert.Equal(t, 30.0, cfg.Refine.MinAngle)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.Refine.Workers = 7
	cfg.Refine.MinAngle = 22

	path := filepath.Join(t.TempDir(), "sub", "meshforge.yaml")
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero workers means auto", func(c *Config) { c.Refine.Workers = 0 }, true},
		{"negative workers", func(c *Config) { c.Refine.Workers = -1 }, false},
		{"zero angle", func(c *Config) { c.Refine.MinAngle = 0 }, false},
		{"angle too large", func(c *Config) { c.Refine.MinAngle = 60 }, false},
		{"negative task budget", func(c *Config) { c.Refine.MaxTasks = -1 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
