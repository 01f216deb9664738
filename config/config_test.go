package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.WantsDelta())
	assert.Equal(t, 1000, cfg.GridPoints)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "plot.yaml", `
data_dir: /sessions/Monza/TimeTrial
laps: [3, 4]
channels: [Throttle, Brake]
pairing: emission
smooth_window: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/sessions/Monza/TimeTrial", cfg.DataDir)
	assert.Equal(t, []int{3, 4}, cfg.Laps)
	assert.Equal(t, []string{"Throttle", "Brake"}, cfg.Channels)
	assert.Equal(t, "emission", cfg.Pairing)
	assert.Equal(t, 5, cfg.SmoothWindow)
	assert.Equal(t, 1000, cfg.GridPoints)
	assert.False(t, cfg.WantsDelta())
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		file string
		body string
	}{
		{"extension", "plot.json", `{}`},
		{"unknown field", "plot.yaml", "colour: red\n"},
		{"grid too small", "plot.yaml", "grid_points: 1\n"},
		{"bad pairing", "plot.yaml", "pairing: nearest\n"},
		{"negative sectors", "plot.yaml", "sectors: -1\n"},
		{"negative lap", "plot.yaml", "laps: [-2]\n"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, c.file, c.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
