package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.GpuOptions(), 5)
	_, ok := cfg.SkyboxFaces()
	assert.False(t, ok)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[window]
title = "arena"
width = 1920

[graphics]
present_mode = "uncapped"
backend = "vulkan"
clear_color = [0.0, 0.5, 1.0, 1.0]

[engine]
profiling = true

[assets]
shader_dir = "assets"
watch_shaders = true
skybox = ["px.png", "nx.png", "py.png", "ny.png", "pz.png", "nz.png"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.Window.Title)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, "uncapped", cfg.Graphics.PresentMode)
	assert.Equal(t, [4]float64{0, 0.5, 1, 1}, cfg.Graphics.ClearColor)
	assert.Equal(t, 60.0, cfg.Engine.TickRate)
	assert.True(t, cfg.Engine.Profiling)
	assert.True(t, cfg.Assets.WatchShaders)

	faces, ok := cfg.SkyboxFaces()
	require.True(t, ok)
	assert.Equal(t, "nz.png", faces[5])
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
window:
  height: 600
graphics:
  power_preference: low-power
engine:
  tick_rate: 120
  frame_limit: 144
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "low-power", cfg.Graphics.PowerPreference)
	assert.Equal(t, 120.0, cfg.Engine.TickRate)
	assert.Equal(t, 144.0, cfg.Engine.FrameLimit)
}

func TestLoadErrors(t *testing.T) {
	_, err := Parse([]byte(`{}`), ".json")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Parse([]byte("[window\nwidth = "), "toml")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Window.Width = 0
	cfg.Graphics.PresentMode = "triple"
	cfg.Graphics.Backend = "glide"
	cfg.Graphics.ClearColor[3] = 2
	cfg.Engine.TickRate = 0
	cfg.Assets.Skybox = []string{"only-one.png"}
	cfg.Assets.WatchShaders = true

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	for _, want := range []string{"window size", "present mode", "backend", "clear color", "tick rate", "skybox", "watch_shaders"} {
		assert.Contains(t, err.Error(), want)
	}

	_, err = Parse([]byte("[engine]\ntick_rate = -1\n"), "toml")
	assert.ErrorIs(t, err, ErrInvalid)
}
