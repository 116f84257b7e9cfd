package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/dateline/internal/lib/geo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Routes.Validate())

	assert.Equal(t, 25, cfg.Routes.NumPoints)
	assert.Equal(t, 4, cfg.Routes.DisplayPrecision)

	preset, ok := cfg.Routes.FindPreset("tokyo-la")
	require.True(t, ok)
	assert.Equal(t, geo.Point{Longitude: 139.6917, Latitude: 35.6895}, preset.Endpoints().Start)
	assert.Equal(t, geo.Point{Longitude: -118.2437, Latitude: 34.0522}, preset.Endpoints().End)

	_, ok = cfg.Routes.FindPreset("nowhere")
	assert.False(t, ok)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	doc := `
routes:
  num_points: 40
  cache_ttl: 30s
  default_preset: sydney-santiago
  presets:
    - id: sydney-santiago
      name: Sydney to Santiago
      start: {longitude: 151.2093, latitude: -33.8688}
      end: {longitude: -70.6693, latitude: -33.4489}
`
	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Routes.NumPoints)
	assert.Equal(t, 30*time.Second, cfg.Routes.CacheTTL)
	assert.Equal(t, 4, cfg.Routes.DisplayPrecision, "unset keys keep their defaults")
	assert.Equal(t, time.Minute, cfg.Routes.CleanupInterval)
	require.Len(t, cfg.Routes.Presets, 1)
	assert.Equal(t, -70.6693, cfg.Routes.Presets[0].End.Longitude)
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"zero points":      "routes: {num_points: 0}",
		"negative digits":  "routes: {display_precision: -1}",
		"missing default":  "routes: {default_preset: nope}",
		"duplicate preset": "routes: {default_preset: '', presets: [{id: a}, {id: a}]}",
		"malformed":        "routes: [",
	}

	for name, doc := range tests {
		_, err := Load(strings.NewReader(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes:\n  display_precision: 2\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Routes.DisplayPrecision)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
