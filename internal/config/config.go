package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dpup/dateline/internal/lib/geo"
	"github.com/dpup/dateline/internal/lib/routing"
)

// Config represents the complete server configuration
type Config struct {
	Routes RoutesConfig `yaml:"routes"`
}

// RoutesConfig holds route computation and caching settings
type RoutesConfig struct {
	NumPoints        int           `yaml:"num_points" koanf:"num_points"`
	DisplayPrecision int           `yaml:"display_precision" koanf:"display_precision"`
	CacheTTL         time.Duration `yaml:"cache_ttl" koanf:"cache_ttl"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval" koanf:"cleanup_interval"`
	DefaultPreset    string        `yaml:"default_preset" koanf:"default_preset"`
	Presets          []PresetRoute `yaml:"presets" koanf:"presets"`
}

// PresetRoute represents a named route that can be loaded by ID
type PresetRoute struct {
	Name  string          `yaml:"name" koanf:"name" json:"name"`
	ID    string          `yaml:"id" koanf:"id" json:"id"`
	Start CoordinatesYAML `yaml:"start" koanf:"start" json:"start"`
	End   CoordinatesYAML `yaml:"end" koanf:"end" json:"end"`
}

// CoordinatesYAML represents lon/lat coordinates in YAML config
type CoordinatesYAML struct {
	Longitude float64 `yaml:"longitude" koanf:"longitude" json:"lng"`
	Latitude  float64 `yaml:"latitude" koanf:"latitude" json:"lat"`
}

// ToPoint converts CoordinatesYAML to a geo.Point
func (c CoordinatesYAML) ToPoint() geo.Point {
	return geo.Point{Longitude: c.Longitude, Latitude: c.Latitude}
}

// Endpoints converts the preset to a routing endpoint pair
func (p PresetRoute) Endpoints() routing.Endpoints {
	return routing.Endpoints{Start: p.Start.ToPoint(), End: p.End.ToPoint()}
}

// FindPreset looks up a preset route by ID
func (r *RoutesConfig) FindPreset(id string) (PresetRoute, bool) {
	for _, preset := range r.Presets {
		if preset.ID == id {
			return preset, true
		}
	}
	return PresetRoute{}, false
}

// Validate checks the settings the route service depends on
func (r *RoutesConfig) Validate() error {
	if r.NumPoints < 1 {
		return fmt.Errorf("routes.num_points must be >= 1, got %d", r.NumPoints)
	}
	if r.DisplayPrecision < 0 {
		return fmt.Errorf("routes.display_precision must be >= 0, got %d", r.DisplayPrecision)
	}
	if r.CacheTTL <= 0 {
		return errors.New("routes.cache_ttl must be positive")
	}
	if r.CleanupInterval <= 0 {
		return errors.New("routes.cleanup_interval must be positive")
	}

	seen := make(map[string]bool, len(r.Presets))
	for _, preset := range r.Presets {
		if preset.ID == "" {
			return fmt.Errorf("preset %q has no id", preset.Name)
		}
		if seen[preset.ID] {
			return fmt.Errorf("duplicate preset id %q", preset.ID)
		}
		seen[preset.ID] = true
	}

	if r.DefaultPreset != "" {
		if _, ok := r.FindPreset(r.DefaultPreset); !ok {
			return fmt.Errorf("default preset %q not found", r.DefaultPreset)
		}
	}
	return nil
}

// Load reads a YAML document over the defaults and validates the result
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Routes.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads configuration from a YAML file
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Routes: RoutesConfig{
			NumPoints:        geo.DefaultNumPoints,
			DisplayPrecision: geo.DisplayPrecision,
			CacheTTL:         10 * time.Minute,
			CleanupInterval:  time.Minute,
			DefaultPreset:    "tokyo-la",
			Presets: []PresetRoute{
				{
					Name: "Tokyo → LA (Crosses Dateline)",
					ID:   "tokyo-la",
					Start: CoordinatesYAML{
						Longitude: 139.6917,
						Latitude:  35.6895,
					},
					End: CoordinatesYAML{
						Longitude: -118.2437,
						Latitude:  34.0522,
					},
				},
				{
					Name: "NY → London (Atlantic)",
					ID:   "ny-london",
					Start: CoordinatesYAML{
						Longitude: -74.006,
						Latitude:  40.7128,
					},
					End: CoordinatesYAML{
						Longitude: -0.1276,
						Latitude:  51.5074,
					},
				},
			},
		},
	}
}
