package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/cache"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/lib/icon"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/logging"
	"github.com/wwwouaiebe/TravelNotes-sub003/internal/services"
)

// EnvPrefix prefixes every environment override. Nested keys are separated
// by a double underscore, e.g. ROUTEICON__OVERPASS__URL.
const EnvPrefix = "ROUTEICON__"

// Config represents the complete configuration
type Config struct {
	Icon     icon.Config         `koanf:"icon"`
	Geocoder icon.PlaceDistances `koanf:"geocoder"`
	Overpass overpass.Config     `koanf:"overpass"`
	Cache    cache.Config        `koanf:"cache"`
	Logging  logging.Config      `koanf:"logging"`
	Warmer   services.Config     `koanf:"warmer"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Icon:     icon.DefaultConfig(),
		Geocoder: icon.DefaultPlaceDistances(),
		Overpass: overpass.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
		Logging:  logging.DefaultConfig(),
		Warmer:   services.DefaultConfig(),
	}
}

// Load layers defaults, the YAML file at path when path is not empty, and
// ROUTEICON__ environment variables
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IconConfig returns the icon settings completed with the geocoder distances
func (c *Config) IconConfig() icon.Config {
	cfg := c.Icon
	cfg.Places = c.Geocoder
	return cfg
}

// Validate checks the settings the engine cannot run without
func (c *Config) Validate() error {
	var errs []error
	if c.Icon.SvgViewboxDim <= 0 {
		errs = append(errs, errors.New("icon.svg_viewbox_dim must be positive"))
	}
	if c.Icon.SvgZoom < 0 || c.Icon.SvgZoom > 30 {
		errs = append(errs, fmt.Errorf("icon.svg_zoom %d out of range", c.Icon.SvgZoom))
	}
	if c.Icon.AngleDistance < 0 {
		errs = append(errs, errors.New("icon.angle_distance must not be negative"))
	}
	if c.Overpass.URL == "" {
		errs = append(errs, errors.New("overpass.url is required"))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("cache.size must be positive"))
	}
	return errors.Join(errs...)
}
