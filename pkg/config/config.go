// Package config loads generation settings from a TOML file.
//
// Every setting has a default; a file only needs the keys it changes.
// Unknown keys are rejected so typos do not silently fall back to defaults.
//
//	resolution = 0.1
//	robot_radius = 0.3
//	edge_margin = 10
//	seed = 42
//	order = ["charging", "pickup", "dropoff"]
//
//	[categories.pickup]
//	max_clusters = 6
//
//	[service]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/placement"
)

// Defaults shared by the CLI, the service, and the pipeline.
const (
	DefaultResolutionM  = 0.1
	DefaultRobotRadiusM = 0.3
	DefaultEdgeMargin   = 10
	DefaultSeed         = uint64(42)
	DefaultAddr         = ":8080"
)

// Config is the resolved configuration.
type Config struct {
	ResolutionM     float64
	RobotRadiusM    float64
	EdgeMarginCells int
	Seed            uint64
	Order           []placement.Category
	Categories      map[placement.Category]placement.Params
	Service         Service
}

// Service holds settings for `fleetmap serve`.
type Service struct {
	Addr      string `toml:"addr"`
	RedisAddr string `toml:"redis_addr"`
	MongoURI  string `toml:"mongo_uri"`
	MongoDB   string `toml:"mongo_db"`
}

type file struct {
	Resolution  *float64                      `toml:"resolution"`
	RobotRadius *float64                      `toml:"robot_radius"`
	EdgeMargin  *int                          `toml:"edge_margin"`
	Seed        *int64                        `toml:"seed"`
	Order       []string                      `toml:"order"`
	Categories  map[string]placement.Override `toml:"categories"`
	Service     Service                       `toml:"service"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ResolutionM:     DefaultResolutionM,
		RobotRadiusM:    DefaultRobotRadiusM,
		EdgeMarginCells: DefaultEdgeMargin,
		Seed:            DefaultSeed,
		Order:           append([]placement.Category(nil), placement.DefaultOrder...),
		Categories:      placement.DefaultParams(),
		Service:         Service{Addr: DefaultAddr, MongoDB: "fleetmap"},
	}
}

// Load reads path and applies it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text and applies it over the defaults.
func Parse(data string) (*Config, error) {
	var f file
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid TOML")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}

	cfg := Default()
	if err := cfg.apply(f); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(f file) error {
	if f.Resolution != nil {
		c.ResolutionM = *f.Resolution
	}
	if f.RobotRadius != nil {
		c.RobotRadiusM = *f.RobotRadius
	}
	if f.EdgeMargin != nil {
		c.EdgeMarginCells = *f.EdgeMargin
	}
	if f.Seed != nil {
		if *f.Seed < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "seed must not be negative, got %d", *f.Seed)
		}
		c.Seed = uint64(*f.Seed)
	}
	if f.Order != nil {
		order, err := placement.ParseOrder(f.Order)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "order")
		}
		c.Order = order
	}
	for name, cf := range f.Categories {
		cat, err := placement.ParseCategory(name)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "categories")
		}
		c.Categories[cat] = cf.Apply(c.Categories[cat])
	}
	if f.Service.Addr != "" {
		c.Service.Addr = f.Service.Addr
	}
	if f.Service.RedisAddr != "" {
		c.Service.RedisAddr = f.Service.RedisAddr
	}
	if f.Service.MongoURI != "" {
		c.Service.MongoURI = f.Service.MongoURI
	}
	if f.Service.MongoDB != "" {
		c.Service.MongoDB = f.Service.MongoDB
	}
	return nil
}

// Validate checks physical and placement parameters.
func (c *Config) Validate() error {
	if err := errors.ValidatePositive("resolution", c.ResolutionM); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolution")
	}
	if err := errors.ValidateNonNegative("robot radius", c.RobotRadiusM); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "robot_radius")
	}
	if err := errors.ValidateCount("edge margin", c.EdgeMarginCells); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "edge_margin")
	}
	for _, cat := range c.Order {
		p, ok := c.Categories[cat]
		if !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "no parameters for category %s", cat)
		}
		if err := p.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "categories.%s", strings.ToLower(cat.String()))
		}
	}
	return nil
}
