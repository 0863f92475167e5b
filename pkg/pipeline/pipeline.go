// Package pipeline provides the core generation pipeline for fleetmap.
//
// This package implements the complete rasterize → inflate → place pipeline
// that is used by the CLI and the API server. By centralizing this logic,
// both entry points share defaults, caching, and logging.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Rasterize: Build the obstacle grid from a warehouse layout
//  2. Inflate: Compute the cells a disk-shaped robot can occupy
//  3. Place: Generate clustered points of interest on the accessible cells
//
// Each stage can be run independently or as part of the complete pipeline.
// A pre-built obstacle grid (for example one baked from an image) skips the
// rasterize stage.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Layout = layoutJSON
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = poi.WriteFile(result.POI, "poi.json")
package pipeline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/config"
	"github.com/matzehuels/fleetmap/pkg/cspace"
	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/layout"
	"github.com/matzehuels/fleetmap/pkg/placement"
	"github.com/matzehuels/fleetmap/pkg/poi"
	"github.com/matzehuels/fleetmap/pkg/raster"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a generation run.
// This struct supports JSON serialization for API requests.
//
// RobotRadiusM, EdgeMarginCells, and Seed are meaningful at zero, so they are
// never defaulted. Start from DefaultOptions or FromConfig to get the standard
// values.
type Options struct {
	// Input: exactly one of Layout or Obstacles.
	Layout    json.RawMessage `json:"layout,omitempty"`
	Obstacles *grid.Grid      `json:"-"`

	// Physical parameters
	ResolutionM     float64 `json:"resolution_m"`
	RobotRadiusM    float64 `json:"robot_radius_m"`
	EdgeMarginCells int     `json:"edge_margin_cells"`

	// Placement parameters
	Seed       uint64                                  `json:"seed"`
	Order      []placement.Category                    `json:"order,omitempty"`
	Categories map[placement.Category]placement.Params `json:"categories,omitempty"`
	Budget     int                                     `json:"budget,omitempty"`

	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns options populated from the built-in configuration.
func DefaultOptions() Options {
	return FromConfig(config.Default())
}

// FromConfig copies the generation settings of cfg into options.
func FromConfig(cfg *config.Config) Options {
	cats := make(map[placement.Category]placement.Params, len(cfg.Categories))
	for c, p := range cfg.Categories {
		cats[c] = p
	}
	return Options{
		ResolutionM:     cfg.ResolutionM,
		RobotRadiusM:    cfg.RobotRadiusM,
		EdgeMarginCells: cfg.EdgeMarginCells,
		Seed:            cfg.Seed,
		Order:           append([]placement.Category(nil), cfg.Order...),
		Categories:      cats,
	}
}

// Result contains the outputs of a pipeline run. Grids are omitted from JSON;
// use the grid package to serialize them.
type Result struct {
	Layout     *layout.Layout `json:"-"`
	Obstacles  *grid.Grid     `json:"-"`
	Accessible *grid.Grid     `json:"-"`

	// LayoutHash is the content hash of the input layout, empty for grid input.
	LayoutHash string `json:"layout_hash,omitempty"`

	Raster     raster.Stats               `json:"raster"`
	Inflation  cspace.Report              `json:"inflation"`
	Placements []placement.CategoryResult `json:"placements"`
	POI        *poi.Document              `json:"poi"`

	// Warnings collects layout errors and warnings plus placement shortfalls.
	Warnings []string `json:"warnings,omitempty"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache_info"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RasterizeTime time.Duration `json:"rasterize_ns"`
	InflateTime   time.Duration `json:"inflate_ns"`
	PlaceTime     time.Duration `json:"place_ns"`
	POICount      int           `json:"poi_count"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RasterHit    bool `json:"raster_hit"`    // Whether the obstacle grid came from cache
	InflateHit   bool `json:"inflate_hit"`   // Whether the accessible grid came from cache
	PlacementHit bool `json:"placement_hit"` // Whether placement results came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Layout) == 0 && o.Obstacles == nil {
		return errors.New(errors.ErrCodeInvalidInput, "layout or obstacle grid is required")
	}
	if len(o.Layout) > 0 && o.Obstacles != nil {
		return errors.New(errors.ErrCodeInvalidInput, "layout and obstacle grid are mutually exclusive")
	}
	if err := o.ValidateForInflate(); err != nil {
		return err
	}
	if err := o.ValidateForPlace(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

func (o *Options) setDefaults() {
	if o.ResolutionM == 0 {
		o.ResolutionM = config.DefaultResolutionM
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRasterize checks the fields rasterization uses.
func (o *Options) ValidateForRasterize() error {
	o.setDefaults()
	if err := errors.ValidatePositive("resolution", o.ResolutionM); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolution_m")
	}
	return nil
}

// ValidateForInflate checks the fields inflation uses.
func (o *Options) ValidateForInflate() error {
	if err := o.ValidateForRasterize(); err != nil {
		return err
	}
	if err := o.CSpaceParams().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "inflation parameters")
	}
	return nil
}

// ValidateForPlace applies the default order and categories and checks them.
func (o *Options) ValidateForPlace() error {
	o.setDefaults()
	if len(o.Order) == 0 {
		o.Order = append([]placement.Category(nil), placement.DefaultOrder...)
	}
	if o.Categories == nil {
		o.Categories = placement.DefaultParams()
	}
	if err := errors.ValidateCount("budget", o.Budget); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "budget")
	}
	seen := make(map[placement.Category]bool, len(o.Order))
	for _, c := range o.Order {
		if !c.Valid() {
			return errors.New(errors.ErrCodeInvalidCategory, "invalid category %d", int(c))
		}
		if seen[c] {
			return errors.New(errors.ErrCodeInvalidCategory, "category %s listed twice", c)
		}
		seen[c] = true
		p, ok := o.Categories[c]
		if !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "no parameters for category %s", c)
		}
		if err := p.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s parameters", c)
		}
	}
	return nil
}

// CSpaceParams returns the inflation parameters.
func (o *Options) CSpaceParams() cspace.Params {
	return cspace.Params{
		RobotRadiusM:    o.RobotRadiusM,
		ResolutionM:     o.ResolutionM,
		EdgeMarginCells: o.EdgeMarginCells,
	}
}

// GenerationConfig returns the parameters recorded in the POI document. The
// spacing fields come from the first category in the order.
func (o *Options) GenerationConfig() poi.GenerationConfig {
	gen := poi.GenerationConfig{
		RobotRadiusM:    o.RobotRadiusM,
		EdgeMarginCells: o.EdgeMarginCells,
		Seed:            o.Seed,
		Order:           o.Order,
		Categories:      o.Categories,
	}
	if len(o.Order) > 0 {
		p := o.Categories[o.Order[0]]
		gen.ClusterSpacing = p.ClusterSpacing
		gen.InterClusterSpacing = p.InterClusterSpacing
	}
	return gen
}

// RasterKeyOpts returns cache key options for rasterization.
func (o *Options) RasterKeyOpts() cache.RasterKeyOpts {
	return cache.RasterKeyOpts{ResolutionM: o.ResolutionM}
}

// InflateKeyOpts returns cache key options for inflation.
func (o *Options) InflateKeyOpts() cache.InflateKeyOpts {
	return cache.InflateKeyOpts{
		RobotRadiusM:    o.RobotRadiusM,
		ResolutionM:     o.ResolutionM,
		EdgeMarginCells: o.EdgeMarginCells,
	}
}

// PlacementKeyOpts returns cache key options for placement.
func (o *Options) PlacementKeyOpts() cache.PlacementKeyOpts {
	order := make([]string, len(o.Order))
	params := make(map[string]any, len(o.Order))
	for i, c := range o.Order {
		order[i] = c.String()
		params[c.String()] = o.Categories[c]
	}
	return cache.PlacementKeyOpts{
		Seed:   o.Seed,
		Order:  order,
		Params: params,
		Budget: o.Budget,
	}
}
