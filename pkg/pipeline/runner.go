package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/cspace"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/layout"
	"github.com/matzehuels/fleetmap/pkg/observability"
	"github.com/matzehuels/fleetmap/pkg/placement"
	"github.com/matzehuels/fleetmap/pkg/poi"
	"github.com/matzehuels/fleetmap/pkg/raster"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, caching is disabled. The cache is wrapped with
// cache.Observe so hits and misses reach the registered cache hooks.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	c = cache.Observe(c)
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete rasterize → inflate → place pipeline with caching.
// The context is checked between stages.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	result, err := r.execute(ctx, opts)
	observability.Pipeline().OnRunComplete(ctx, time.Since(start), err)
	return result, err
}

func (r *Runner) execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()

	result := &Result{}

	// Stage 1: Rasterize
	rasterStart := time.Now()
	var obstacles *grid.Grid
	if opts.Obstacles != nil {
		obstacles = opts.Obstacles.Clone()
	} else {
		l, err := ParseLayout(opts)
		if err != nil {
			hooks.OnRasterizeComplete(ctx, 0, 0, time.Since(rasterStart), err)
			return nil, fmt.Errorf("rasterize: %w", err)
		}
		result.Layout = l
		result.LayoutHash = HashLayout(l)
		result.Warnings = append(result.Warnings, l.Errors...)
		result.Warnings = append(result.Warnings, l.Warnings...)

		g, hit, err := r.RasterizeWithCacheInfo(ctx, l, opts)
		hooks.OnRasterizeComplete(ctx, len(l.Shapes()), obstacleCount(g), time.Since(rasterStart), err)
		if err != nil {
			return nil, fmt.Errorf("rasterize: %w", err)
		}
		obstacles = g
		result.CacheInfo.RasterHit = hit
	}
	result.Obstacles = obstacles
	result.Raster = raster.Summarize(obstacles)
	result.Stats.RasterizeTime = time.Since(rasterStart)

	r.Logger.Info("rasterized obstacles",
		"width", result.Raster.Width,
		"height", result.Raster.Height,
		"obstacles", result.Raster.Obstacles,
		"duration", result.Stats.RasterizeTime)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}

	// Stage 2: Inflate
	inflateStart := time.Now()
	accessible, report, inflateHit, err := r.InflateWithCacheInfo(ctx, obstacles, opts)
	hooks.OnInflateComplete(ctx, report.RadiusCells, report.Accessible, time.Since(inflateStart), err)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	result.Accessible = accessible
	result.Inflation = report
	result.Stats.InflateTime = time.Since(inflateStart)
	result.CacheInfo.InflateHit = inflateHit

	r.Logger.Info("inflated configuration space",
		"radius_cells", report.RadiusCells,
		"accessible", report.Accessible,
		"duration", result.Stats.InflateTime)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}

	// Stage 3: Place
	placeStart := time.Now()
	placements, placeHit, err := r.PlaceWithCacheInfo(ctx, accessible, opts)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	result.Stats.PlaceTime = time.Since(placeStart)
	for _, p := range placements {
		hooks.OnPlaceComplete(ctx, p.Category.String(), p.RequestedNodes, p.AchievedNodes, result.Stats.PlaceTime)
	}
	result.Placements = placements
	result.CacheInfo.PlacementHit = placeHit
	result.POI = poi.New(placements, opts.GenerationConfig(), opts.ResolutionM)
	result.Stats.POICount = len(result.POI.POI)

	for _, msg := range Shortfalls(placements) {
		r.Logger.Warn("placement shortfall", "detail", msg)
		result.Warnings = append(result.Warnings, msg)
	}

	r.Logger.Info("placed points of interest",
		"poi", result.Stats.POICount,
		"duration", result.Stats.PlaceTime)

	return result, nil
}

func obstacleCount(g *grid.Grid) int {
	if g == nil {
		return 0
	}
	return g.Size() - g.Count()
}

// RasterizeWithCacheInfo builds the obstacle grid with caching and returns cache hit info.
func (r *Runner) RasterizeWithCacheInfo(ctx context.Context, l *layout.Layout, opts Options) (*grid.Grid, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRasterize(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.RasterKey(HashLayout(l), opts.RasterKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := grid.Unmarshal(data); err == nil {
				return g, true, nil // Cache hit
			}
		}
	}

	g, err := Rasterize(l, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, grid.Marshal(g), cache.StageRaster.TTL()); err != nil {
		opts.Logger.Debug("cache write failed", "stage", cache.StageRaster, "err", err)
	}
	return g, false, nil // Cache miss
}

// RasterizeLayout is a convenience wrapper that calls RasterizeWithCacheInfo and discards the cache hit info.
func (r *Runner) RasterizeLayout(ctx context.Context, l *layout.Layout, opts Options) (*grid.Grid, error) {
	g, _, err := r.RasterizeWithCacheInfo(ctx, l, opts)
	return g, err
}

// inflateEntry is the cached form of an inflation result.
type inflateEntry struct {
	Grid   string        `json:"grid"`
	Report cspace.Report `json:"report"`
}

// InflateWithCacheInfo computes the accessible grid with caching and returns cache hit info.
func (r *Runner) InflateWithCacheInfo(ctx context.Context, obstacles *grid.Grid, opts Options) (*grid.Grid, cspace.Report, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForInflate(); err != nil {
		return nil, cspace.Report{}, false, err
	}

	cacheKey := r.Keyer.InflateKey(cache.Hash(grid.Marshal(obstacles)), opts.InflateKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var entry inflateEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				if g, err := grid.Unmarshal([]byte(entry.Grid)); err == nil {
					return g, entry.Report, true, nil
				}
			}
			// If deserialization fails, fall through to recompute
		}
	}

	accessible, report, err := Inflate(obstacles, opts)
	if err != nil {
		return nil, cspace.Report{}, false, err
	}

	if data, err := json.Marshal(inflateEntry{Grid: string(grid.Marshal(accessible)), Report: report}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.StageInflate.TTL()); err != nil {
			opts.Logger.Debug("cache write failed", "stage", cache.StageInflate, "err", err)
		}
	}
	return accessible, report, false, nil
}

// PlaceWithCacheInfo generates POI placements with caching and returns cache hit info.
func (r *Runner) PlaceWithCacheInfo(ctx context.Context, accessible *grid.Grid, opts Options) ([]placement.CategoryResult, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForPlace(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.PlacementKey(cache.Hash(grid.Marshal(accessible)), opts.PlacementKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached []placement.CategoryResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil
			}
		}
	}

	results, err := Place(accessible, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(results); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.StagePlacement.TTL()); err != nil {
			opts.Logger.Debug("cache write failed", "stage", cache.StagePlacement, "err", err)
		}
	}
	return results, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
