package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/cspace"
	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/layout"
	"github.com/matzehuels/fleetmap/pkg/placement"
)

// ParseLayout decodes the layout document carried in opts.
func ParseLayout(opts Options) (*layout.Layout, error) {
	if len(opts.Layout) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layout is required")
	}
	return layout.Parse(opts.Layout)
}

// HashLayout returns the content hash used to key rasterized grids.
func HashLayout(l *layout.Layout) string {
	data, err := json.Marshal(l)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// Rasterize builds the obstacle grid for l without caching.
func Rasterize(l *layout.Layout, opts Options) (*grid.Grid, error) {
	if err := opts.ValidateForRasterize(); err != nil {
		return nil, err
	}
	w, h := l.GridSize(opts.ResolutionM)
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "layout yields an empty %dx%d grid", w, h)
	}
	g := l.Rasterize(opts.ResolutionM)
	opts.Logger.Debug("rasterized layout",
		"width", w,
		"height", h,
		"shapes", len(l.Shapes()))
	return g, nil
}

// Inflate computes the accessible grid without caching.
func Inflate(obstacles *grid.Grid, opts Options) (*grid.Grid, cspace.Report, error) {
	if err := opts.ValidateForInflate(); err != nil {
		return nil, cspace.Report{}, err
	}
	accessible, report := cspace.Inflate(obstacles, opts.CSpaceParams())
	opts.Logger.Debug("inflated grid",
		"radius_cells", report.RadiusCells,
		"closed_by_inflation", report.ClosedByInflation,
		"closed_by_margin", report.ClosedByMargin)
	return accessible, report, nil
}

// Place runs every category in order on a fresh state without caching.
func Place(accessible *grid.Grid, opts Options) ([]placement.CategoryResult, error) {
	if err := opts.ValidateForPlace(); err != nil {
		return nil, err
	}
	engine := placement.NewEngine(placement.NewRand(opts.Seed))
	engine.Budget = opts.Budget
	results, err := engine.Generate(accessible, opts.Order, opts.Categories, placement.NewState())
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		opts.Logger.Debug("placed category",
			"category", r.Category,
			"clusters", r.AchievedClusters,
			"nodes", r.AchievedNodes)
	}
	return results, nil
}

// Shortfalls describes every category that placed fewer clusters or nodes
// than requested.
func Shortfalls(results []placement.CategoryResult) []string {
	var out []string
	for _, r := range results {
		if !r.Shortfall() {
			continue
		}
		msg := fmt.Sprintf("%s: placed %d/%d clusters and %d/%d nodes",
			r.Category, r.AchievedClusters, r.RequestedClusters, r.AchievedNodes, r.RequestedNodes)
		if r.EmptyClustersDropped > 0 {
			msg += fmt.Sprintf(", dropped %d empty clusters", r.EmptyClustersDropped)
		}
		if r.Exhausted {
			msg += ", search budget exhausted"
		}
		out = append(out, msg)
	}
	return out
}
