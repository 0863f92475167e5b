// Package store archives completed generation runs.
//
// A run is written once, after the pipeline has finished, so readers only
// ever see whole runs. Three backends implement [Store]:
//   - [MemoryStore]: in-process storage for development and tests
//   - [FileStore]: one JSON file per run, for single-host deployments
//   - [MongoStore]: MongoDB, for deployments with several API instances
//
// # Usage
//
//	st, err := store.NewMongoStore(ctx, "mongodb://localhost:27017", "fleetmap")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	run := store.NewRun(opts, result)
//	if err := st.Save(ctx, run); err != nil {
//	    return err
//	}
package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
)

// Grid layers kept with each run.
const (
	LayerObstacles  = "obstacles"
	LayerAccessible = "accessible"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Run is an archived pipeline run.
type Run struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Options   pipeline.Options `json:"options"`
	Result    *pipeline.Result `json:"result"`

	// Grids in the text format, keyed by layer.
	ObstacleGrid   string `json:"obstacle_grid,omitempty"`
	AccessibleGrid string `json:"accessible_grid,omitempty"`
}

// Summary is the listing view of a run.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Width     int       `json:"width" bson:"width"`
	Height    int       `json:"height" bson:"height"`
	POICount  int       `json:"poi_count" bson:"poi_count"`
	Warnings  int       `json:"warnings" bson:"warnings"`
}

// NewRun wraps a finished result with a fresh id.
func NewRun(opts pipeline.Options, res *pipeline.Result) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Options:   opts,
		Result:    res,
	}
	// Runtime-only fields are not archived.
	run.Options.Obstacles = nil
	run.Options.Logger = nil
	if res != nil {
		if res.Obstacles != nil {
			run.ObstacleGrid = string(grid.Marshal(res.Obstacles))
		}
		if res.Accessible != nil {
			run.AccessibleGrid = string(grid.Marshal(res.Accessible))
		}
	}
	return run
}

// Summary returns the listing view of r.
func (r *Run) Summary() Summary {
	s := Summary{ID: r.ID, CreatedAt: r.CreatedAt}
	if r.Result != nil {
		s.Width = r.Result.Raster.Width
		s.Height = r.Result.Raster.Height
		s.POICount = r.Result.Stats.POICount
		s.Warnings = len(r.Result.Warnings)
	}
	return s
}

// Grid decodes one of the archived grid layers.
func (r *Run) Grid(layer string) (*grid.Grid, error) {
	var text string
	switch layer {
	case LayerObstacles:
		text = r.ObstacleGrid
	case LayerAccessible, "":
		text = r.AccessibleGrid
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown grid layer %q (must be obstacles or accessible)", layer)
	}
	if text == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s has no %s grid", r.ID, layer)
	}
	return grid.Unmarshal([]byte(text))
}

// Store is the interface for run archive backends.
type Store interface {
	// Save stores a completed run, replacing any run with the same id.
	Save(ctx context.Context, run *Run) error

	// Get retrieves a run by id. A missing run is RUN_NOT_FOUND.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
}

func sortNewestFirst(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
