package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// TTLs per pipeline stage; see [Stage.TTL].
const (
	RasterTTL    = 7 * 24 * time.Hour
	InflateTTL   = 7 * 24 * time.Hour
	PlacementTTL = 24 * time.Hour
)

// Keyer builds cache keys for each pipeline stage.
type Keyer interface {
	// RasterKey identifies the obstacle grid rasterized from a layout.
	RasterKey(layoutHash string, opts RasterKeyOpts) string
	// InflateKey identifies the accessible grid computed from an obstacle grid.
	InflateKey(gridHash string, opts InflateKeyOpts) string
	// PlacementKey identifies the placement results on an accessible grid.
	PlacementKey(gridHash string, opts PlacementKeyOpts) string
}

// RasterKeyOpts are the options that affect rasterization.
type RasterKeyOpts struct {
	ResolutionM float64 `json:"resolution_m"`
}

// InflateKeyOpts are the options that affect inflation.
type InflateKeyOpts struct {
	RobotRadiusM    float64 `json:"robot_radius_m"`
	ResolutionM     float64 `json:"resolution_m"`
	EdgeMarginCells int     `json:"edge_margin_cells"`
}

// PlacementKeyOpts are the options that affect placement. Params is keyed
// by category name.
type PlacementKeyOpts struct {
	Seed   uint64         `json:"seed"`
	Order  []string       `json:"order"`
	Params map[string]any `json:"params"`
	Budget int            `json:"budget,omitempty"`
}

// Hash returns the hex SHA-256 of data. Stage inputs are identified by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// stageKey hashes the JSON form of parts under the stage name.
func stageKey(stage Stage, parts ...any) string {
	data, _ := json.Marshal(parts)
	return string(stage) + ":" + Hash(data)
}

// DefaultKeyer produces "stage:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) RasterKey(layoutHash string, opts RasterKeyOpts) string {
	return stageKey(StageRaster, layoutHash, opts)
}

func (DefaultKeyer) InflateKey(gridHash string, opts InflateKeyOpts) string {
	return stageKey(StageInflate, gridHash, opts)
}

func (DefaultKeyer) PlacementKey(gridHash string, opts PlacementKeyOpts) string {
	return stageKey(StagePlacement, gridHash, opts)
}
