// Package poi reads and writes the POI configuration document consumed by
// the fleet backend.
package poi

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/geom"
	"github.com/matzehuels/fleetmap/pkg/placement"
)

// Version is the document format version.
const Version = "3.0"

// Description is written to every generated document.
const Description = "Auto-generated Points of Interest for the warehouse"

// Document is the on-disk POI configuration.
type Document struct {
	Description      string                        `json:"description"`
	Version          string                        `json:"version"`
	CoordinateSystem string                        `json:"coordinate_system"`
	ResolutionM      float64                       `json:"resolution_m_per_cell"`
	Generation       GenerationConfig              `json:"generation_config"`
	Types            map[placement.Category]string `json:"poi_types"`
	Summary          []Summary                     `json:"summary"`
	POI              []Entry                       `json:"poi"`
}

// GenerationConfig records the parameters a document was generated with.
type GenerationConfig struct {
	RobotRadiusM        float64                                `json:"robot_radius_m"`
	EdgeMarginCells     int                                    `json:"edge_margin_cells"`
	ClusterSpacing      int                                    `json:"cluster_spacing_cells"`
	InterClusterSpacing int                                    `json:"inter_cluster_spacing_cells"`
	Seed                uint64                                 `json:"seed"`
	Order               []placement.Category                   `json:"order"`
	Categories          map[placement.Category]placement.Params `json:"categories,omitempty"`
}

// Summary is the requested versus achieved count for one category.
type Summary struct {
	Type              placement.Category `json:"type"`
	RequestedClusters int                `json:"requested_clusters"`
	AchievedClusters  int                `json:"achieved_clusters"`
	RequestedNodes    int                `json:"requested_nodes"`
	AchievedNodes     int                `json:"achieved_nodes"`
}

// Entry is one POI.
type Entry struct {
	ID       string             `json:"id"`
	Type     placement.Category `json:"type"`
	X        int                `json:"x"`
	Y        int                `json:"y"`
	Active   bool               `json:"active"`
	Metadata Metadata           `json:"metadata"`
}

// Metadata carries the cluster a POI belongs to.
type Metadata struct {
	ClusterCenter string `json:"cluster_center"`
	Generated     bool   `json:"generated"`
}

var typeDescriptions = map[placement.Category]string{
	placement.Charging: "Battery charging stations (IDs: C0, C1, C2...)",
	placement.Pickup:   "Locations where robots pick up packages (IDs: PU0, PU1, PU2...)",
	placement.Dropoff:  "Locations where robots drop off packages (IDs: DO0, DO1, DO2...)",
}

// New builds a document from placement results.
func New(results []placement.CategoryResult, gen GenerationConfig, resolutionM float64) *Document {
	doc := &Document{
		Description:      Description,
		Version:          Version,
		CoordinateSystem: fmt.Sprintf("cells (%gm/cell)", resolutionM),
		ResolutionM:      resolutionM,
		Generation:       gen,
		Types:            typeDescriptions,
		Summary:          make([]Summary, 0, len(results)),
		POI:              []Entry{},
	}
	for _, r := range results {
		doc.Summary = append(doc.Summary, Summary{
			Type:              r.Category,
			RequestedClusters: r.RequestedClusters,
			AchievedClusters:  r.AchievedClusters,
			RequestedNodes:    r.RequestedNodes,
			AchievedNodes:     r.AchievedNodes,
		})
	}
	for _, p := range placement.AssignIDs(results) {
		doc.POI = append(doc.POI, Entry{
			ID:     p.ID,
			Type:   p.Category,
			X:      p.Position.X,
			Y:      p.Position.Y,
			Active: p.Active,
			Metadata: Metadata{
				ClusterCenter: p.ClusterCenter.String(),
				Generated:     true,
			},
		})
	}
	return doc
}

// Count returns the number of POIs of category c.
func (d *Document) Count(c placement.Category) int {
	n := 0
	for _, e := range d.POI {
		if e.Type == c {
			n++
		}
	}
	return n
}

// Validate checks that ids are unique within a category and centers parse.
func (d *Document) Validate() error {
	seen := map[string]bool{}
	for i, e := range d.POI {
		if e.ID == "" {
			return errors.New(errors.ErrCodeInvalidPOI, "poi %d has no id", i)
		}
		key := e.Type.String() + "/" + e.ID
		if seen[key] {
			return errors.New(errors.ErrCodeInvalidPOI, "duplicate %s id %q", e.Type, e.ID)
		}
		seen[key] = true
		if e.Metadata.ClusterCenter != "" {
			if _, err := ParseCell(e.Metadata.ClusterCenter); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPOI, err, "poi %s", e.ID)
			}
		}
	}
	return nil
}

// ParseCell parses the "(x, y)" form written by geom.Cell.String.
func ParseCell(s string) (geom.Cell, error) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(s), "(")
	if ok {
		inner, ok = strings.CutSuffix(inner, ")")
	}
	parts := strings.Split(inner, ",")
	if !ok || len(parts) != 2 {
		return geom.Cell{}, fmt.Errorf("invalid cell %q", s)
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return geom.Cell{}, fmt.Errorf("invalid cell %q", s)
	}
	return geom.Cell{X: x, Y: y}, nil
}

// Write encodes d as indented JSON.
func Write(d *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes and validates a document.
func Read(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPOI, err, "malformed POI document")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// WriteFile writes d to path.
func WriteFile(d *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(d, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads the document at path. A missing file yields FILE_NOT_FOUND;
// an unparsable one yields INVALID_POI.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "POI file %s not found", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
