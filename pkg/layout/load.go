package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/paulmach/orb"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/raster"
)

type document struct {
	FloorSize       json.RawMessage   `json:"floorSize"`
	Objects         json.RawMessage   `json:"objects"`
	ProhibitedZones []json.RawMessage `json:"prohibitedZones"`
	PickingZones    []json.RawMessage `json:"pickingZones"`
	Robots          []json.RawMessage `json:"robots"`
	Metadata        map[string]any    `json:"metadata"`
}

type objectJSON struct {
	ModelIndex *int      `json:"modelIndex"`
	Center     []float64 `json:"center"`
	Dimensions []float64 `json:"dimensions"`
	Rotation   float64   `json:"rotation"`
}

type zoneJSON struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Center      []float64 `json:"center"`
	Shape       string    `json:"shape"`
	Dimensions  []float64 `json:"dimensions"`
	Rotation    float64   `json:"rotation"`
	Description string    `json:"description"`
}

type pickingZoneJSON struct {
	Type        string    `json:"type"`
	Center      []float64 `json:"center"`
	Dimensions  []float64 `json:"dimensions"`
	Rotation    float64   `json:"rotation"`
	POISpacing  *float64  `json:"poiSpacing"`
	Description string    `json:"description"`
}

type robotJSON struct {
	ID    *int     `json:"id"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Angle float64  `json:"angle"`
}

// Load reads and parses a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout file %s not found", path)
		}
		return nil, fmt.Errorf("read layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Parse parses layout JSON.
func Parse(data []byte) (*Layout, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayout, err, "invalid layout JSON")
	}

	if doc.FloorSize == nil {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "missing required field 'floorSize'")
	}
	var floor []float64
	if err := json.Unmarshal(doc.FloorSize, &floor); err != nil || len(floor) != 2 {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "floorSize must be [width, height]")
	}
	if !positive(floor...) {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "floor dimensions must be positive, got %v", floor)
	}

	if doc.Objects == nil {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "missing required field 'objects'")
	}
	var rawObjects []json.RawMessage
	if err := json.Unmarshal(doc.Objects, &rawObjects); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "'objects' must be an array")
	}

	l := &Layout{Width: floor[0], Height: floor[1], Metadata: doc.Metadata}

	for i, raw := range rawObjects {
		o, err := parseObject(raw)
		if err != nil {
			l.Errors = append(l.Errors, fmt.Sprintf("object %d: %v", i, err))
			continue
		}
		l.Objects = append(l.Objects, o)
	}
	if len(l.Objects) == 0 {
		msg := "no valid objects in layout"
		if len(l.Errors) > 0 {
			msg += ": " + strings.Join(l.Errors, "; ")
		}
		return nil, errors.New(errors.ErrCodeInvalidLayout, "%s", msg)
	}

	for i, raw := range doc.ProhibitedZones {
		z, err := parseZone(raw, i)
		if err != nil {
			l.Warnings = append(l.Warnings, fmt.Sprintf("prohibited zone %d: %v", i, err))
			continue
		}
		l.ProhibitedZones = append(l.ProhibitedZones, z)
	}
	for i, raw := range doc.PickingZones {
		z, err := parsePickingZone(raw)
		if err != nil {
			l.Warnings = append(l.Warnings, fmt.Sprintf("picking zone %d: %v", i, err))
			continue
		}
		l.PickingZones = append(l.PickingZones, z)
	}
	for i, raw := range doc.Robots {
		r, err := parseRobot(raw, i)
		if err != nil {
			l.Warnings = append(l.Warnings, fmt.Sprintf("robot %d: %v", i, err))
			continue
		}
		l.Robots = append(l.Robots, r)
	}

	l.checkBounds()
	return l, nil
}

func parseObject(raw json.RawMessage) (Object, error) {
	var o objectJSON
	if err := json.Unmarshal(raw, &o); err != nil {
		return Object{}, err
	}
	if o.ModelIndex == nil {
		return Object{}, fmt.Errorf("missing 'modelIndex'")
	}
	if len(o.Center) != 3 {
		return Object{}, fmt.Errorf("'center' must be [x, y, z]")
	}
	if len(o.Dimensions) != 3 {
		return Object{}, fmt.Errorf("'dimensions' must be [width, height, depth]")
	}
	if !positive(o.Dimensions...) {
		return Object{}, fmt.Errorf("all dimensions must be positive, got %v", o.Dimensions)
	}
	return Object{
		ModelIndex:  *o.ModelIndex,
		Center:      [3]float64(o.Center),
		Dimensions:  [3]float64(o.Dimensions),
		RotationDeg: o.Rotation,
	}, nil
}

func parseZone(raw json.RawMessage, index int) (Zone, error) {
	z := zoneJSON{ID: fmt.Sprintf("zone_%d", index), Type: "obstacle_buffer", Shape: ShapeRectangle}
	if err := json.Unmarshal(raw, &z); err != nil {
		return Zone{}, err
	}
	if len(z.Center) != 2 {
		return Zone{}, fmt.Errorf("'center' must be [x, y]")
	}
	shape := strings.ToLower(z.Shape)
	switch shape {
	case ShapeRectangle:
		if len(z.Dimensions) < 2 {
			return Zone{}, fmt.Errorf("rectangle needs [width, height]")
		}
	case ShapeCircle:
		if len(z.Dimensions) < 1 {
			return Zone{}, fmt.Errorf("circle needs [radius]")
		}
	default:
		return Zone{}, fmt.Errorf("unsupported shape %q", z.Shape)
	}
	if !positive(z.Dimensions...) {
		return Zone{}, fmt.Errorf("all dimensions must be positive, got %v", z.Dimensions)
	}
	return Zone{
		ID:          z.ID,
		Type:        z.Type,
		Center:      orb.Point{z.Center[0], z.Center[1]},
		Shape:       shape,
		Dimensions:  z.Dimensions,
		RotationDeg: z.Rotation,
		Description: z.Description,
	}, nil
}

func parsePickingZone(raw json.RawMessage) (PickingZone, error) {
	z := pickingZoneJSON{Type: "PICKUP"}
	if err := json.Unmarshal(raw, &z); err != nil {
		return PickingZone{}, err
	}
	typ := strings.ToUpper(z.Type)
	if typ != "PICKUP" && typ != "DROPOFF" {
		return PickingZone{}, fmt.Errorf("'type' must be PICKUP or DROPOFF, got %q", z.Type)
	}
	if len(z.Center) != 3 {
		return PickingZone{}, fmt.Errorf("'center' must be [x, y, z]")
	}
	if len(z.Dimensions) != 3 {
		return PickingZone{}, fmt.Errorf("'dimensions' must be [width, height, depth]")
	}
	if !positive(z.Dimensions[0], z.Dimensions[2]) {
		return PickingZone{}, fmt.Errorf("width and depth must be positive")
	}
	spacing := 2.0
	if z.POISpacing != nil {
		spacing = *z.POISpacing
	}
	if !positive(spacing) {
		return PickingZone{}, fmt.Errorf("'poiSpacing' must be positive")
	}
	return PickingZone{
		Type:        typ,
		Center:      [3]float64(z.Center),
		Dimensions:  [3]float64(z.Dimensions),
		RotationDeg: z.Rotation,
		POISpacing:  spacing,
		Description: z.Description,
	}, nil
}

func parseRobot(raw json.RawMessage, index int) (Robot, error) {
	var r robotJSON
	if err := json.Unmarshal(raw, &r); err != nil {
		return Robot{}, err
	}
	if r.X == nil || r.Y == nil {
		return Robot{}, fmt.Errorf("missing 'x' or 'y'")
	}
	id := index
	if r.ID != nil {
		id = *r.ID
	}
	return Robot{ID: id, X: *r.X, Y: *r.Y, AngleDeg: r.Angle}, nil
}

// checkBounds warns about footprints whose bounding box leaves the floor by
// more than boundsTolerance on any side. The rasterizer clips them anyway.
func (l *Layout) checkBounds() {
	floor := orb.Bound{
		Min: orb.Point{-boundsTolerance, -boundsTolerance},
		Max: orb.Point{l.Width + boundsTolerance, l.Height + boundsTolerance},
	}
	outside := func(s raster.Shape) (orb.Bound, bool) {
		b := s.Bound()
		return b, !floor.Contains(b.Min) || !floor.Contains(b.Max)
	}
	for _, o := range l.Objects {
		if b, out := outside(o.Footprint()); out {
			l.Warnings = append(l.Warnings, fmt.Sprintf(
				"object model %d footprint %s extends beyond floor [0, %g]x[0, %g]", o.ModelIndex, formatBound(b), l.Width, l.Height))
		}
	}
	for _, z := range l.ProhibitedZones {
		s := z.Footprint()
		if s == nil {
			continue
		}
		if b, out := outside(s); out {
			l.Warnings = append(l.Warnings, fmt.Sprintf(
				"prohibited zone %q footprint %s extends beyond floor [0, %g]x[0, %g]", z.ID, formatBound(b), l.Width, l.Height))
		}
	}
}

func formatBound(b orb.Bound) string {
	return fmt.Sprintf("[%g, %g]x[%g, %g]", b.Min[0], b.Max[0], b.Min[1], b.Max[1])
}

func positive(vs ...float64) bool {
	for _, v := range vs {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
