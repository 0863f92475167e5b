package layout

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/raster"
)

// ChargingStationModel is the model index of charging stations, which are
// left walkable.
const ChargingStationModel = 5

// boundsTolerance is how far, in meters, a footprint's bounding box may
// extend past the floor before a warning is recorded.
const boundsTolerance = 2.0

// Shape names accepted for prohibited zones.
const (
	ShapeRectangle = "rectangle"
	ShapeCircle    = "circle"
)

// Layout is a parsed warehouse.
type Layout struct {
	Width           float64
	Height          float64
	Objects         []Object
	ProhibitedZones []Zone
	PickingZones    []PickingZone
	Robots          []Robot
	Metadata        map[string]any

	// Errors lists objects that were skipped.
	Errors []string
	// Warnings lists skipped optional entries and out-of-bounds footprints.
	Warnings []string
}

// Object is a static 3D warehouse object.
type Object struct {
	ModelIndex  int
	Center      [3]float64
	Dimensions  [3]float64
	RotationDeg float64
}

// Footprint returns the object's top-down rectangle.
func (o Object) Footprint() raster.Shape {
	return raster.NewRectangle(
		orb.Point{o.Center[0], o.Center[2]},
		o.Dimensions[0], o.Dimensions[2], o.RotationDeg,
	)
}

// Zone is a 2D prohibited area.
type Zone struct {
	ID          string
	Type        string
	Center      orb.Point
	Shape       string
	Dimensions  []float64
	RotationDeg float64
	Description string
}

// Footprint returns the zone's shape. Zones with too few dimensions for
// their shape yield nil.
func (z Zone) Footprint() raster.Shape {
	switch z.Shape {
	case ShapeRectangle:
		if len(z.Dimensions) < 2 {
			return nil
		}
		return raster.NewRectangle(z.Center, z.Dimensions[0], z.Dimensions[1], z.RotationDeg)
	case ShapeCircle:
		if len(z.Dimensions) < 1 {
			return nil
		}
		return raster.Circle{Center: z.Center, Radius: z.Dimensions[0]}
	}
	return nil
}

// PickingZone is a region reserved for pickup or dropoff points.
type PickingZone struct {
	Type        string // PICKUP or DROPOFF
	Center      [3]float64
	Dimensions  [3]float64
	RotationDeg float64
	POISpacing  float64
	Description string
}

// Robot is an initial robot pose.
type Robot struct {
	ID       int
	X, Y     float64
	AngleDeg float64
}

// Shapes returns every obstacle footprint: objects first (charging stations
// excluded), then prohibited zones.
func (l *Layout) Shapes() []raster.Shape {
	shapes := make([]raster.Shape, 0, len(l.Objects)+len(l.ProhibitedZones))
	for _, o := range l.Objects {
		if o.ModelIndex == ChargingStationModel {
			continue
		}
		shapes = append(shapes, o.Footprint())
	}
	for _, z := range l.ProhibitedZones {
		if s := z.Footprint(); s != nil {
			shapes = append(shapes, s)
		}
	}
	return shapes
}

// GridSize returns the grid dimensions in cells for the given resolution,
// rounding partial cells up.
func (l *Layout) GridSize(resolution float64) (width, height int) {
	return int(math.Ceil(l.Width / resolution)), int(math.Ceil(l.Height / resolution))
}

// Rasterize builds the obstacle grid for the layout.
func (l *Layout) Rasterize(resolution float64) *grid.Grid {
	w, h := l.GridSize(resolution)
	g := grid.New(w, h)
	raster.MarkAll(g, l.Shapes(), resolution)
	return g
}
