package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/matzehuels/fleetmap/pkg/geom"
	"github.com/matzehuels/fleetmap/pkg/grid"
)

// Corners returns the rectangle's corners in meters.
func (r RotatedRect) Corners() orb.Ring {
	return geom.RectCorners(r.Center, r.Width, r.Height, r.RotationDeg)
}

// Mark blocks every cell covered by s on g and returns the number of cells
// that changed from walkable to obstacle. resolution is meters per cell.
func Mark(g *grid.Grid, s Shape, resolution float64) int {
	switch s := s.(type) {
	case Rect:
		return markRect(g, s.Center, s.Width, s.Height, resolution)
	case RotatedRect:
		if s.AxisAligned() {
			return markRect(g, s.Center, s.Width, s.Height, resolution)
		}
		return markPolygon(g, geom.ScaleRing(s.Corners(), resolution))
	case Circle:
		return markCircle(g, s, resolution)
	}
	panic(fmt.Sprintf("raster: unknown shape %T", s))
}

// MarkAll applies Mark for every shape and returns the total number of newly
// blocked cells.
func MarkAll(g *grid.Grid, shapes []Shape, resolution float64) int {
	n := 0
	for _, s := range shapes {
		n += Mark(g, s, resolution)
	}
	return n
}

func markRect(g *grid.Grid, center orb.Point, width, height, res float64) int {
	x1 := int(math.Floor((center[0] - width/2) / res))
	x2 := int(math.Ceil((center[0] + width/2) / res))
	y1 := int(math.Floor((center[1] - height/2) / res))
	y2 := int(math.Ceil((center[1] + height/2) / res))

	x1, x2 = clamp(x1, 0, g.Width()-1), clamp(x2, 0, g.Width()-1)
	y1, y2 = clamp(y1, 0, g.Height()-1), clamp(y2, 0, g.Height()-1)

	n := 0
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if g.Block(x, y) {
				n++
			}
		}
	}
	return n
}

// markPolygon rasterizes a polygon already expressed in cell units.
func markPolygon(g *grid.Grid, ring orb.Ring) int {
	if len(ring) < 3 {
		return 0
	}
	x0, y0, x1, y1 := geom.CellBounds(ring.Bound())
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, g.Width()-1), min(y1, g.Height()-1)

	n := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if geom.PointInRing(orb.Point{float64(x), float64(y)}, ring) && g.Block(x, y) {
				n++
			}
		}
	}
	return n
}

func markCircle(g *grid.Grid, c Circle, res float64) int {
	cx, cy := c.Center[0]/res, c.Center[1]/res
	r := c.Radius / res

	x0 := max(0, int(math.Floor(cx-r)))
	x1 := min(g.Width()-1, int(math.Ceil(cx+r)))
	y0 := max(0, int(math.Floor(cy-r)))
	y1 := min(g.Height()-1, int(math.Ceil(cy+r)))

	n := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r && g.Block(x, y) {
				n++
			}
		}
	}
	return n
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Stats summarizes a rasterized grid.
type Stats struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Total     int     `json:"total_cells"`
	Obstacles int     `json:"obstacle_cells"`
	Walkable  int     `json:"walkable_cells"`
	Ratio     float64 `json:"obstacle_ratio"`
}

// Summarize counts obstacle and walkable cells on g.
func Summarize(g *grid.Grid) Stats {
	s := Stats{Width: g.Width(), Height: g.Height(), Total: g.Size(), Walkable: g.Count()}
	s.Obstacles = s.Total - s.Walkable
	if s.Total > 0 {
		s.Ratio = float64(s.Obstacles) / float64(s.Total)
	}
	return s
}
