package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// RectCorners returns the four corners of a width × height rectangle centered
// at center and rotated by deg degrees counter-clockwise. The ring is open
// (first corner is not repeated) and ordered (-w,-h), (w,-h), (w,h), (-w,h)
// before rotation.
func RectCorners(center orb.Point, width, height, deg float64) orb.Ring {
	hw, hh := width/2, height/2
	local := [4]orb.Point{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}

	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	ring := make(orb.Ring, 0, 4)
	for _, p := range local {
		ring = append(ring, orb.Point{
			center[0] + p[0]*cos - p[1]*sin,
			center[1] + p[0]*sin + p[1]*cos,
		})
	}
	return ring
}

// ScaleRing divides every vertex by resolution, converting meters to cell units.
func ScaleRing(r orb.Ring, resolution float64) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[i] = ToCells(p, resolution)
	}
	return out
}

// PointInRing runs the half-open even-odd test described in the package doc.
// The ring may be open or closed; a closing duplicate vertex contributes a
// zero-length edge, which is never crossed.
func PointInRing(p orb.Point, ring orb.Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	x, y := p[0], p[1]
	inside := false
	for i := 0; i < n; i++ {
		p1 := ring[i]
		p2 := ring[(i+1)%n]
		if p1[1] == p2[1] {
			continue
		}
		if y <= math.Min(p1[1], p2[1]) || y > math.Max(p1[1], p2[1]) {
			continue
		}
		xInt := (y-p1[1])*(p2[0]-p1[0])/(p2[1]-p1[1]) + p1[0]
		if x <= xInt {
			inside = !inside
		}
	}
	return inside
}

// CellBounds returns the integer cell range [x0,x1]×[y0,y1] covering b,
// flooring the minimum and ceiling the maximum.
func CellBounds(b orb.Bound) (x0, y0, x1, y1 int) {
	return int(math.Floor(b.Min[0])), int(math.Floor(b.Min[1])),
		int(math.Ceil(b.Max[0])), int(math.Ceil(b.Max[1]))
}
