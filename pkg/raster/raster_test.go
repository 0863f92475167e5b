package raster

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/fleetmap/pkg/geom"
	"github.com/matzehuels/fleetmap/pkg/grid"
)

func blocked(g *grid.Grid) map[geom.Cell]bool {
	out := map[geom.Cell]bool{}
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			if !g.At(x, y) {
				out[geom.Cell{X: x, Y: y}] = true
			}
		}
	}
	return out
}

func rangeSet(x0, y0, x1, y1 int) map[geom.Cell]bool {
	out := map[geom.Cell]bool{}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out[geom.Cell{X: x, Y: y}] = true
		}
	}
	return out
}

func TestMarkRectFloorCeil(t *testing.T) {
	tests := []struct {
		name           string
		rect           Rect
		x0, y0, x1, y1 int
	}{
		{
			name: "cell aligned",
			rect: Rect{Center: orb.Point{5, 5}, Width: 2, Height: 4},
			x0:   4, y0: 3, x1: 6, y1: 7,
		},
		{
			name: "fractional edges widen outward",
			rect: Rect{Center: orb.Point{5, 5}, Width: 1, Height: 1},
			x0:   4, y0: 4, x1: 6, y1: 6,
		},
		{
			name: "clamped to grid",
			rect: Rect{Center: orb.Point{0, 19}, Width: 4, Height: 4},
			x0:   0, y0: 17, x1: 2, y1: 19,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := grid.New(20, 20)
			n := Mark(g, tt.rect, 1)
			want := rangeSet(tt.x0, tt.y0, tt.x1, tt.y1)
			assert.Equal(t, want, blocked(g))
			assert.Equal(t, len(want), n)
		})
	}
}

func TestMarkRectResolution(t *testing.T) {
	// 1m x 1m box at (2.05, 2.05) with 0.1m cells: [1.55, 2.55] -> [15, 26]
	g := grid.New(40, 40)
	Mark(g, Rect{Center: orb.Point{2.05, 2.05}, Width: 1, Height: 1}, 0.1)

	b := blocked(g)
	assert.True(t, b[geom.Cell{X: 15, Y: 15}])
	assert.True(t, b[geom.Cell{X: 26, Y: 26}])
	assert.False(t, b[geom.Cell{X: 14, Y: 20}])
	assert.False(t, b[geom.Cell{X: 27, Y: 20}])
}

func TestMarkCircleExactDisk(t *testing.T) {
	for _, r := range []int{0, 1, 2, 3, 5} {
		g := grid.New(21, 21)
		Mark(g, Circle{Center: orb.Point{10, 10}, Radius: float64(r)}, 1)

		want := map[geom.Cell]bool{}
		for _, o := range geom.DiskOffsets(r) {
			want[o.Add(10, 10)] = true
		}
		assert.Equal(t, want, blocked(g), "radius %d", r)
	}
}

func TestMarkCircleClipsAtEdge(t *testing.T) {
	g := grid.New(5, 5)
	n := Mark(g, Circle{Center: orb.Point{0, 0}, Radius: 2}, 1)
	// quarter disk: (0,0) (1,0) (2,0) (0,1) (1,1) (0,2)
	assert.Equal(t, 6, n)
	assert.False(t, g.At(1, 1))
	assert.True(t, g.At(2, 1))
}

func TestRotatedNearZeroIsAxisAligned(t *testing.T) {
	for _, rot := range []float64{0, 0.005, -0.005, 180, 179.995} {
		a := grid.New(20, 20)
		b := grid.New(20, 20)
		Mark(a, RotatedRect{Center: orb.Point{10, 10}, Width: 5, Height: 3, RotationDeg: rot}, 1)
		Mark(b, Rect{Center: orb.Point{10, 10}, Width: 5, Height: 3}, 1)
		assert.True(t, a.Equal(b), "rotation %g", rot)
	}
}

func TestNewRectangle(t *testing.T) {
	assert.IsType(t, Rect{}, NewRectangle(orb.Point{1, 1}, 2, 2, 0.001))
	assert.IsType(t, RotatedRect{}, NewRectangle(orb.Point{1, 1}, 2, 2, 45))
}

func TestMarkRotatedRect(t *testing.T) {
	g := grid.New(30, 30)
	rr := RotatedRect{Center: orb.Point{15, 15}, Width: 10, Height: 2, RotationDeg: 45}
	n := Mark(g, rr, 1)
	require.Positive(t, n)

	b := blocked(g)
	assert.True(t, b[geom.Cell{X: 15, Y: 15}], "center is covered")
	assert.True(t, b[geom.Cell{X: 17, Y: 17}], "along the long axis")
	assert.True(t, b[geom.Cell{X: 13, Y: 13}], "along the long axis")
	assert.False(t, b[geom.Cell{X: 17, Y: 13}], "off the short axis")
	assert.False(t, b[geom.Cell{X: 13, Y: 17}], "off the short axis")

	// every marked cell lies within the polygon
	ring := rr.Corners()
	for c := range b {
		assert.True(t, geom.PointInRing(orb.Point{float64(c.X), float64(c.Y)}, ring), "cell %v", c)
	}
}

func TestMarkRotatedRect90MatchesSwapped(t *testing.T) {
	// a 90° rotation of a 6x2 box covers the same area as a 2x6 box, minus
	// the half-open boundary (left and bottom edges excluded)
	g := grid.New(20, 20)
	Mark(g, RotatedRect{Center: orb.Point{10, 10}, Width: 6, Height: 2, RotationDeg: 90}, 1)
	assert.Equal(t, rangeSet(10, 8, 11, 13), blocked(g))
}

func TestMarkIsMonotone(t *testing.T) {
	shapes := []Shape{
		Rect{Center: orb.Point{3, 3}, Width: 4, Height: 2},
		Circle{Center: orb.Point{10, 10}, Radius: 3},
		RotatedRect{Center: orb.Point{8, 4}, Width: 6, Height: 2, RotationDeg: 30},
	}

	forward := grid.New(16, 16)
	MarkAll(forward, shapes, 1)

	backward := grid.New(16, 16)
	for i := len(shapes) - 1; i >= 0; i-- {
		Mark(backward, shapes[i], 1)
	}
	assert.True(t, forward.Equal(backward), "order does not matter")

	before := forward.Count()
	assert.Zero(t, MarkAll(forward, shapes, 1), "re-marking blocks nothing new")
	assert.Equal(t, before, forward.Count())
}

func TestSummarize(t *testing.T) {
	g := grid.New(10, 10)
	Mark(g, Rect{Center: orb.Point{2, 2}, Width: 2, Height: 2}, 1)
	s := Summarize(g)
	assert.Equal(t, 100, s.Total)
	assert.Equal(t, 9, s.Obstacles)
	assert.Equal(t, 91, s.Walkable)
	assert.InDelta(t, 0.09, s.Ratio, 1e-12)
}

func TestBound(t *testing.T) {
	b := Circle{Center: orb.Point{1, 2}, Radius: 1}.Bound()
	assert.Equal(t, orb.Point{0, 1}, b.Min)
	assert.Equal(t, orb.Point{2, 3}, b.Max)

	rb := RotatedRect{Center: orb.Point{0, 0}, Width: 2, Height: 2, RotationDeg: 45}.Bound()
	assert.InDelta(t, -1.41421356, rb.Min[0], 1e-6)
	assert.InDelta(t, 1.41421356, rb.Max[1], 1e-6)
}
