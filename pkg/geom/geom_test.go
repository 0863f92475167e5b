package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	a := Cell{X: 0, Y: 0}
	b := Cell{X: 3, Y: 4}

	assert.Equal(t, 25, Dist2(a, b))
	assert.InDelta(t, 5.0, Distance(a, b), 1e-12)
	assert.True(t, AtLeast(a, b, 5), "distance equal to the minimum is accepted")
	assert.False(t, AtLeast(a, b, 6))
	assert.True(t, AtLeast(a, a, 0), "zero spacing accepts coincident cells")
}

func TestFarFromAll(t *testing.T) {
	pool := []Cell{{X: 0, Y: 0}, {X: 10, Y: 0}}

	assert.True(t, FarFromAll(Cell{X: 5, Y: 0}, pool, 5))
	assert.False(t, FarFromAll(Cell{X: 6, Y: 0}, pool, 5))
	assert.True(t, FarFromAll(Cell{X: 6, Y: 0}, nil, 5), "empty pool accepts everything")
}

func TestDiskOffsets(t *testing.T) {
	assert.Empty(t, DiskOffsets(-1))
	assert.Equal(t, []Cell{{}}, DiskOffsets(0))

	one := DiskOffsets(1)
	assert.Equal(t, []Cell{{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}, one)

	// r=2 disk: 13 cells (5 + 3 + 3 + 1 + 1)
	assert.Len(t, DiskOffsets(2), 13)
	for _, o := range DiskOffsets(3) {
		assert.LessOrEqual(t, o.X*o.X+o.Y*o.Y, 9)
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "(12, 7)", Cell{X: 12, Y: 7}.String())
}

func TestRectCornersRotation(t *testing.T) {
	ring := RectCorners(orb.Point{10, 5}, 4, 2, 90)
	require.Len(t, ring, 4)

	// A 4×2 rectangle rotated by 90° spans 2 wide and 4 tall.
	b := ring.Bound()
	assert.InDelta(t, 9, b.Min[0], 1e-9)
	assert.InDelta(t, 11, b.Max[0], 1e-9)
	assert.InDelta(t, 3, b.Min[1], 1e-9)
	assert.InDelta(t, 7, b.Max[1], 1e-9)
}

func TestRectCornersZeroRotation(t *testing.T) {
	ring := RectCorners(orb.Point{0, 0}, 2, 2, 0)
	want := orb.Ring{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for i := range want {
		assert.InDelta(t, want[i][0], ring[i][0], 1e-12)
		assert.InDelta(t, want[i][1], ring[i][1], 1e-12)
	}
}

func TestPointInRingSquareBoundary(t *testing.T) {
	square := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}

	tests := []struct {
		name string
		p    orb.Point
		want bool
	}{
		{"interior", orb.Point{2, 2}, true},
		{"left edge", orb.Point{0, 2}, false},
		{"right edge", orb.Point{4, 2}, true},
		{"bottom edge", orb.Point{2, 0}, false},
		{"top edge", orb.Point{2, 4}, true},
		{"top-right corner", orb.Point{4, 4}, true},
		{"top-left corner", orb.Point{0, 4}, false},
		{"bottom-right corner", orb.Point{4, 0}, false},
		{"outside right", orb.Point{5, 2}, false},
		{"outside above", orb.Point{2, 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInRing(tt.p, square))
		})
	}
}

func TestPointInRingClosedRingMatchesOpen(t *testing.T) {
	open := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	closed := append(append(orb.Ring{}, open...), open[0])

	for y := -1; y <= 5; y++ {
		for x := -1; x <= 5; x++ {
			p := orb.Point{float64(x), float64(y)}
			assert.Equal(t, PointInRing(p, open), PointInRing(p, closed), "point %v", p)
		}
	}
}

func TestPointInRingVertexOnRay(t *testing.T) {
	// The ray from (1,2) passes exactly through vertices (0,2) and (4,2).
	diamond := orb.Ring{{2, 0}, {4, 2}, {2, 4}, {0, 2}}

	assert.True(t, PointInRing(orb.Point{1, 2}, diamond))
	assert.True(t, PointInRing(orb.Point{3, 2}, diamond))
	assert.False(t, PointInRing(orb.Point{5, 2}, diamond))
	assert.False(t, PointInRing(orb.Point{-1, 2}, diamond))
}

func TestPointInRingDegenerate(t *testing.T) {
	assert.False(t, PointInRing(orb.Point{0, 0}, orb.Ring{{0, 0}, {1, 1}}))
	assert.False(t, PointInRing(orb.Point{0, 0}, nil))
}

func TestCellBounds(t *testing.T) {
	x0, y0, x1, y1 := CellBounds(orb.Bound{Min: orb.Point{1.2, -0.5}, Max: orb.Point{3.0, 2.01}})
	assert.Equal(t, [4]int{1, -1, 3, 3}, [4]int{x0, y0, x1, y1})
}

func TestScaleRing(t *testing.T) {
	r := ScaleRing(orb.Ring{{0.5, 1.0}}, 0.1)
	assert.InDelta(t, 5, r[0][0], 1e-9)
	assert.InDelta(t, 10, r[0][1], 1e-9)
	assert.False(t, math.IsNaN(r[0][0]))
}
