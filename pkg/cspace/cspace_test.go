package cspace

import (
	"math/rand/v2"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/fleetmap/pkg/geom"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/raster"
)

func randomGrid(w, h int, seed uint64, density float64) *grid.Grid {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	g := grid.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rng.Float64() < density {
				g.Set(x, y, false)
			}
		}
	}
	return g
}

func TestRadiusCells(t *testing.T) {
	tests := []struct {
		r, res float64
		want   int
	}{
		{0, 0.1, 0},
		{0.3, 0.1, 3},
		{0.25, 0.1, 3},
		{1, 1, 1},
		{1.01, 1, 2},
		{0.5, 0, 0},
		// Quotients a few ulps above an integer.
		{2.1, 0.3, 7},
		{2.7, 0.3, 9},
		{0.7, 0.1, 7},
		// Above the tolerance, ceil applies.
		{2.1000001, 0.3, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RadiusCells(tt.r, tt.res), "RadiusCells(%g, %g)", tt.r, tt.res)
	}
}

func TestInflateZeroRadiusIsIdentityOutsideMargin(t *testing.T) {
	in := randomGrid(30, 20, 7, 0.2)
	out, rep := Inflate(in, Params{RobotRadiusM: 0, ResolutionM: 0.1, EdgeMarginCells: 3})

	assert.Equal(t, 0, rep.RadiusCells)
	assert.Equal(t, 0, rep.ClosedByInflation)
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			if inMargin(x, y, 30, 20, 3) {
				assert.False(t, out.At(x, y), "margin cell (%d,%d) must be closed", x, y)
				continue
			}
			assert.Equal(t, in.At(x, y), out.At(x, y), "cell (%d,%d)", x, y)
		}
	}
}

func TestInflateDoesNotModifyInput(t *testing.T) {
	in := randomGrid(15, 15, 3, 0.1)
	before := in.Clone()
	Inflate(in, Params{RobotRadiusM: 0.2, ResolutionM: 0.1, EdgeMarginCells: 2})
	assert.True(t, before.Equal(in))
}

// Brute-force definition: accessible iff walkable and no obstacle within r.
func TestInflateMatchesDefinition(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3} {
		in := randomGrid(25, 18, seed, 0.05)
		p := Params{RobotRadiusM: 0.25, ResolutionM: 0.1, EdgeMarginCells: 1}
		out, rep := Inflate(in, p)
		r := rep.RadiusCells
		require.Equal(t, 3, r)

		for y := 0; y < in.Height(); y++ {
			for x := 0; x < in.Width(); x++ {
				want := in.At(x, y) && !inMargin(x, y, in.Width(), in.Height(), 1)
				for oy := 0; want && oy < in.Height(); oy++ {
					for ox := 0; ox < in.Width(); ox++ {
						if in.At(ox, oy) {
							continue
						}
						if geom.Dist2(geom.Cell{X: x, Y: y}, geom.Cell{X: ox, Y: oy}) <= r*r {
							want = false
							break
						}
					}
				}
				assert.Equal(t, want, out.At(x, y), "seed %d cell (%d,%d)", seed, x, y)
			}
		}
		assert.Equal(t, out.Count(), rep.Accessible)
	}
}

func TestInflateCircleObstacle(t *testing.T) {
	// radius-1 circle at (5,5) with a 1-cell robot closes a radius-2 disk
	obstacles := grid.New(10, 10)
	raster.Mark(obstacles, raster.Circle{Center: orb.Point{5, 5}, Radius: 1}, 1)

	out, rep := Inflate(obstacles, Params{RobotRadiusM: 1, ResolutionM: 1, EdgeMarginCells: 0})
	require.Equal(t, 1, rep.RadiusCells)
	assert.Equal(t, 5, rep.Obstacles)

	closed := map[geom.Cell]bool{}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if !out.At(x, y) {
				closed[geom.Cell{X: x, Y: y}] = true
			}
		}
	}

	want := map[geom.Cell]bool{}
	for _, o := range geom.DiskOffsets(2) {
		want[o.Add(5, 5)] = true
	}
	require.Len(t, want, 13)
	assert.Equal(t, want, closed)
	assert.Equal(t, 100-len(want), rep.Accessible)
}

func TestInflateMarginOnly(t *testing.T) {
	out, rep := Inflate(grid.New(10, 8), Params{ResolutionM: 1, EdgeMarginCells: 2})
	assert.Equal(t, 6*4, out.Count())
	assert.Equal(t, 80-24, rep.ClosedByMargin)
	assert.False(t, out.At(1, 4))
	assert.False(t, out.At(8, 4))
	assert.True(t, out.At(7, 5))
}

func TestInflateMarginLargerThanGrid(t *testing.T) {
	out, _ := Inflate(grid.New(5, 5), Params{ResolutionM: 1, EdgeMarginCells: 10})
	assert.Zero(t, out.Count())
}

func TestInflateDeterministic(t *testing.T) {
	in := randomGrid(40, 40, 11, 0.08)
	p := Params{RobotRadiusM: 0.3, ResolutionM: 0.1, EdgeMarginCells: 4}
	a, ra := Inflate(in, p)
	b, rb := Inflate(in, p)
	assert.True(t, a.Equal(b))
	assert.Equal(t, ra, rb)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, Params{RobotRadiusM: 0.3, ResolutionM: 0.1, EdgeMarginCells: 10}.Validate())
	assert.Error(t, Params{RobotRadiusM: -1, ResolutionM: 0.1}.Validate())
	assert.Error(t, Params{RobotRadiusM: 0.3, ResolutionM: 0}.Validate())
	assert.Error(t, Params{RobotRadiusM: 0.3, ResolutionM: 0.1, EdgeMarginCells: -1}.Validate())
}
