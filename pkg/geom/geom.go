package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Cell is an integer grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the cell as "(x, y)", the form used in POI metadata.
func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Add returns c translated by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Dist2 returns the squared Euclidean distance between two cells.
func Dist2(a, b Cell) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between two cells.
func Distance(a, b Cell) float64 {
	return math.Sqrt(float64(Dist2(a, b)))
}

// AtLeast reports whether a and b are at least min cells apart.
// The comparison is done on squared integers so it is exact.
func AtLeast(a, b Cell, min int) bool {
	if min <= 0 {
		return true
	}
	return Dist2(a, b) >= min*min
}

// FarFromAll reports whether c is at least min cells from every cell in others.
func FarFromAll(c Cell, others []Cell, min int) bool {
	for _, o := range others {
		if !AtLeast(c, o, min) {
			return false
		}
	}
	return true
}

// DiskOffsets returns every (dx, dy) with dx²+dy² <= r², in row-major order
// (dy outer, dx inner). A negative radius yields no offsets; zero yields the origin.
func DiskOffsets(r int) []Cell {
	if r < 0 {
		return nil
	}
	out := make([]Cell, 0, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				out = append(out, Cell{X: dx, Y: dy})
			}
		}
	}
	return out
}

// ToCells converts a physical point to cell units.
func ToCells(p orb.Point, resolution float64) orb.Point {
	return orb.Point{p[0] / resolution, p[1] / resolution}
}
