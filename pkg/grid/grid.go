// Package grid provides the fixed-size boolean occupancy grid shared by every
// stage of the pipeline, plus its on-disk formats.
//
// A cell value of true means walkable (raw maps) or accessible (inflated maps);
// false means obstacle or blocked. Cells are stored flat in row-major order and
// addressed with bounds-checked (x, y) accessors.
package grid

import (
	"fmt"

	"github.com/matzehuels/fleetmap/pkg/geom"
)

// Grid is a width × height boolean matrix. Dimensions are fixed at construction.
type Grid struct {
	width  int
	height int
	cells  []bool
}

// New creates a grid with every cell walkable.
// Negative dimensions are treated as zero.
func New(width, height int) *Grid {
	width, height = max(width, 0), max(height, 0)
	cells := make([]bool, width*height)
	for i := range cells {
		cells[i] = true
	}
	return &Grid{width: width, height: height, cells: cells}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Size returns the total number of cells.
func (g *Grid) Size() int { return len(g.cells) }

// InBounds reports whether (x, y) addresses a cell of g.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// At returns the cell value at (x, y). Out-of-bounds reads return false,
// so the outside of a grid behaves like an obstacle.
func (g *Grid) At(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.cells[y*g.width+x]
}

// AtCell is At for a geom.Cell.
func (g *Grid) AtCell(c geom.Cell) bool {
	return g.At(c.X, c.Y)
}

// Set assigns the cell at (x, y). Out-of-bounds writes are ignored.
func (g *Grid) Set(x, y int, v bool) {
	if !g.InBounds(x, y) {
		return
	}
	g.cells[y*g.width+x] = v
}

// Block marks (x, y) as an obstacle and reports whether it was walkable before.
func (g *Grid) Block(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	i := y*g.width + x
	was := g.cells[i]
	g.cells[i] = false
	return was
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	cells := make([]bool, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells}
}

// Equal reports whether two grids have identical dimensions and cells.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.width != o.width || g.height != o.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Count returns the number of true (walkable/accessible) cells.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.cells {
		if v {
			n++
		}
	}
	return n
}

// Cells returns every true cell in row-major order (y outer, x inner).
// The order is part of the placement determinism contract.
func (g *Grid) Cells() []geom.Cell {
	out := make([]geom.Cell, 0, g.Count())
	for y := 0; y < g.height; y++ {
		row := y * g.width
		for x := 0; x < g.width; x++ {
			if g.cells[row+x] {
				out = append(out, geom.Cell{X: x, Y: y})
			}
		}
	}
	return out
}

// Region returns the true cells within Euclidean radius r of center, in
// row-major offset order. Cells outside the grid are skipped.
func (g *Grid) Region(center geom.Cell, r int) []geom.Cell {
	var out []geom.Cell
	for _, o := range geom.DiskOffsets(r) {
		c := center.Add(o.X, o.Y)
		if g.AtCell(c) {
			out = append(out, c)
		}
	}
	return out
}

// String renders g in the text body format (no header), one row per line.
func (g *Grid) String() string {
	buf := make([]byte, 0, (g.width+1)*g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			buf = append(buf, cellChar(g.At(x, y)))
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// GoString is used by %#v and test failure output.
func (g *Grid) GoString() string {
	return fmt.Sprintf("grid.Grid{%dx%d, %d open}", g.width, g.height, g.Count())
}
