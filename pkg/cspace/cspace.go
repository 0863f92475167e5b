// Package cspace computes the configuration space of a disk-shaped robot on
// an obstacle grid.
//
// A robot of radius r centered on cell c collides with an obstacle iff some
// obstacle cell lies within r of c, so the accessible set is the walkable
// set minus the obstacle set dilated by a disk. An edge margin band is closed
// on top of that regardless of what the obstacle grid says.
package cspace

import (
	"math"

	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/geom"
	"github.com/matzehuels/fleetmap/pkg/grid"
)

// radiusEpsilon absorbs division noise just above an integer: 2.1/0.3 is
// 7.000000000000001 in float64 and must give 7 cells, not 8. Quotients within
// 1e-9 above an integer k therefore map to k, not to ceil's k+1.
const radiusEpsilon = 1e-9

// Params configures an inflation.
type Params struct {
	RobotRadiusM    float64 // robot radius in meters
	ResolutionM     float64 // meters per cell
	EdgeMarginCells int     // cells closed along every grid edge
}

// Validate checks that the parameters describe a physical robot and grid.
func (p Params) Validate() error {
	if err := errors.ValidateNonNegative("robot radius", p.RobotRadiusM); err != nil {
		return err
	}
	if err := errors.ValidatePositive("resolution", p.ResolutionM); err != nil {
		return err
	}
	return errors.ValidateCount("edge margin", p.EdgeMarginCells)
}

// RadiusCells converts a physical radius to the integer inflation radius,
// rounding up so the robot is never under-approximated. It is ceil(r/res)
// computed with radiusEpsilon tolerance.
func RadiusCells(robotRadiusM, resolutionM float64) int {
	if robotRadiusM <= 0 || resolutionM <= 0 {
		return 0
	}
	return int(math.Ceil(robotRadiusM/resolutionM - radiusEpsilon))
}

// Report describes what an inflation closed.
type Report struct {
	RadiusCells       int `json:"radius_cells"`
	Obstacles         int `json:"obstacle_cells"`
	ClosedByInflation int `json:"closed_by_inflation"`
	ClosedByMargin    int `json:"closed_by_margin"`
	Accessible        int `json:"accessible_cells"`
}

// Inflate returns a new grid in which a cell is true iff it is walkable in
// obstacles, no obstacle lies within the robot radius, and it is outside the
// edge margin band. The input grid is not modified.
func Inflate(obstacles *grid.Grid, p Params) (*grid.Grid, Report) {
	r := RadiusCells(p.RobotRadiusM, p.ResolutionM)
	w, h := obstacles.Width(), obstacles.Height()
	out := obstacles.Clone()
	rep := Report{RadiusCells: r}

	offsets := geom.DiskOffsets(r)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if obstacles.At(x, y) {
				continue
			}
			rep.Obstacles++
			for _, o := range offsets {
				if out.Block(x+o.X, y+o.Y) {
					rep.ClosedByInflation++
				}
			}
		}
	}

	m := p.EdgeMarginCells
	if m > 0 {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if inMargin(x, y, w, h, m) && out.Block(x, y) {
					rep.ClosedByMargin++
				}
			}
		}
	}

	rep.Accessible = out.Count()
	return out, rep
}

func inMargin(x, y, w, h, m int) bool {
	return x < m || x >= w-m || y < m || y >= h-m
}
