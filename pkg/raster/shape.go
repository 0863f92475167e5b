package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// AxisAlignedEpsilon is the rotation tolerance, in degrees, under which a
// rotated rectangle is rasterized as axis-aligned.
const AxisAlignedEpsilon = 0.01

// Shape is a physical-unit obstacle footprint. The set of implementations is
// closed: Rect, RotatedRect, and Circle.
type Shape interface {
	// Bound returns the shape's axis-aligned bounding box in meters.
	Bound() orb.Bound
	fmt.Stringer
	shape()
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Center orb.Point
	Width  float64
	Height float64
}

// RotatedRect is a rectangle rotated counter-clockwise about its center.
type RotatedRect struct {
	Center      orb.Point
	Width       float64
	Height      float64
	RotationDeg float64
}

// Circle is a disk.
type Circle struct {
	Center orb.Point
	Radius float64
}

func (Rect) shape()        {}
func (RotatedRect) shape() {}
func (Circle) shape()      {}

func (r Rect) Bound() orb.Bound {
	hw, hh := r.Width/2, r.Height/2
	return orb.Bound{
		Min: orb.Point{r.Center[0] - hw, r.Center[1] - hh},
		Max: orb.Point{r.Center[0] + hw, r.Center[1] + hh},
	}
}

func (r RotatedRect) Bound() orb.Bound {
	if r.AxisAligned() {
		return Rect{Center: r.Center, Width: r.Width, Height: r.Height}.Bound()
	}
	return r.Corners().Bound()
}

func (c Circle) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{c.Center[0] - c.Radius, c.Center[1] - c.Radius},
		Max: orb.Point{c.Center[0] + c.Radius, c.Center[1] + c.Radius},
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("rect(center=%v, %gx%g)", r.Center, r.Width, r.Height)
}

func (r RotatedRect) String() string {
	return fmt.Sprintf("rect(center=%v, %gx%g, rot=%g°)", r.Center, r.Width, r.Height, r.RotationDeg)
}

func (c Circle) String() string {
	return fmt.Sprintf("circle(center=%v, r=%g)", c.Center, c.Radius)
}

// AxisAligned reports whether the rotation is close enough to 0° or 180° for
// the rectangle to be rasterized as a plain Rect.
func (r RotatedRect) AxisAligned() bool {
	return math.Abs(r.RotationDeg) < AxisAlignedEpsilon ||
		math.Abs(r.RotationDeg-180) < AxisAlignedEpsilon
}

// NewRectangle returns a Rect when rotation is axis-aligned and a RotatedRect otherwise.
func NewRectangle(center orb.Point, width, height, rotationDeg float64) Shape {
	rr := RotatedRect{Center: center, Width: width, Height: height, RotationDeg: rotationDeg}
	if rr.AxisAligned() {
		return Rect{Center: center, Width: width, Height: height}
	}
	return rr
}
