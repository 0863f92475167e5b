// Package raster converts physical-unit shapes into obstacle cells on a grid.
//
// Three shape variants are supported: [Rect] (axis-aligned), [RotatedRect],
// and [Circle]. All dimensions are meters; the grid resolution converts them
// to cells. Marking is a monotone OR over obstacle flags: cells are only ever
// blocked, never reopened, so the order in which shapes are applied does not
// change the result.
//
// Shape validity (positive width, height, radius) is the layout loader's job.
// The rasterizer assumes valid input.
//
// # Axis-aligned rectangles
//
// The cell range is [floor(minX/res), ceil(maxX/res)] × [floor(minY/res),
// ceil(maxY/res)], clamped to the grid and marked inclusively. A rotated
// rectangle whose rotation is within [AxisAlignedEpsilon] of 0° or 180° takes
// the same path to avoid polygon artifacts.
//
// # Rotated rectangles
//
// The four corners are rotated about the center, converted to cell units, and
// every cell in the polygon's bounding box is tested with [geom.PointInRing].
//
// # Circles
//
// Every cell in the inclusive bounding box whose distance to the center
// (both in cell units) is <= the radius in cells is marked.
package raster
