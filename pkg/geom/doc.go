// Package geom holds the small amount of planar geometry shared by the
// rasterizer, the inflator, and the placement engine.
//
// Two coordinate spaces are in play:
//
//   - Physical space, in meters, represented with [orb.Point]. Layout shapes
//     live here.
//   - Cell space, in integer grid cells, represented with [Cell]. Grids,
//     cluster centers, and POIs live here.
//
// Cell (x, y) is sampled at the point (x, y) in cell units, i.e. the physical
// point (x*res, y*res). Circles and polygons are both tested against that
// sample point, so the two rasterization paths agree on where a cell is.
//
// # Point in polygon
//
// [PointInRing] is an even-odd ray cast toward +x using a half-open rule: an
// edge (p1, p2) is crossed at ordinate y iff
//
//	y > min(p1.y, p2.y) && y <= max(p1.y, p2.y)
//
// so horizontal edges never count, and a ray passing exactly through a shared
// vertex is counted once. A crossing counts when the test abscissa is <= the
// interpolated intersection. For an axis-aligned square this makes the
// boundary half-open: the top and right edges are inside, the bottom and left
// edges are outside.
package geom
