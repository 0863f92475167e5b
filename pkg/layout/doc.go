// Package layout reads warehouse layout JSON files and turns them into
// rasterizable shapes.
//
// A layout has a floor size in meters, a list of 3D objects (shelves,
// conveyors, stations) and optional 2D prohibited zones, picking zones, and
// robot start positions. Objects are projected top-down: the footprint uses
// center[0] and center[2] as x and y, and dimensions[0] and dimensions[2] as
// width and depth. Objects with model index [ChargingStationModel] are not
// obstacles, since robots must be able to dock at them.
//
// Loading is lenient per entry and strict overall. A malformed object is
// skipped and recorded in [Layout.Errors]; a malformed zone, picking zone, or
// robot is skipped and recorded in [Layout.Warnings]. A layout without a valid
// floor size or without any valid object fails to load.
package layout
