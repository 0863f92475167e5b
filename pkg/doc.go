// Package pkg provides the core libraries for fleetmap warehouse map preparation.
//
// # Overview
//
// fleetmap turns a physical warehouse description into the spatial inputs a
// robot fleet needs: an obstacle grid, the configuration space a disk-shaped
// robot can occupy, and clustered points of interest for charging, pickup,
// and dropoff. The pkg directory is organized into three areas:
//
//  1. Core geometry and algorithms ([geom], [grid], [raster], [cspace], [placement])
//  2. Boundary formats ([layout], [bake], [poi], [config])
//  3. Infrastructure ([pipeline], [cache], [store], [observability], [errors])
//
// # Architecture
//
// The typical data flow:
//
//	Layout JSON or floor plan image
//	         ↓
//	    [layout] / [bake] (parse and validate)
//	         ↓
//	    [raster] (obstacle grid)
//	         ↓
//	    [cspace] (accessible grid)
//	         ↓
//	    [placement] (clustered POIs)
//	         ↓
//	    [poi] document, text/CSV/PNG grids
//
// # Quick Start
//
//	l, _ := layout.Load("warehouse.json")
//	obstacles := l.Rasterize(0.1)
//
//	accessible, report := cspace.Inflate(obstacles, cspace.Params{
//	    RobotRadiusM:    0.3,
//	    ResolutionM:     0.1,
//	    EdgeMarginCells: 10,
//	})
//
//	engine := placement.NewEngine(placement.NewRand(42))
//	results, _ := engine.Generate(accessible, placement.DefaultOrder,
//	    placement.DefaultParams(), placement.NewState())
//
// The [pipeline] Runner wraps these stages with caching and is what the CLI
// and the HTTP API use.
//
// # Testing
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/placement/...       # Specific package
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/geom
// [grid]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/grid
// [raster]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/raster
// [cspace]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/cspace
// [placement]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/placement
// [layout]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/layout
// [bake]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/bake
// [poi]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/poi
// [config]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/config
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/fleetmap/pkg/errors
package pkg
