// Package placement places clustered points of interest on an accessible grid.
//
// Each [Category] (charging, pickup, dropoff) is placed in turn by
// [Engine.Place]. Two spacing rules hold across the whole run, not just
// within one category:
//
//   - every accepted cluster center is at least InterClusterSpacing cells
//     from every other center accepted so far, and
//   - every accepted node is at least ClusterSpacing cells from every node
//     accepted so far.
//
// The accepted centers and nodes live in a [State] that the caller creates
// once per run and passes to each category in turn. Because later categories
// see the commitments of earlier ones, the processing order changes the
// output; [DefaultOrder] is the order used by the CLI and the service.
//
// # Algorithm
//
// For one category:
//
//  1. list the accessible cells in row-major order
//  2. shuffle them (Fisher–Yates, run-scoped [Rand])
//  3. accept centers far enough from every center in the state, up to MaxClusters
//  4. for each center, shuffle the accessible cells within
//     InterClusterSpacing/2 of it and accept nodes far enough from every node
//     in the state, up to MaxNodesPerCluster
//  5. drop clusters that received no nodes; their centers stay in the state
//
// # Partial results
//
// Running out of space is not an error. [CategoryResult] reports requested and
// achieved counts so callers can decide whether a shortfall matters.
//
// # Determinism
//
// The same accessible grid, parameters, order, and seed produce the same
// centers and nodes in the same order, and so the same ids.
package placement
