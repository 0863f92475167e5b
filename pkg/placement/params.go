package placement

import (
	"github.com/matzehuels/fleetmap/pkg/errors"
)

// Params holds the per-category limits. Spacings are in cells.
type Params struct {
	MaxClusters         int `json:"max_clusters" toml:"max_clusters"`
	MaxNodesPerCluster  int `json:"max_nodes_per_cluster" toml:"max_nodes_per_cluster"`
	InterClusterSpacing int `json:"inter_cluster_spacing" toml:"inter_cluster_spacing"`
	ClusterSpacing      int `json:"cluster_spacing" toml:"cluster_spacing"`
}

// Override is a partial Params. Nil fields keep the value they are applied to.
type Override struct {
	MaxClusters         *int `json:"max_clusters,omitempty" toml:"max_clusters"`
	MaxNodesPerCluster  *int `json:"max_nodes_per_cluster,omitempty" toml:"max_nodes_per_cluster"`
	InterClusterSpacing *int `json:"inter_cluster_spacing,omitempty" toml:"inter_cluster_spacing"`
	ClusterSpacing      *int `json:"cluster_spacing,omitempty" toml:"cluster_spacing"`
}

// Apply returns p with every set field of o replaced.
func (o Override) Apply(p Params) Params {
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.MaxClusters, o.MaxClusters)
	set(&p.MaxNodesPerCluster, o.MaxNodesPerCluster)
	set(&p.InterClusterSpacing, o.InterClusterSpacing)
	set(&p.ClusterSpacing, o.ClusterSpacing)
	return p
}

// Requested returns the number of nodes asked for.
func (p Params) Requested() int {
	return p.MaxClusters * p.MaxNodesPerCluster
}

// Validate rejects negative counts and spacings.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    int
	}{
		{"max clusters", p.MaxClusters},
		{"max nodes per cluster", p.MaxNodesPerCluster},
		{"inter-cluster spacing", p.InterClusterSpacing},
		{"cluster spacing", p.ClusterSpacing},
	} {
		if err := errors.ValidateCount(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

// Defaults for the spacing parameters, in cells at 0.1 m per cell.
const (
	DefaultClusterSpacing      = 10
	DefaultInterClusterSpacing = 30
)

// DefaultParams returns the standard warehouse configuration: three charging
// clusters of two, and four pickup and four dropoff clusters of four.
func DefaultParams() map[Category]Params {
	mk := func(clusters, nodes int) Params {
		return Params{
			MaxClusters:         clusters,
			MaxNodesPerCluster:  nodes,
			InterClusterSpacing: DefaultInterClusterSpacing,
			ClusterSpacing:      DefaultClusterSpacing,
		}
	}
	return map[Category]Params{
		Charging: mk(3, 2),
		Pickup:   mk(4, 4),
		Dropoff:  mk(4, 4),
	}
}
