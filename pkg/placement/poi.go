package placement

import (
	"fmt"

	"github.com/matzehuels/fleetmap/pkg/geom"
)

// POI is a single named point of interest.
type POI struct {
	ID            string    `json:"id"`
	Category      Category  `json:"type"`
	Position      geom.Cell `json:"position"`
	Active        bool      `json:"active"`
	ClusterCenter geom.Cell `json:"cluster_center"`
}

// AssignIDs flattens results into POIs. Each category has its own counter,
// so ids are C0, C1, … for charging, PU0, PU1, … for pickup and DO0, DO1, …
// for dropoff, numbered in acceptance order.
func AssignIDs(results []CategoryResult) []POI {
	counters := map[Category]int{}
	var out []POI
	for _, r := range results {
		for _, cl := range r.Clusters {
			for _, n := range cl.Nodes {
				id := fmt.Sprintf("%s%d", r.Category.Prefix(), counters[r.Category])
				counters[r.Category]++
				out = append(out, POI{
					ID:            id,
					Category:      r.Category,
					Position:      n,
					Active:        true,
					ClusterCenter: cl.Center,
				})
			}
		}
	}
	return out
}
