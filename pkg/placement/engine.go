package placement

import (
	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/geom"
	"github.com/matzehuels/fleetmap/pkg/grid"
)

// State accumulates what a run has committed to so far. Create one per run
// with NewState and pass the same pointer to every category.
type State struct {
	// Centers holds every accepted cluster center, including those of
	// clusters dropped for having no nodes.
	Centers []geom.Cell
	// Positions holds every accepted node.
	Positions []geom.Cell
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Cluster is a group of nodes placed around a center.
type Cluster struct {
	Category Category    `json:"category"`
	Center   geom.Cell   `json:"center"`
	Nodes    []geom.Cell `json:"nodes"`
}

// CategoryResult is the outcome of placing one category.
type CategoryResult struct {
	Category             Category  `json:"category"`
	Clusters             []Cluster `json:"clusters"`
	RequestedClusters    int       `json:"requested_clusters"`
	AchievedClusters     int       `json:"achieved_clusters"`
	RequestedNodes       int       `json:"requested_nodes"`
	AchievedNodes        int       `json:"achieved_nodes"`
	EmptyClustersDropped int       `json:"empty_clusters_dropped"`
	// Exhausted is set when a scan stopped because the engine's budget ran out.
	Exhausted bool `json:"budget_exhausted,omitempty"`
}

// Shortfall reports whether fewer clusters or nodes were placed than requested.
func (r CategoryResult) Shortfall() bool {
	return r.AchievedClusters < r.RequestedClusters || r.AchievedNodes < r.RequestedNodes
}

// Engine places clusters. It is not safe for concurrent use because it
// draws from a single Rand.
type Engine struct {
	rand Rand

	// Budget caps how many candidates a single scan examines. Zero means
	// no limit. For a fixed budget the outcome is still deterministic.
	Budget int
}

// NewEngine returns an engine drawing from r.
func NewEngine(r Rand) *Engine {
	return &Engine{rand: r}
}

// Place runs the placement algorithm for one category on the accessible grid
// g, committing accepted centers and nodes to s.
func (e *Engine) Place(g *grid.Grid, cat Category, p Params, s *State) CategoryResult {
	res := CategoryResult{
		Category:          cat,
		Clusters:          []Cluster{},
		RequestedClusters: p.MaxClusters,
		RequestedNodes:    p.Requested(),
	}
	if p.MaxClusters <= 0 {
		return res
	}

	candidates := g.Cells()
	Shuffle(e.rand, candidates)

	var centers []geom.Cell
	for i, c := range candidates {
		if len(centers) >= p.MaxClusters {
			break
		}
		if e.Budget > 0 && i >= e.Budget {
			res.Exhausted = true
			break
		}
		if !g.AtCell(c) || !geom.FarFromAll(c, s.Centers, p.InterClusterSpacing) {
			continue
		}
		centers = append(centers, c)
		s.Centers = append(s.Centers, c)
	}

	for _, center := range centers {
		nodes, exhausted := e.populate(g, center, p, s)
		res.Exhausted = res.Exhausted || exhausted
		if len(nodes) == 0 {
			res.EmptyClustersDropped++
			continue
		}
		res.Clusters = append(res.Clusters, Cluster{Category: cat, Center: center, Nodes: nodes})
		res.AchievedNodes += len(nodes)
	}
	res.AchievedClusters = len(res.Clusters)
	return res
}

func (e *Engine) populate(g *grid.Grid, center geom.Cell, p Params, s *State) ([]geom.Cell, bool) {
	if p.MaxNodesPerCluster <= 0 {
		return nil, false
	}
	region := g.Region(center, p.InterClusterSpacing/2)
	Shuffle(e.rand, region)

	var nodes []geom.Cell
	for i, c := range region {
		if len(nodes) >= p.MaxNodesPerCluster {
			break
		}
		if e.Budget > 0 && i >= e.Budget {
			return nodes, true
		}
		if !g.AtCell(c) || !geom.FarFromAll(c, s.Positions, p.ClusterSpacing) {
			continue
		}
		nodes = append(nodes, c)
		s.Positions = append(s.Positions, c)
	}
	return nodes, false
}

// Generate places every category in order. Every category in order must have
// an entry in params.
func (e *Engine) Generate(g *grid.Grid, order []Category, params map[Category]Params, s *State) ([]CategoryResult, error) {
	seen := make(map[Category]bool, len(order))
	for _, c := range order {
		if !c.Valid() {
			return nil, errors.New(errors.ErrCodeInvalidCategory, "invalid category %d", int(c))
		}
		if seen[c] {
			return nil, errors.New(errors.ErrCodeInvalidCategory, "category %s listed twice", c)
		}
		seen[c] = true
		p, ok := params[c]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "no parameters for category %s", c)
		}
		if err := p.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s parameters", c)
		}
	}

	results := make([]CategoryResult, 0, len(order))
	for _, c := range order {
		results = append(results, e.Place(g, c, params[c], s))
	}
	return results, nil
}
