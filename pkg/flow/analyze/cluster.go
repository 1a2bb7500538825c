package analyze

import (
	"maps"
	"slices"

	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
)

// Cluster groups the nodes sharing a BFS rank, with the bounding box of
// their current positions. Clusters are a read-only inspection aid (the
// inspect command, grouping UIs); layout correctness does not depend on
// them.
type Cluster struct {
	Rank    int
	NodeIDs []string
	Bounds  geom.Rect
}

// Clusters returns one cluster per occupied BFS rank, ordered by rank.
// Only nodes reachable from the start node appear; unreachable nodes have
// no rank. Bounding boxes use measured sizes where available.
func Clusters(g *flow.Graph) []Cluster {
	ranks := Ranks(g)
	byRank := make(map[int][]string)
	for _, n := range g.Nodes() {
		rank, ok := ranks[n.ID]
		if !ok {
			continue
		}
		byRank[rank] = append(byRank[rank], n.ID)
	}

	clusters := make([]Cluster, 0, len(byRank))
	for _, rank := range slices.Sorted(maps.Keys(byRank)) {
		c := Cluster{Rank: rank, NodeIDs: byRank[rank]}
		first := true
		for _, id := range c.NodeIDs {
			n, _ := g.Node(id)
			r := geom.RectAt(n.Position, n.SizeOrZero())
			if first {
				c.Bounds = r
				first = false
				continue
			}
			c.Bounds = c.Bounds.Union(r)
		}
		clusters = append(clusters, c)
	}
	return clusters
}
