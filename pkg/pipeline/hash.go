package pipeline

import (
	"encoding/json"

	"github.com/mlindgren/flowcanvas/pkg/cache"
	"github.com/mlindgren/flowcanvas/pkg/flow"
	"github.com/mlindgren/flowcanvas/pkg/geom"
	"github.com/mlindgren/flowcanvas/pkg/layout"
)

// GraphHash fingerprints the graph's structure and content. Node positions
// are zeroed before hashing, so applying a computed layout does not change
// the hash; measured sizes stay in, because they feed the layout.
func GraphHash(g *flow.Graph) string {
	doc := flow.FromGraph(g, "")
	for i := range doc.Nodes {
		doc.Nodes[i].Position = geom.Point{}
	}
	data, _ := flow.MarshalDocument(doc)
	return cache.Hash(data)
}

func marshalLayout(res *layout.Result) ([]byte, error) {
	return json.Marshal(res)
}

func unmarshalLayout(data []byte) (*layout.Result, error) {
	var res layout.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
