package graph

import (
	"fmt"

	"github.com/tsawler/go-graphnet/tensor"
)

// BipartiteGraphData is a batched graph whose nodes are split into two
// disjoint sets. Senders index into the left node set and receivers
// into the right. Otherwise the contract matches GraphData: feature
// tensors may be nil, per-graph partitions are contiguous, and updates
// are copies sharing untouched fields.
type BipartiteGraphData struct {
	Edges      *tensor.Tensor
	LeftNodes  *tensor.Tensor
	RightNodes *tensor.Tensor
	Globals    *tensor.Tensor

	Senders   []int // length totalEdges, values in [0, totalLeftNodes)
	Receivers []int // length totalEdges, values in [0, totalRightNodes)

	NLeftNode  []int
	NRightNode []int
	NEdge      []int
}

// NumGraphs returns the number of graphs in the batch.
func (g *BipartiteGraphData) NumGraphs() int {
	return len(g.NEdge)
}

// TotalLeftNodes returns the left node count summed across the batch.
func (g *BipartiteGraphData) TotalLeftNodes() int {
	total := 0
	for _, n := range g.NLeftNode {
		total += n
	}
	return total
}

// TotalRightNodes returns the right node count summed across the batch.
func (g *BipartiteGraphData) TotalRightNodes() int {
	total := 0
	for _, n := range g.NRightNode {
		total += n
	}
	return total
}

// TotalEdges returns the edge count summed across the batch.
func (g *BipartiteGraphData) TotalEdges() int {
	total := 0
	for _, n := range g.NEdge {
		total += n
	}
	return total
}

// Validate checks the structural invariants of the bipartite layout.
func (g *BipartiteGraphData) Validate() error {
	if len(g.NLeftNode) != len(g.NEdge) || len(g.NRightNode) != len(g.NEdge) {
		return fmt.Errorf("partition lengths disagree: %d left, %d right, %d edge",
			len(g.NLeftNode), len(g.NRightNode), len(g.NEdge))
	}
	totalLeft := g.TotalLeftNodes()
	totalRight := g.TotalRightNodes()
	totalEdges := g.TotalEdges()
	if g.LeftNodes != nil && g.LeftNodes.Rows() != totalLeft {
		return fmt.Errorf("left nodes has %d rows but partition sums to %d", g.LeftNodes.Rows(), totalLeft)
	}
	if g.RightNodes != nil && g.RightNodes.Rows() != totalRight {
		return fmt.Errorf("right nodes has %d rows but partition sums to %d", g.RightNodes.Rows(), totalRight)
	}
	if g.Edges != nil && g.Edges.Rows() != totalEdges {
		return fmt.Errorf("edges has %d rows but n_edge sums to %d", g.Edges.Rows(), totalEdges)
	}
	if g.Globals != nil && g.Globals.Rows() != g.NumGraphs() {
		return fmt.Errorf("globals has %d rows but batch has %d graphs", g.Globals.Rows(), g.NumGraphs())
	}
	if len(g.Senders) != totalEdges || len(g.Receivers) != totalEdges {
		return fmt.Errorf("connectivity length mismatch: %d senders, %d receivers, %d edges",
			len(g.Senders), len(g.Receivers), totalEdges)
	}
	for i, s := range g.Senders {
		if s < 0 || s >= totalLeft {
			return fmt.Errorf("sender %d at edge %d out of range [0, %d)", s, i, totalLeft)
		}
	}
	for i, r := range g.Receivers {
		if r < 0 || r >= totalRight {
			return fmt.Errorf("receiver %d at edge %d out of range [0, %d)", r, i, totalRight)
		}
	}
	return nil
}

func (g *BipartiteGraphData) shallowCopy() *BipartiteGraphData {
	out := *g
	return &out
}

// ReplaceEdges returns a copy of g with the edge features replaced.
func (g *BipartiteGraphData) ReplaceEdges(edges *tensor.Tensor) *BipartiteGraphData {
	out := g.shallowCopy()
	out.Edges = edges
	return out
}

// ReplaceLeftNodes returns a copy of g with the left node features replaced.
func (g *BipartiteGraphData) ReplaceLeftNodes(nodes *tensor.Tensor) *BipartiteGraphData {
	out := g.shallowCopy()
	out.LeftNodes = nodes
	return out
}

// ReplaceRightNodes returns a copy of g with the right node features replaced.
func (g *BipartiteGraphData) ReplaceRightNodes(nodes *tensor.Tensor) *BipartiteGraphData {
	out := g.shallowCopy()
	out.RightNodes = nodes
	return out
}

// ReplaceGlobals returns a copy of g with the global features replaced.
func (g *BipartiteGraphData) ReplaceGlobals(globals *tensor.Tensor) *BipartiteGraphData {
	out := g.shallowCopy()
	out.Globals = globals
	return out
}
