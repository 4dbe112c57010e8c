// Package graph defines the batched graph value type that is threaded
// through every graph-network block. A GraphData holds the features of
// several graphs concatenated along the leading axis, together with the
// connectivity and the per-graph partition of nodes and edges. Values
// are immutable by convention: blocks never mutate a GraphData in
// place, they return a copy sharing every untouched field.
package graph

import (
	"fmt"

	"github.com/tsawler/go-graphnet/tensor"
)

// Field names a GraphData component, used in error reporting.
type Field string

const (
	FieldEdges     Field = "edges"
	FieldNodes     Field = "nodes"
	FieldGlobals   Field = "globals"
	FieldSenders   Field = "senders"
	FieldReceivers Field = "receivers"
)

// GraphData is a batch of graphs. Feature tensors may be nil, meaning
// the field is absent; blocks document which fields they require.
// Senders and receivers index into the global concatenated node array,
// not per-graph-local positions. NNode and NEdge give the per-graph
// partition: graph g owns the next NNode[g] rows of Nodes after the
// rows of the graphs before it, and likewise for edges.
type GraphData struct {
	Edges   *tensor.Tensor // [totalEdges, edgeDim...], or nil
	Nodes   *tensor.Tensor // [totalNodes, nodeDim...], or nil
	Globals *tensor.Tensor // [numGraphs, globalDim...], or nil

	Senders   []int // length totalEdges, values in [0, totalNodes)
	Receivers []int // length totalEdges, values in [0, totalNodes)

	NNode []int // per-graph node counts, sums to totalNodes
	NEdge []int // per-graph edge counts, sums to totalEdges
}

// New builds a GraphData and validates its structural invariants. Any
// of edges, nodes and globals may be nil.
func New(edges, nodes, globals *tensor.Tensor, senders, receivers, nNode, nEdge []int) (*GraphData, error) {
	g := &GraphData{
		Edges:     edges,
		Nodes:     nodes,
		Globals:   globals,
		Senders:   senders,
		Receivers: receivers,
		NNode:     nNode,
		NEdge:     nEdge,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// NumGraphs returns the number of graphs in the batch.
func (g *GraphData) NumGraphs() int {
	return len(g.NNode)
}

// TotalNodes returns the node count summed across the batch.
func (g *GraphData) TotalNodes() int {
	total := 0
	for _, n := range g.NNode {
		total += n
	}
	return total
}

// TotalEdges returns the edge count summed across the batch.
func (g *GraphData) TotalEdges() int {
	total := 0
	for _, n := range g.NEdge {
		total += n
	}
	return total
}

// HasEdges reports whether the edge features are present.
func (g *GraphData) HasEdges() bool { return g.Edges != nil }

// HasNodes reports whether the node features are present.
func (g *GraphData) HasNodes() bool { return g.Nodes != nil }

// HasGlobals reports whether the global features are present.
func (g *GraphData) HasGlobals() bool { return g.Globals != nil }

// Validate checks the structural invariants: partition sums match
// feature row counts, connectivity arrays have one entry per edge, and
// every index is inside the global node range.
func (g *GraphData) Validate() error {
	if len(g.NNode) != len(g.NEdge) {
		return fmt.Errorf("n_node has %d graphs but n_edge has %d", len(g.NNode), len(g.NEdge))
	}
	totalNodes := g.TotalNodes()
	totalEdges := g.TotalEdges()
	if g.Nodes != nil && g.Nodes.Rows() != totalNodes {
		return fmt.Errorf("nodes has %d rows but n_node sums to %d", g.Nodes.Rows(), totalNodes)
	}
	if g.Edges != nil && g.Edges.Rows() != totalEdges {
		return fmt.Errorf("edges has %d rows but n_edge sums to %d", g.Edges.Rows(), totalEdges)
	}
	if g.Globals != nil && g.Globals.Rows() != g.NumGraphs() {
		return fmt.Errorf("globals has %d rows but batch has %d graphs", g.Globals.Rows(), g.NumGraphs())
	}
	if len(g.Senders) != totalEdges {
		return fmt.Errorf("senders has %d entries but n_edge sums to %d", len(g.Senders), totalEdges)
	}
	if len(g.Receivers) != totalEdges {
		return fmt.Errorf("receivers has %d entries but n_edge sums to %d", len(g.Receivers), totalEdges)
	}
	for i, s := range g.Senders {
		if s < 0 || s >= totalNodes {
			return fmt.Errorf("sender %d at edge %d out of range [0, %d)", s, i, totalNodes)
		}
	}
	for i, r := range g.Receivers {
		if r < 0 || r >= totalNodes {
			return fmt.Errorf("receiver %d at edge %d out of range [0, %d)", r, i, totalNodes)
		}
	}
	return nil
}

func (g *GraphData) shallowCopy() *GraphData {
	out := *g
	return &out
}

// ReplaceEdges returns a copy of g with the edge features replaced.
// Every other field is shared with the receiver.
func (g *GraphData) ReplaceEdges(edges *tensor.Tensor) *GraphData {
	out := g.shallowCopy()
	out.Edges = edges
	return out
}

// ReplaceNodes returns a copy of g with the node features replaced.
func (g *GraphData) ReplaceNodes(nodes *tensor.Tensor) *GraphData {
	out := g.shallowCopy()
	out.Nodes = nodes
	return out
}

// ReplaceGlobals returns a copy of g with the global features replaced.
func (g *GraphData) ReplaceGlobals(globals *tensor.Tensor) *GraphData {
	out := g.shallowCopy()
	out.Globals = globals
	return out
}

// EdgeGraphIndex returns, for each edge in the batch, the index of the
// graph it belongs to, derived from the n_edge partition. Order is
// preserved: edges keep their position in the concatenation.
func (g *GraphData) EdgeGraphIndex() []int {
	return partitionIndex(g.NEdge)
}

// NodeGraphIndex returns, for each node in the batch, the index of the
// graph it belongs to, derived from the n_node partition.
func (g *GraphData) NodeGraphIndex() []int {
	return partitionIndex(g.NNode)
}

func partitionIndex(counts []int) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]int, 0, total)
	for graphIdx, c := range counts {
		for i := 0; i < c; i++ {
			out = append(out, graphIdx)
		}
	}
	return out
}
