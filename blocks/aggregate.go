package blocks

import (
	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

// ReceivedEdgesToNodes reduces edge features onto nodes, grouping edges
// by their receiver: output row n is the reduction over every edge for
// which node n is the destination. Nodes receiving no edges get the
// reducer's identity row. Requires edges and receivers.
func ReceivedEdgesToNodes(g *graph.GraphData, reduce tensor.Reducer) (*tensor.Tensor, error) {
	if !g.HasEdges() {
		return nil, &graph.MissingFieldError{Block: "ReceivedEdgesToNodes", Field: graph.FieldEdges}
	}
	if g.Receivers == nil {
		return nil, &graph.MissingFieldError{Block: "ReceivedEdgesToNodes", Field: graph.FieldReceivers}
	}
	return reduce(g.Edges, g.Receivers, g.TotalNodes())
}

// SentEdgesToNodes reduces edge features onto nodes, grouping edges by
// their sender. Requires edges and senders.
func SentEdgesToNodes(g *graph.GraphData, reduce tensor.Reducer) (*tensor.Tensor, error) {
	if !g.HasEdges() {
		return nil, &graph.MissingFieldError{Block: "SentEdgesToNodes", Field: graph.FieldEdges}
	}
	if g.Senders == nil {
		return nil, &graph.MissingFieldError{Block: "SentEdgesToNodes", Field: graph.FieldSenders}
	}
	return reduce(g.Edges, g.Senders, g.TotalNodes())
}

// EdgesToGlobals reduces edge features onto per-graph globals, grouping
// edges by the graph they belong to. Requires edges.
func EdgesToGlobals(g *graph.GraphData, reduce tensor.Reducer) (*tensor.Tensor, error) {
	if !g.HasEdges() {
		return nil, &graph.MissingFieldError{Block: "EdgesToGlobals", Field: graph.FieldEdges}
	}
	return reduce(g.Edges, g.EdgeGraphIndex(), g.NumGraphs())
}

// NodesToGlobals reduces node features onto per-graph globals, grouping
// nodes by the graph they belong to. Requires nodes.
func NodesToGlobals(g *graph.GraphData, reduce tensor.Reducer) (*tensor.Tensor, error) {
	if !g.HasNodes() {
		return nil, &graph.MissingFieldError{Block: "NodesToGlobals", Field: graph.FieldNodes}
	}
	return reduce(g.Nodes, g.NodeGraphIndex(), g.NumGraphs())
}
