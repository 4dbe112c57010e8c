// Package blocks implements the building blocks of graph networks:
// broadcast and aggregation primitives plus the edge, node and global
// update blocks they compose into. Every block wraps a user-supplied
// per-entity function and a set of flags selecting which graph fields
// feed it.
package blocks

import (
	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

// UpdateFn is a learned per-entity transformation. It receives a
// [rows, inDim] tensor holding one concatenated input per entity and
// returns a [rows, outDim] tensor. Blocks treat it as a black box
// beyond shape compatibility.
type UpdateFn func(*tensor.Tensor) (*tensor.Tensor, error)

// BroadcastSenderNodesToEdges projects node features onto edges via the
// sender index: output row i is the feature row of edge i's source
// node. Requires nodes and senders.
func BroadcastSenderNodesToEdges(g *graph.GraphData) (*tensor.Tensor, error) {
	if !g.HasNodes() {
		return nil, &graph.MissingFieldError{Block: "BroadcastSenderNodesToEdges", Field: graph.FieldNodes}
	}
	if g.Senders == nil {
		return nil, &graph.MissingFieldError{Block: "BroadcastSenderNodesToEdges", Field: graph.FieldSenders}
	}
	return tensor.Gather(g.Nodes, g.Senders)
}

// BroadcastReceiverNodesToEdges projects node features onto edges via
// the receiver index: output row i is the feature row of edge i's
// destination node. Requires nodes and receivers.
func BroadcastReceiverNodesToEdges(g *graph.GraphData) (*tensor.Tensor, error) {
	if !g.HasNodes() {
		return nil, &graph.MissingFieldError{Block: "BroadcastReceiverNodesToEdges", Field: graph.FieldNodes}
	}
	if g.Receivers == nil {
		return nil, &graph.MissingFieldError{Block: "BroadcastReceiverNodesToEdges", Field: graph.FieldReceivers}
	}
	return tensor.Gather(g.Nodes, g.Receivers)
}

// BroadcastGlobalsToEdges repeats each graph's global feature row
// across all edges belonging to that graph, preserving edge order.
func BroadcastGlobalsToEdges(g *graph.GraphData) (*tensor.Tensor, error) {
	if !g.HasGlobals() {
		return nil, &graph.MissingFieldError{Block: "BroadcastGlobalsToEdges", Field: graph.FieldGlobals}
	}
	return tensor.Gather(g.Globals, g.EdgeGraphIndex())
}

// BroadcastGlobalsToNodes repeats each graph's global feature row
// across all nodes belonging to that graph, preserving node order.
func BroadcastGlobalsToNodes(g *graph.GraphData) (*tensor.Tensor, error) {
	if !g.HasGlobals() {
		return nil, &graph.MissingFieldError{Block: "BroadcastGlobalsToNodes", Field: graph.FieldGlobals}
	}
	return tensor.Gather(g.Globals, g.NodeGraphIndex())
}
