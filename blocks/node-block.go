package blocks

import (
	"fmt"

	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

// NodeBlockOptions selects which inputs the node model sees and which
// reducers fold incident edges into per-node rows. Nil reducers default
// to tensor.SegmentSum at construction.
type NodeBlockOptions struct {
	UseReceivedEdges bool
	UseSentEdges     bool
	UseNodes         bool
	UseGlobals       bool

	ReceivedEdgesReducer tensor.Reducer
	SentEdgesReducer     tensor.Reducer
}

// DefaultNodeBlockOptions enables received edges, nodes and globals,
// leaving sent edges off, with sum reducers.
func DefaultNodeBlockOptions() NodeBlockOptions {
	return NodeBlockOptions{
		UseReceivedEdges: true,
		UseSentEdges:     false,
		UseNodes:         true,
		UseGlobals:       true,
	}
}

// NodeBlock updates the node features of a graph. For every node it
// concatenates, in this fixed order: the aggregated received edges, the
// aggregated sent edges, the previous node features, and the owning
// graph's globals (each term present only if enabled), then applies the
// node model row-wise.
type NodeBlock struct {
	model UpdateFn
	opts  NodeBlockOptions
}

// NewNodeBlock builds a NodeBlock. At least one input flag must be
// enabled.
func NewNodeBlock(model UpdateFn, opts NodeBlockOptions) (*NodeBlock, error) {
	if model == nil {
		return nil, &graph.InvalidConfigurationError{Block: "NodeBlock", Reason: "node model is nil"}
	}
	if !opts.UseReceivedEdges && !opts.UseSentEdges && !opts.UseNodes && !opts.UseGlobals {
		return nil, &graph.InvalidConfigurationError{Block: "NodeBlock", Reason: "every input is disabled"}
	}
	if opts.ReceivedEdgesReducer == nil {
		opts.ReceivedEdgesReducer = tensor.SegmentSum
	}
	if opts.SentEdgesReducer == nil {
		opts.SentEdgesReducer = tensor.SegmentSum
	}
	return &NodeBlock{model: model, opts: opts}, nil
}

// Apply returns g with its node features replaced by the model output.
// All other fields are passed through unchanged.
func (b *NodeBlock) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	parts := make([]*tensor.Tensor, 0, 4)
	if b.opts.UseReceivedEdges {
		t, err := ReceivedEdgesToNodes(g, b.opts.ReceivedEdgesReducer)
		if err != nil {
			return nil, wrapMissing(err, "NodeBlock")
		}
		parts = append(parts, t)
	}
	if b.opts.UseSentEdges {
		t, err := SentEdgesToNodes(g, b.opts.SentEdgesReducer)
		if err != nil {
			return nil, wrapMissing(err, "NodeBlock")
		}
		parts = append(parts, t)
	}
	if b.opts.UseNodes {
		if !g.HasNodes() {
			return nil, &graph.MissingFieldError{Block: "NodeBlock", Field: graph.FieldNodes}
		}
		parts = append(parts, g.Nodes)
	}
	if b.opts.UseGlobals {
		t, err := BroadcastGlobalsToNodes(g)
		if err != nil {
			return nil, wrapMissing(err, "NodeBlock")
		}
		parts = append(parts, t)
	}
	input, err := tensor.Concat(parts...)
	if err != nil {
		return nil, err
	}
	updated, err := b.model(input)
	if err != nil {
		return nil, fmt.Errorf("node model failed: %w", err)
	}
	return g.ReplaceNodes(updated), nil
}

// wrapMissing rewrites a MissingFieldError raised by a primitive so the
// error names the block the caller configured rather than the helper.
func wrapMissing(err error, block string) error {
	if mfe, ok := err.(*graph.MissingFieldError); ok {
		return &graph.MissingFieldError{Block: block, Field: mfe.Field}
	}
	return err
}
