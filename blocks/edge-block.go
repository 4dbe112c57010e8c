package blocks

import (
	"fmt"

	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

// EdgeBlockOptions selects which inputs the edge model sees. Disabled
// inputs are simply omitted from the concatenation.
type EdgeBlockOptions struct {
	UseEdges         bool
	UseReceiverNodes bool
	UseSenderNodes   bool
	UseGlobals       bool
}

// DefaultEdgeBlockOptions enables every input.
func DefaultEdgeBlockOptions() EdgeBlockOptions {
	return EdgeBlockOptions{
		UseEdges:         true,
		UseReceiverNodes: true,
		UseSenderNodes:   true,
		UseGlobals:       true,
	}
}

// EdgeBlock updates the edge features of a graph. For every edge it
// concatenates, in this fixed order: the previous edge features, the
// receiver node's features, the sender node's features, and the owning
// graph's globals (each term present only if enabled), then applies the
// edge model row-wise.
type EdgeBlock struct {
	model UpdateFn
	opts  EdgeBlockOptions
}

// NewEdgeBlock builds an EdgeBlock. At least one input flag must be
// enabled, otherwise the block has nothing to compute from.
func NewEdgeBlock(model UpdateFn, opts EdgeBlockOptions) (*EdgeBlock, error) {
	if model == nil {
		return nil, &graph.InvalidConfigurationError{Block: "EdgeBlock", Reason: "edge model is nil"}
	}
	if !opts.UseEdges && !opts.UseReceiverNodes && !opts.UseSenderNodes && !opts.UseGlobals {
		return nil, &graph.InvalidConfigurationError{Block: "EdgeBlock", Reason: "every input is disabled"}
	}
	return &EdgeBlock{model: model, opts: opts}, nil
}

// Apply returns g with its edge features replaced by the model output.
// All other fields are passed through unchanged. Fields required by the
// enabled flags must be present or a MissingFieldError is returned.
func (b *EdgeBlock) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	parts := make([]*tensor.Tensor, 0, 4)
	if b.opts.UseEdges {
		if !g.HasEdges() {
			return nil, &graph.MissingFieldError{Block: "EdgeBlock", Field: graph.FieldEdges}
		}
		parts = append(parts, g.Edges)
	}
	if b.opts.UseReceiverNodes {
		t, err := BroadcastReceiverNodesToEdges(g)
		if err != nil {
			return nil, wrapMissing(err, "EdgeBlock")
		}
		parts = append(parts, t)
	}
	if b.opts.UseSenderNodes {
		t, err := BroadcastSenderNodesToEdges(g)
		if err != nil {
			return nil, wrapMissing(err, "EdgeBlock")
		}
		parts = append(parts, t)
	}
	if b.opts.UseGlobals {
		t, err := BroadcastGlobalsToEdges(g)
		if err != nil {
			return nil, wrapMissing(err, "EdgeBlock")
		}
		parts = append(parts, t)
	}
	input, err := tensor.Concat(parts...)
	if err != nil {
		return nil, err
	}
	updated, err := b.model(input)
	if err != nil {
		return nil, fmt.Errorf("edge model failed: %w", err)
	}
	return g.ReplaceEdges(updated), nil
}
