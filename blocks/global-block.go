package blocks

import (
	"fmt"

	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

// GlobalBlockOptions selects which inputs the global model sees and
// which reducers fold a graph's edges and nodes into one row each. Nil
// reducers default to tensor.SegmentSum at construction.
type GlobalBlockOptions struct {
	UseEdges   bool
	UseNodes   bool
	UseGlobals bool

	EdgesReducer tensor.Reducer
	NodesReducer tensor.Reducer
}

// DefaultGlobalBlockOptions enables every input with sum reducers.
func DefaultGlobalBlockOptions() GlobalBlockOptions {
	return GlobalBlockOptions{
		UseEdges:   true,
		UseNodes:   true,
		UseGlobals: true,
	}
}

// GlobalBlock updates the per-graph global features. For every graph it
// concatenates, in this fixed order: the aggregated edges, the
// aggregated nodes, and the previous globals (each term present only if
// enabled), then applies the global model row-wise.
type GlobalBlock struct {
	model UpdateFn
	opts  GlobalBlockOptions
}

// NewGlobalBlock builds a GlobalBlock. At least one input flag must be
// enabled.
func NewGlobalBlock(model UpdateFn, opts GlobalBlockOptions) (*GlobalBlock, error) {
	if model == nil {
		return nil, &graph.InvalidConfigurationError{Block: "GlobalBlock", Reason: "global model is nil"}
	}
	if !opts.UseEdges && !opts.UseNodes && !opts.UseGlobals {
		return nil, &graph.InvalidConfigurationError{Block: "GlobalBlock", Reason: "every input is disabled"}
	}
	if opts.EdgesReducer == nil {
		opts.EdgesReducer = tensor.SegmentSum
	}
	if opts.NodesReducer == nil {
		opts.NodesReducer = tensor.SegmentSum
	}
	return &GlobalBlock{model: model, opts: opts}, nil
}

// Apply returns g with its global features replaced by the model
// output. All other fields are passed through unchanged.
func (b *GlobalBlock) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	parts := make([]*tensor.Tensor, 0, 3)
	if b.opts.UseEdges {
		t, err := EdgesToGlobals(g, b.opts.EdgesReducer)
		if err != nil {
			return nil, wrapMissing(err, "GlobalBlock")
		}
		parts = append(parts, t)
	}
	if b.opts.UseNodes {
		t, err := NodesToGlobals(g, b.opts.NodesReducer)
		if err != nil {
			return nil, wrapMissing(err, "GlobalBlock")
		}
		parts = append(parts, t)
	}
	if b.opts.UseGlobals {
		if !g.HasGlobals() {
			return nil, &graph.MissingFieldError{Block: "GlobalBlock", Field: graph.FieldGlobals}
		}
		parts = append(parts, g.Globals)
	}
	input, err := tensor.Concat(parts...)
	if err != nil {
		return nil, err
	}
	updated, err := b.model(input)
	if err != nil {
		return nil, fmt.Errorf("global model failed: %w", err)
	}
	return g.ReplaceGlobals(updated), nil
}
