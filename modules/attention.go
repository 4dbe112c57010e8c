package modules

import (
	"fmt"

	"github.com/tsawler/go-graphnet/blocks"
	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

// receivedEdgesSoftmax normalizes per-edge scores across all edges
// received by the same node. Nodes with no incoming edges form empty
// segments; the softmax's zero-denominator guard keeps them at zero.
func receivedEdgesSoftmax(scores *tensor.Tensor, g *graph.GraphData) (*tensor.Tensor, error) {
	return tensor.SegmentSoftmax(scores, g.Receivers, g.TotalNodes())
}

// SelfAttention is multi-head dot-product attention over the edges of a
// connectivity graph: each receiver node attends to the nodes sending
// to it. Values, keys and queries are supplied directly, shaped
// [totalNodes, numHeads, dim], with key and query dims equal. The
// output graph's nodes hold the aggregated attended values, shaped
// [totalNodes, numHeads, valueDim]; a node receiving no edges gets the
// zero vector regardless of its prior value.
type SelfAttention struct{}

// NewSelfAttention creates a SelfAttention module.
func NewSelfAttention() *SelfAttention {
	return &SelfAttention{}
}

// Apply computes the attention update on the connectivity of g.
func (sa *SelfAttention) Apply(values, keys, queries *tensor.Tensor, g *graph.GraphData) (*graph.GraphData, error) {
	if g.Senders == nil {
		return nil, &graph.MissingFieldError{Block: "SelfAttention", Field: graph.FieldSenders}
	}
	if g.Receivers == nil {
		return nil, &graph.MissingFieldError{Block: "SelfAttention", Field: graph.FieldReceivers}
	}
	if !tensor.ShapesEqual(keys.Shape, queries.Shape) {
		return nil, &tensor.ShapeMismatchError{Op: "SelfAttention", Want: keys.Shape, Got: queries.Shape}
	}

	// Sender nodes put their keys and values on the edges; receiver
	// nodes put their queries there.
	senderKeys, err := tensor.Gather(keys, g.Senders)
	if err != nil {
		return nil, err
	}
	senderValues, err := tensor.Gather(values, g.Senders)
	if err != nil {
		return nil, err
	}
	receiverQueries, err := tensor.Gather(queries, g.Receivers)
	if err != nil {
		return nil, err
	}

	// [totalEdges, numHeads]
	logits, err := tensor.DotLastAxis(senderKeys, receiverQueries)
	if err != nil {
		return nil, err
	}
	weights, err := receivedEdgesSoftmax(logits, g)
	if err != nil {
		return nil, err
	}

	attended, err := tensor.ScaleRows(senderValues, weights)
	if err != nil {
		return nil, err
	}
	aggregated, err := tensor.SegmentSum(attended, g.Receivers, g.TotalNodes())
	if err != nil {
		return nil, err
	}
	return g.ReplaceNodes(aggregated), nil
}

// batchApply flattens every axis but the last into rows, applies fn,
// and restores the leading axes. A [*, 1] output has its trailing axis
// squeezed away.
func batchApply(fn blocks.UpdateFn, t *tensor.Tensor) (*tensor.Tensor, error) {
	nd := len(t.Shape)
	if nd < 2 {
		return nil, fmt.Errorf("batchApply requires at least 2 axes, got shape %v", t.Shape)
	}
	outer := 1
	for _, dim := range t.Shape[:nd-1] {
		outer *= dim
	}
	flat, err := tensor.Reshape(t, []int{outer, t.Shape[nd-1]})
	if err != nil {
		return nil, err
	}
	out, err := fn(flat)
	if err != nil {
		return nil, err
	}
	leading := t.Shape[:nd-1]
	if out.Shape[len(out.Shape)-1] == 1 {
		return tensor.Reshape(out, leading)
	}
	shape := make([]int, 0, nd)
	shape = append(shape, leading...)
	shape = append(shape, out.Shape[len(out.Shape)-1])
	return tensor.Reshape(out, shape)
}

// NodeAttention is multi-head graph attention for graphs without edge
// features. A single projection maps each node to fused queries, keys
// and values, which are split per head; attention scores come from a
// learned scorer over concatenated sender keys and receiver queries
// instead of a plain dot product. The aggregated heads are concatenated
// and passed through a final node model. Updates nodes only.
type NodeAttention struct {
	projection blocks.UpdateFn // [N, d] -> [N, numHeads*(2*keySize+valueSize)]
	scorer     blocks.UpdateFn // [rows, 2*keySize] -> [rows, 1]
	nodeModel  blocks.UpdateFn // [N, numHeads*valueSize] -> [N, outDim]

	numHeads  int
	keySize   int
	valueSize int
}

// NewNodeAttention builds a NodeAttention module.
func NewNodeAttention(projection, scorer, nodeModel blocks.UpdateFn, numHeads, keySize, valueSize int) (*NodeAttention, error) {
	if projection == nil || scorer == nil || nodeModel == nil {
		return nil, &graph.InvalidConfigurationError{Block: "NodeAttention", Reason: "projection, scorer and node model are all required"}
	}
	if numHeads <= 0 || keySize <= 0 || valueSize <= 0 {
		return nil, &graph.InvalidConfigurationError{
			Block:  "NodeAttention",
			Reason: fmt.Sprintf("head geometry must be positive, got heads=%d key=%d value=%d", numHeads, keySize, valueSize),
		}
	}
	return &NodeAttention{
		projection: projection,
		scorer:     scorer,
		nodeModel:  nodeModel,
		numHeads:   numHeads,
		keySize:    keySize,
		valueSize:  valueSize,
	}, nil
}

// Apply computes the attention update. Requires nodes, senders and
// receivers.
func (na *NodeAttention) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	if !g.HasNodes() {
		return nil, &graph.MissingFieldError{Block: "NodeAttention", Field: graph.FieldNodes}
	}

	qkvFlat, err := na.projection(g.Nodes)
	if err != nil {
		return nil, err
	}
	qkvSize := 2*na.keySize + na.valueSize
	qkv, err := tensor.Reshape(qkvFlat, []int{g.TotalNodes(), na.numHeads, qkvSize})
	if err != nil {
		return nil, err
	}
	split, err := tensor.SplitLastAxis(qkv, []int{na.keySize, na.keySize, na.valueSize})
	if err != nil {
		return nil, err
	}
	queries, keys, values := split[0], split[1], split[2]

	senderKeys, err := tensor.Gather(keys, g.Senders)
	if err != nil {
		return nil, err
	}
	senderValues, err := tensor.Gather(values, g.Senders)
	if err != nil {
		return nil, err
	}
	receiverQueries, err := tensor.Gather(queries, g.Receivers)
	if err != nil {
		return nil, err
	}

	// [totalEdges, numHeads, 2*keySize] -> [totalEdges, numHeads]
	scoreInput, err := tensor.Concat(senderKeys, receiverQueries)
	if err != nil {
		return nil, err
	}
	logits, err := batchApply(na.scorer, scoreInput)
	if err != nil {
		return nil, err
	}
	weights, err := receivedEdgesSoftmax(logits, g)
	if err != nil {
		return nil, err
	}

	attended, err := tensor.ScaleRows(senderValues, weights)
	if err != nil {
		return nil, err
	}
	aggregated, err := tensor.SegmentSum(attended, g.Receivers, g.TotalNodes())
	if err != nil {
		return nil, err
	}
	heads, err := tensor.Reshape(aggregated, []int{g.TotalNodes(), na.numHeads * na.valueSize})
	if err != nil {
		return nil, err
	}
	nodes, err := na.nodeModel(heads)
	if err != nil {
		return nil, err
	}
	return g.ReplaceNodes(nodes), nil
}

// EdgeAttentionOptions configures an EdgeAttention module. Edge, when
// set, overrides the edge block's input flags; sender broadcasting must
// stay enabled since the attention keys and values are derived from
// edges built out of sender features. Global, when set, appends a
// GlobalBlock update after the attention step.
type EdgeAttentionOptions struct {
	NumHeads  int
	KeySize   int
	ValueSize int

	Edge   *blocks.EdgeBlockOptions
	Global *blocks.GlobalBlockOptions

	// GlobalModel enables the trailing GlobalBlock when non-nil.
	GlobalModel blocks.UpdateFn
}

// EdgeAttention is multi-head graph attention for graphs with edge
// features. An EdgeBlock first recomputes edge features; those are
// projected into per-head keys and values while node features are
// projected into queries. Scores, normalization and aggregation follow
// NodeAttention. Updates edges and nodes, plus globals when a global
// model is configured.
type EdgeAttention struct {
	nodeProjection blocks.UpdateFn // [N, d] -> [N, numHeads*keySize]
	edgeProjection blocks.UpdateFn // [E, e] -> [E, numHeads*(keySize+valueSize)]
	scorer         blocks.UpdateFn
	nodeModel      blocks.UpdateFn

	edgeBlock   *blocks.EdgeBlock
	globalBlock *blocks.GlobalBlock

	numHeads  int
	keySize   int
	valueSize int
}

// NewEdgeAttention builds an EdgeAttention module.
func NewEdgeAttention(nodeProjection, edgeProjection, scorer blocks.UpdateFn, edgeModel, nodeModel blocks.UpdateFn, opts EdgeAttentionOptions) (*EdgeAttention, error) {
	if nodeProjection == nil || edgeProjection == nil || scorer == nil || nodeModel == nil {
		return nil, &graph.InvalidConfigurationError{Block: "EdgeAttention", Reason: "projections, scorer and node model are all required"}
	}
	if opts.NumHeads <= 0 || opts.KeySize <= 0 || opts.ValueSize <= 0 {
		return nil, &graph.InvalidConfigurationError{
			Block:  "EdgeAttention",
			Reason: fmt.Sprintf("head geometry must be positive, got heads=%d key=%d value=%d", opts.NumHeads, opts.KeySize, opts.ValueSize),
		}
	}
	edgeOpts := blocks.DefaultEdgeBlockOptions()
	if opts.Edge != nil {
		edgeOpts = *opts.Edge
	}
	if !edgeOpts.UseSenderNodes {
		return nil, &graph.InvalidConfigurationError{Block: "EdgeAttention", Reason: "edge-conditioned attention requires sender node broadcasting"}
	}
	edgeBlock, err := blocks.NewEdgeBlock(edgeModel, edgeOpts)
	if err != nil {
		return nil, err
	}
	var globalBlock *blocks.GlobalBlock
	if opts.GlobalModel != nil {
		globalOpts := blocks.DefaultGlobalBlockOptions()
		if opts.Global != nil {
			globalOpts = *opts.Global
		}
		globalBlock, err = blocks.NewGlobalBlock(opts.GlobalModel, globalOpts)
		if err != nil {
			return nil, err
		}
	}
	return &EdgeAttention{
		nodeProjection: nodeProjection,
		edgeProjection: edgeProjection,
		scorer:         scorer,
		nodeModel:      nodeModel,
		edgeBlock:      edgeBlock,
		globalBlock:    globalBlock,
		numHeads:       opts.NumHeads,
		keySize:        opts.KeySize,
		valueSize:      opts.ValueSize,
	}, nil
}

// Apply computes the edge update then the attention update. Requires
// nodes plus whatever fields the edge block's flags demand.
func (ea *EdgeAttention) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	if !g.HasNodes() {
		return nil, &graph.MissingFieldError{Block: "EdgeAttention", Field: graph.FieldNodes}
	}
	withEdges, err := ea.edgeBlock.Apply(g)
	if err != nil {
		return nil, err
	}

	queriesFlat, err := ea.nodeProjection(g.Nodes)
	if err != nil {
		return nil, err
	}
	queries, err := tensor.Reshape(queriesFlat, []int{g.TotalNodes(), ea.numHeads, ea.keySize})
	if err != nil {
		return nil, err
	}

	kvFlat, err := ea.edgeProjection(withEdges.Edges)
	if err != nil {
		return nil, err
	}
	kv, err := tensor.Reshape(kvFlat, []int{g.TotalEdges(), ea.numHeads, ea.keySize + ea.valueSize})
	if err != nil {
		return nil, err
	}
	split, err := tensor.SplitLastAxis(kv, []int{ea.keySize, ea.valueSize})
	if err != nil {
		return nil, err
	}
	keys, values := split[0], split[1]

	receiverQueries, err := tensor.Gather(queries, g.Receivers)
	if err != nil {
		return nil, err
	}
	scoreInput, err := tensor.Concat(keys, receiverQueries)
	if err != nil {
		return nil, err
	}
	logits, err := batchApply(ea.scorer, scoreInput)
	if err != nil {
		return nil, err
	}
	weights, err := receivedEdgesSoftmax(logits, g)
	if err != nil {
		return nil, err
	}

	attended, err := tensor.ScaleRows(values, weights)
	if err != nil {
		return nil, err
	}
	aggregated, err := tensor.SegmentSum(attended, g.Receivers, g.TotalNodes())
	if err != nil {
		return nil, err
	}
	heads, err := tensor.Reshape(aggregated, []int{g.TotalNodes(), ea.numHeads * ea.valueSize})
	if err != nil {
		return nil, err
	}
	nodes, err := ea.nodeModel(heads)
	if err != nil {
		return nil, err
	}

	out := withEdges.ReplaceNodes(nodes)
	if ea.globalBlock != nil {
		return ea.globalBlock.Apply(out)
	}
	return out, nil
}
