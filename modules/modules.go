// Package modules provides graph-network architectures assembled from
// the update blocks in package blocks: the general GraphNetwork plus
// the named compositions from the literature (interaction networks,
// relation networks, deep sets, CommNet, and attention variants).
//
// Every module consumes a *graph.GraphData and returns a new one. The
// connectivity and partition fields (senders, receivers, n_node,
// n_edge) are always passed through untouched; each module documents
// which feature fields it updates.
package modules

import (
	"github.com/tsawler/go-graphnet/blocks"
	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

// GraphNetworkOptions configures the three blocks of a GraphNetwork.
// Reducer is the default aggregation used wherever a block option does
// not name its own; nil means segment sum. Nil block options take the
// fully-connected defaults.
type GraphNetworkOptions struct {
	Reducer tensor.Reducer
	Edge    *blocks.EdgeBlockOptions
	Node    *blocks.NodeBlockOptions
	Global  *blocks.GlobalBlockOptions
}

// GraphNetwork is the full graph-network update step: an EdgeBlock
// followed by a NodeBlock followed by a GlobalBlock, each fully
// connected by default. With the default options it updates edges,
// nodes and globals and requires all three to be present.
type GraphNetwork struct {
	edgeBlock   *blocks.EdgeBlock
	nodeBlock   *blocks.NodeBlock
	globalBlock *blocks.GlobalBlock
}

// NewGraphNetwork builds a GraphNetwork from three per-entity models.
func NewGraphNetwork(edgeModel, nodeModel, globalModel blocks.UpdateFn, opts GraphNetworkOptions) (*GraphNetwork, error) {
	reducer := opts.Reducer
	if reducer == nil {
		reducer = tensor.SegmentSum
	}

	edgeOpts := blocks.DefaultEdgeBlockOptions()
	if opts.Edge != nil {
		edgeOpts = *opts.Edge
	}
	nodeOpts := blocks.DefaultNodeBlockOptions()
	if opts.Node != nil {
		nodeOpts = *opts.Node
	}
	if nodeOpts.ReceivedEdgesReducer == nil {
		nodeOpts.ReceivedEdgesReducer = reducer
	}
	if nodeOpts.SentEdgesReducer == nil {
		nodeOpts.SentEdgesReducer = reducer
	}
	globalOpts := blocks.DefaultGlobalBlockOptions()
	if opts.Global != nil {
		globalOpts = *opts.Global
	}
	if globalOpts.EdgesReducer == nil {
		globalOpts.EdgesReducer = reducer
	}
	if globalOpts.NodesReducer == nil {
		globalOpts.NodesReducer = reducer
	}

	edgeBlock, err := blocks.NewEdgeBlock(edgeModel, edgeOpts)
	if err != nil {
		return nil, err
	}
	nodeBlock, err := blocks.NewNodeBlock(nodeModel, nodeOpts)
	if err != nil {
		return nil, err
	}
	globalBlock, err := blocks.NewGlobalBlock(globalModel, globalOpts)
	if err != nil {
		return nil, err
	}
	return &GraphNetwork{edgeBlock: edgeBlock, nodeBlock: nodeBlock, globalBlock: globalBlock}, nil
}

// Apply runs the edge, node and global updates in sequence.
func (gn *GraphNetwork) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	out, err := gn.edgeBlock.Apply(g)
	if err != nil {
		return nil, err
	}
	out, err = gn.nodeBlock.Apply(out)
	if err != nil {
		return nil, err
	}
	return gn.globalBlock.Apply(out)
}

// GraphIndependent applies three per-entity models to the edges, nodes
// and globals independently, with no broadcast or aggregation between
// entities. A nil model passes its field through unchanged; a non-nil
// model requires its field to be present. Useful as an encoder or
// decoder around message-passing steps.
type GraphIndependent struct {
	edgeModel   blocks.UpdateFn
	nodeModel   blocks.UpdateFn
	globalModel blocks.UpdateFn
}

// NewGraphIndependent builds a GraphIndependent. All models are
// optional, but at least one must be non-nil.
func NewGraphIndependent(edgeModel, nodeModel, globalModel blocks.UpdateFn) (*GraphIndependent, error) {
	if edgeModel == nil && nodeModel == nil && globalModel == nil {
		return nil, &graph.InvalidConfigurationError{Block: "GraphIndependent", Reason: "every model is nil"}
	}
	return &GraphIndependent{edgeModel: edgeModel, nodeModel: nodeModel, globalModel: globalModel}, nil
}

// Apply updates each feature field with its model, independently.
func (gi *GraphIndependent) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	out := g
	if gi.edgeModel != nil {
		if !g.HasEdges() {
			return nil, &graph.MissingFieldError{Block: "GraphIndependent", Field: graph.FieldEdges}
		}
		edges, err := gi.edgeModel(g.Edges)
		if err != nil {
			return nil, err
		}
		out = out.ReplaceEdges(edges)
	}
	if gi.nodeModel != nil {
		if !g.HasNodes() {
			return nil, &graph.MissingFieldError{Block: "GraphIndependent", Field: graph.FieldNodes}
		}
		nodes, err := gi.nodeModel(g.Nodes)
		if err != nil {
			return nil, err
		}
		out = out.ReplaceNodes(nodes)
	}
	if gi.globalModel != nil {
		if !g.HasGlobals() {
			return nil, &graph.MissingFieldError{Block: "GraphIndependent", Field: graph.FieldGlobals}
		}
		globals, err := gi.globalModel(g.Globals)
		if err != nil {
			return nil, err
		}
		out = out.ReplaceGlobals(globals)
	}
	return out, nil
}

// BipartiteGraphIndependent is GraphIndependent over a bipartite graph:
// independent models for edges, left nodes, right nodes and globals.
type BipartiteGraphIndependent struct {
	edgeModel      blocks.UpdateFn
	leftNodeModel  blocks.UpdateFn
	rightNodeModel blocks.UpdateFn
	globalModel    blocks.UpdateFn
}

// NewBipartiteGraphIndependent builds a BipartiteGraphIndependent. All
// models are optional, but at least one must be non-nil.
func NewBipartiteGraphIndependent(edgeModel, leftNodeModel, rightNodeModel, globalModel blocks.UpdateFn) (*BipartiteGraphIndependent, error) {
	if edgeModel == nil && leftNodeModel == nil && rightNodeModel == nil && globalModel == nil {
		return nil, &graph.InvalidConfigurationError{Block: "BipartiteGraphIndependent", Reason: "every model is nil"}
	}
	return &BipartiteGraphIndependent{
		edgeModel:      edgeModel,
		leftNodeModel:  leftNodeModel,
		rightNodeModel: rightNodeModel,
		globalModel:    globalModel,
	}, nil
}

// Apply updates each feature field with its model, independently.
func (bi *BipartiteGraphIndependent) Apply(g *graph.BipartiteGraphData) (*graph.BipartiteGraphData, error) {
	out := g
	if bi.edgeModel != nil {
		if g.Edges == nil {
			return nil, &graph.MissingFieldError{Block: "BipartiteGraphIndependent", Field: graph.FieldEdges}
		}
		edges, err := bi.edgeModel(g.Edges)
		if err != nil {
			return nil, err
		}
		out = out.ReplaceEdges(edges)
	}
	if bi.leftNodeModel != nil {
		if g.LeftNodes == nil {
			return nil, &graph.MissingFieldError{Block: "BipartiteGraphIndependent", Field: graph.FieldNodes}
		}
		nodes, err := bi.leftNodeModel(g.LeftNodes)
		if err != nil {
			return nil, err
		}
		out = out.ReplaceLeftNodes(nodes)
	}
	if bi.rightNodeModel != nil {
		if g.RightNodes == nil {
			return nil, &graph.MissingFieldError{Block: "BipartiteGraphIndependent", Field: graph.FieldNodes}
		}
		nodes, err := bi.rightNodeModel(g.RightNodes)
		if err != nil {
			return nil, err
		}
		out = out.ReplaceRightNodes(nodes)
	}
	if bi.globalModel != nil {
		if g.Globals == nil {
			return nil, &graph.MissingFieldError{Block: "BipartiteGraphIndependent", Field: graph.FieldGlobals}
		}
		globals, err := bi.globalModel(g.Globals)
		if err != nil {
			return nil, err
		}
		out = out.ReplaceGlobals(globals)
	}
	return out, nil
}

// InteractionNetwork computes per-edge interactions from the previous
// edge features and the endpoint node features, then updates nodes from
// the incoming updated edges. Globals are neither consumed nor updated
// and may be absent. Updates edges and nodes.
type InteractionNetwork struct {
	edgeBlock *blocks.EdgeBlock
	nodeBlock *blocks.NodeBlock
}

// NewInteractionNetwork builds an InteractionNetwork. A nil reducer
// defaults to segment sum.
func NewInteractionNetwork(edgeModel, nodeModel blocks.UpdateFn, reducer tensor.Reducer) (*InteractionNetwork, error) {
	edgeOpts := blocks.DefaultEdgeBlockOptions()
	edgeOpts.UseGlobals = false
	edgeBlock, err := blocks.NewEdgeBlock(edgeModel, edgeOpts)
	if err != nil {
		return nil, err
	}
	nodeBlock, err := blocks.NewNodeBlock(nodeModel, blocks.NodeBlockOptions{
		UseReceivedEdges:     true,
		UseNodes:             true,
		ReceivedEdgesReducer: reducer,
	})
	if err != nil {
		return nil, err
	}
	return &InteractionNetwork{edgeBlock: edgeBlock, nodeBlock: nodeBlock}, nil
}

// Apply runs the edge update then the node update.
func (in *InteractionNetwork) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	out, err := in.edgeBlock.Apply(g)
	if err != nil {
		return nil, err
	}
	return in.nodeBlock.Apply(out)
}

// RelationNetwork computes a relation vector for every sender/receiver
// node pair and reduces them into an updated global per graph. The
// input's edge and global features are ignored and may be absent.
// Only globals are updated; edges and nodes pass through unchanged.
type RelationNetwork struct {
	edgeBlock   *blocks.EdgeBlock
	globalBlock *blocks.GlobalBlock
}

// NewRelationNetwork builds a RelationNetwork. A nil reducer defaults
// to segment sum.
func NewRelationNetwork(edgeModel, globalModel blocks.UpdateFn, reducer tensor.Reducer) (*RelationNetwork, error) {
	edgeBlock, err := blocks.NewEdgeBlock(edgeModel, blocks.EdgeBlockOptions{
		UseReceiverNodes: true,
		UseSenderNodes:   true,
	})
	if err != nil {
		return nil, err
	}
	globalBlock, err := blocks.NewGlobalBlock(globalModel, blocks.GlobalBlockOptions{
		UseEdges:     true,
		EdgesReducer: reducer,
	})
	if err != nil {
		return nil, err
	}
	return &RelationNetwork{edgeBlock: edgeBlock, globalBlock: globalBlock}, nil
}

// Apply returns g with only the globals replaced; the intermediate
// per-pair relation features are discarded.
func (rn *RelationNetwork) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	out, err := rn.edgeBlock.Apply(g)
	if err != nil {
		return nil, err
	}
	out, err = rn.globalBlock.Apply(out)
	if err != nil {
		return nil, err
	}
	return g.ReplaceGlobals(out.Globals), nil
}

// DeepSets updates each node from its own features and the globals,
// then reduces the updated nodes into new globals. Edges and
// connectivity are ignored and may be absent. Updates nodes and
// globals; restrict to `input.ReplaceGlobals(output.Globals)` to
// recover the original formulation that only updates globals.
type DeepSets struct {
	nodeBlock   *blocks.NodeBlock
	globalBlock *blocks.GlobalBlock
}

// NewDeepSets builds a DeepSets module. A nil reducer defaults to
// segment sum.
func NewDeepSets(nodeModel, globalModel blocks.UpdateFn, reducer tensor.Reducer) (*DeepSets, error) {
	nodeBlock, err := blocks.NewNodeBlock(nodeModel, blocks.NodeBlockOptions{
		UseNodes:   true,
		UseGlobals: true,
	})
	if err != nil {
		return nil, err
	}
	globalBlock, err := blocks.NewGlobalBlock(globalModel, blocks.GlobalBlockOptions{
		UseNodes:     true,
		NodesReducer: reducer,
	})
	if err != nil {
		return nil, err
	}
	return &DeepSets{nodeBlock: nodeBlock, globalBlock: globalBlock}, nil
}

// Apply runs the node update then the global update.
func (ds *DeepSets) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	out, err := ds.nodeBlock.Apply(g)
	if err != nil {
		return nil, err
	}
	return ds.globalBlock.Apply(out)
}

// CommNet builds per-edge messages from the sending nodes only,
// independently encodes each node, and updates every node from its
// encoding and its aggregated incoming messages. Edge and global
// features of the input are ignored and may be absent. Only nodes are
// updated; the input's edge and global fields pass through unchanged.
type CommNet struct {
	edgeBlock        *blocks.EdgeBlock
	nodeEncoderBlock *blocks.NodeBlock
	nodeBlock        *blocks.NodeBlock
}

// NewCommNet builds a CommNet. A nil reducer defaults to segment sum.
func NewCommNet(edgeModel, nodeEncoderModel, nodeModel blocks.UpdateFn, reducer tensor.Reducer) (*CommNet, error) {
	edgeBlock, err := blocks.NewEdgeBlock(edgeModel, blocks.EdgeBlockOptions{
		UseSenderNodes: true,
	})
	if err != nil {
		return nil, err
	}
	nodeEncoderBlock, err := blocks.NewNodeBlock(nodeEncoderModel, blocks.NodeBlockOptions{
		UseNodes: true,
	})
	if err != nil {
		return nil, err
	}
	nodeBlock, err := blocks.NewNodeBlock(nodeModel, blocks.NodeBlockOptions{
		UseReceivedEdges:     true,
		UseNodes:             true,
		ReceivedEdgesReducer: reducer,
	})
	if err != nil {
		return nil, err
	}
	return &CommNet{edgeBlock: edgeBlock, nodeEncoderBlock: nodeEncoderBlock, nodeBlock: nodeBlock}, nil
}

// Apply returns g with only the nodes replaced.
func (cn *CommNet) Apply(g *graph.GraphData) (*graph.GraphData, error) {
	out, err := cn.edgeBlock.Apply(g)
	if err != nil {
		return nil, err
	}
	out, err = cn.nodeEncoderBlock.Apply(out)
	if err != nil {
		return nil, err
	}
	out, err = cn.nodeBlock.Apply(out)
	if err != nil {
		return nil, err
	}
	return g.ReplaceNodes(out.Nodes), nil
}
