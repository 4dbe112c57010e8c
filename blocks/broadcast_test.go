package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-graphnet/graph"
	"github.com/tsawler/go-graphnet/tensor"
)

func createTestTensor(t *testing.T, shape []int, data []float64) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.NewTensor(shape, data)
	require.NoError(t, err)
	return tt
}

// twoGraphBatch builds two graphs: the first with 2 nodes and 2 edges
// (0->1, 1->0), the second with 1 node and a self edge (2->2).
func twoGraphBatch(t *testing.T) *graph.GraphData {
	t.Helper()
	g, err := graph.New(
		createTestTensor(t, []int{3, 1}, []float64{10, 20, 30}),
		createTestTensor(t, []int{3, 2}, []float64{1, 1, 2, 2, 3, 3}),
		createTestTensor(t, []int{2, 1}, []float64{100, 200}),
		[]int{0, 1, 2},
		[]int{1, 0, 2},
		[]int{2, 1},
		[]int{2, 1},
	)
	require.NoError(t, err)
	return g
}

func TestBroadcastSenderNodesToEdges(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := BroadcastSenderNodesToEdges(g)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, out.Shape)
	assert.Equal(t, []float64{1, 1, 2, 2, 3, 3}, out.Data)
}

func TestBroadcastReceiverNodesToEdges(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := BroadcastReceiverNodesToEdges(g)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 1, 1, 3, 3}, out.Data)
}

func TestBroadcastNodesMissing(t *testing.T) {
	g := twoGraphBatch(t).ReplaceNodes(nil)
	_, err := BroadcastSenderNodesToEdges(g)
	require.Error(t, err)
	assert.True(t, graph.IsMissingField(err))
}

func TestBroadcastGlobalsToEdges(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := BroadcastGlobalsToEdges(g)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, out.Shape)
	assert.Equal(t, []float64{100, 100, 200}, out.Data)
}

func TestBroadcastGlobalsToNodes(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := BroadcastGlobalsToNodes(g)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 100, 200}, out.Data)
}

func TestBroadcastGlobalsMissing(t *testing.T) {
	g := twoGraphBatch(t).ReplaceGlobals(nil)
	_, err := BroadcastGlobalsToNodes(g)
	require.Error(t, err)
	assert.True(t, graph.IsMissingField(err))
}

func TestReceivedEdgesToNodes(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := ReceivedEdgesToNodes(g, tensor.SegmentSum)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, out.Shape)
	// Node 0 receives edge 1 (20), node 1 receives edge 0 (10),
	// node 2 receives its self edge (30).
	assert.Equal(t, []float64{20, 10, 30}, out.Data)
}

func TestSentEdgesToNodes(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := SentEdgesToNodes(g, tensor.SegmentSum)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, out.Data)
}

func TestEdgesToGlobals(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := EdgesToGlobals(g, tensor.SegmentSum)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, out.Shape)
	assert.Equal(t, []float64{30, 30}, out.Data)
}

func TestNodesToGlobals(t *testing.T) {
	g := twoGraphBatch(t)
	out, err := NodesToGlobals(g, tensor.SegmentMean)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 1.5, 3, 3}, out.Data)
}

func TestAggregateMissingEdges(t *testing.T) {
	g := twoGraphBatch(t).ReplaceEdges(nil)
	_, err := ReceivedEdgesToNodes(g, tensor.SegmentSum)
	assert.True(t, graph.IsMissingField(err))
	_, err = EdgesToGlobals(g, tensor.SegmentSum)
	assert.True(t, graph.IsMissingField(err))
}

func TestBroadcastAggregateRoundTrip(t *testing.T) {
	// Every node has exactly one incoming edge, so broadcasting node
	// features onto edges by receiver and mean-reducing them back must
	// reproduce the node features exactly.
	g := twoGraphBatch(t)
	onEdges, err := BroadcastReceiverNodesToEdges(g)
	require.NoError(t, err)
	back, err := ReceivedEdgesToNodes(g.ReplaceEdges(onEdges), tensor.SegmentMean)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes.Shape, back.Shape)
	assert.Equal(t, g.Nodes.Data, back.Data)
}
