package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTensor(t *testing.T, shape []int, data []float64) *Tensor {
	t.Helper()
	tt, err := NewTensor(shape, data)
	require.NoError(t, err)
	return tt
}

func TestNewTensorRejectsBadLength(t *testing.T) {
	_, err := NewTensor([]int{2, 3}, []float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, IsShapeMismatch(err))
}

func TestZeros(t *testing.T) {
	z := Zeros([]int{2, 3})
	assert.Equal(t, []int{2, 3}, z.Shape)
	assert.Equal(t, make([]float64, 6), z.Data)
}

func TestRowAliasesData(t *testing.T) {
	tt := createTestTensor(t, []int{2, 2}, []float64{1, 2, 3, 4})
	assert.Equal(t, []float64{3, 4}, tt.Row(1))
	tt.Row(1)[0] = 9
	assert.Equal(t, 9.0, tt.Data[2])
}

func TestCloneIsDeep(t *testing.T) {
	tt := createTestTensor(t, []int{2}, []float64{1, 2})
	clone := tt.Clone()
	clone.Data[0] = 7
	assert.Equal(t, 1.0, tt.Data[0])
}

func TestGather(t *testing.T) {
	tt := createTestTensor(t, []int{3, 2}, []float64{1, 2, 3, 4, 5, 6})
	out, err := Gather(tt, []int{2, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, out.Shape)
	assert.Equal(t, []float64{5, 6, 1, 2, 5, 6}, out.Data)

	_, err = Gather(tt, []int{3})
	assert.Error(t, err)
}

func TestConcatLastAxis(t *testing.T) {
	a := createTestTensor(t, []int{2, 2}, []float64{1, 2, 3, 4})
	b := createTestTensor(t, []int{2, 1}, []float64{5, 6})
	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, out.Shape)
	assert.Equal(t, []float64{1, 2, 5, 3, 4, 6}, out.Data)
}

func TestConcatThreeDimensional(t *testing.T) {
	a := createTestTensor(t, []int{1, 2, 2}, []float64{1, 2, 3, 4})
	b := createTestTensor(t, []int{1, 2, 1}, []float64{8, 9})
	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out.Shape)
	assert.Equal(t, []float64{1, 2, 8, 3, 4, 9}, out.Data)
}

func TestConcatShapeMismatch(t *testing.T) {
	a := createTestTensor(t, []int{2, 2}, []float64{1, 2, 3, 4})
	b := createTestTensor(t, []int{3, 2}, []float64{1, 2, 3, 4, 5, 6})
	_, err := Concat(a, b)
	require.Error(t, err)
	assert.True(t, IsShapeMismatch(err))
}

func TestReshape(t *testing.T) {
	tt := createTestTensor(t, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	out, err := Reshape(tt, []int{3, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, out.Shape)
	assert.Equal(t, tt.Data, out.Data)

	_, err = Reshape(tt, []int{4, 2})
	assert.Error(t, err)
}

func TestSplitLastAxis(t *testing.T) {
	tt := createTestTensor(t, []int{2, 2, 3}, []float64{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	})
	parts, err := SplitLastAxis(tt, []int{1, 2})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, []int{2, 2, 1}, parts[0].Shape)
	assert.Equal(t, []float64{1, 4, 7, 10}, parts[0].Data)
	assert.Equal(t, []int{2, 2, 2}, parts[1].Shape)
	assert.Equal(t, []float64{2, 3, 5, 6, 8, 9, 11, 12}, parts[1].Data)
}

func TestElementwiseOps(t *testing.T) {
	a := createTestTensor(t, []int{2, 2}, []float64{1, 2, 3, 4})
	b := createTestTensor(t, []int{2, 2}, []float64{10, 20, 30, 40})

	sum, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33, 44}, sum.Data)

	diff, err := Sub(b, a)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 18, 27, 36}, diff.Data)

	prod, err := Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 40, 90, 160}, prod.Data)

	scaled := Scale(a, 2)
	assert.Equal(t, []float64{2, 4, 6, 8}, scaled.Data)

	// Inputs are untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data)
}

func TestDotLastAxis(t *testing.T) {
	a := createTestTensor(t, []int{2, 2, 2}, []float64{1, 0, 0, 1, 2, 2, 1, 1})
	b := createTestTensor(t, []int{2, 2, 2}, []float64{3, 4, 5, 6, 1, 1, 2, 2})
	out, err := DotLastAxis(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, out.Shape)
	assert.Equal(t, []float64{3, 6, 4, 4}, out.Data)
}

func TestScaleRows(t *testing.T) {
	v := createTestTensor(t, []int{2, 2, 2}, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	w := createTestTensor(t, []int{2, 2}, []float64{1, 0, 2, 0.5})
	out, err := ScaleRows(v, w)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 0, 0, 10, 12, 3.5, 4}, out.Data)
}

func TestGonumRoundTrip(t *testing.T) {
	tt := createTestTensor(t, []int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	d, err := ToDense(tt)
	require.NoError(t, err)
	back := FromDense(d)
	assert.Equal(t, tt.Shape, back.Shape)
	assert.Equal(t, tt.Data, back.Data)
}
