package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentSum(t *testing.T) {
	data := createTestTensor(t, []int{4, 2}, []float64{
		1, 2, // a -> segment 0
		3, 4, // b -> segment 1
		5, 6, // c -> segment 0
		7, 8, // d -> segment 2
	})
	out, err := SegmentSum(data, []int{0, 1, 0, 2}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, out.Shape)
	assert.Equal(t, []float64{6, 8, 3, 4, 7, 8}, out.Data)
}

func TestSegmentSumEmptySegmentIsZero(t *testing.T) {
	data := createTestTensor(t, []int{2, 2}, []float64{1, 1, 2, 2})
	out, err := SegmentSum(data, []int{0, 3}, 4)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 0, 0, 0, 0, 2, 2}, out.Data)
}

func TestSegmentSumRejectsBadIDs(t *testing.T) {
	data := createTestTensor(t, []int{2, 1}, []float64{1, 2})
	_, err := SegmentSum(data, []int{0, 2}, 2)
	assert.Error(t, err)
	_, err = SegmentSum(data, []int{0}, 2)
	assert.Error(t, err)
}

func TestSegmentMax(t *testing.T) {
	data := createTestTensor(t, []int{4, 2}, []float64{
		-1, 5,
		2, 2,
		3, -7,
		0, 0,
	})
	out, err := SegmentMax(data, []int{0, 1, 0, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5, 2, 2, 0, 0}, out.Data)
}

func TestSegmentMaxNegativeValuesSurvive(t *testing.T) {
	// A segment of all-negative rows keeps its true maximum; only an
	// empty segment falls back to zero.
	data := createTestTensor(t, []int{2, 1}, []float64{-5, -3})
	out, err := SegmentMax(data, []int{0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{-3, 0}, out.Data)
}

func TestSegmentMean(t *testing.T) {
	data := createTestTensor(t, []int{3, 2}, []float64{1, 2, 3, 4, 5, 8})
	out, err := SegmentMean(data, []int{0, 0, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 5, 8, 0, 0}, out.Data)
}

func TestSegmentSumBackward(t *testing.T) {
	grad := createTestTensor(t, []int{2, 2}, []float64{1, 2, 3, 4})
	out, err := SegmentSumBackward(grad, []int{1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 1, 2, 3, 4}, out.Data)
}

func TestSegmentMeanBackward(t *testing.T) {
	grad := createTestTensor(t, []int{2, 1}, []float64{6, 5})
	out, err := SegmentMeanBackward(grad, []int{0, 0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 5}, out.Data)
}

func TestSegmentMaxBackwardRoutesToMaximum(t *testing.T) {
	data := createTestTensor(t, []int{3, 2}, []float64{
		1, 9,
		5, 2,
		0, 0,
	})
	grad := createTestTensor(t, []int{2, 2}, []float64{10, 20, 30, 40})
	out, err := SegmentMaxBackward(grad, data, []int{0, 0, 1}, 2)
	require.NoError(t, err)
	// Column 0 max of segment 0 is row 1, column 1 max is row 0.
	assert.Equal(t, []float64{0, 20, 10, 0, 30, 40}, out.Data)
}

func TestSegmentSoftmaxUniform(t *testing.T) {
	logits := createTestTensor(t, []int{3, 1}, []float64{0, 0, 0})
	out, err := SegmentSoftmax(logits, []int{0, 0, 0}, 1)
	require.NoError(t, err)
	for _, v := range out.Data {
		assert.InDelta(t, 1.0/3.0, v, 1e-12)
	}
}

func TestSegmentSoftmaxShiftInvariant(t *testing.T) {
	logits := createTestTensor(t, []int{4, 1}, []float64{1, 3, -2, 0.5})
	ids := []int{0, 0, 1, 1}
	base, err := SegmentSoftmax(logits, ids, 2)
	require.NoError(t, err)

	shifted := createTestTensor(t, []int{4, 1}, []float64{1 + 1000, 3 + 1000, -2 - 500, 0.5 - 500})
	out, err := SegmentSoftmax(shifted, ids, 2)
	require.NoError(t, err)
	for i := range base.Data {
		assert.InDelta(t, base.Data[i], out.Data[i], 1e-9)
	}
}

func TestSegmentSoftmaxNormalizesPerSegment(t *testing.T) {
	logits := createTestTensor(t, []int{5, 1}, []float64{0.3, -1, 2, 4, 4})
	ids := []int{0, 0, 0, 2, 2}
	out, err := SegmentSoftmax(logits, ids, 3)
	require.NoError(t, err)
	sums, err := SegmentSum(out, ids, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1, sums.Data[0], 1e-12)
	assert.InDelta(t, 0, sums.Data[1], 1e-12) // empty segment stays zero
	assert.InDelta(t, 1, sums.Data[2], 1e-12)
}

// numericLossGrad computes d(sum(w * f(x)))/dx by central differences.
func numericLossGrad(t *testing.T, f func(*Tensor) *Tensor, x, w *Tensor) []float64 {
	t.Helper()
	const h = 1e-6
	grad := make([]float64, len(x.Data))
	loss := func(in *Tensor) float64 {
		out := f(in)
		require.Equal(t, len(w.Data), len(out.Data))
		total := 0.0
		for i, v := range out.Data {
			total += w.Data[i] * v
		}
		return total
	}
	for i := range x.Data {
		plus := x.Clone()
		plus.Data[i] += h
		minus := x.Clone()
		minus.Data[i] -= h
		grad[i] = (loss(plus) - loss(minus)) / (2 * h)
	}
	return grad
}

func TestSegmentBackwardMatchesNumericGradient(t *testing.T) {
	x := createTestTensor(t, []int{4, 2}, []float64{0.5, -1.2, 2.1, 0.3, -0.7, 1.9, 0.05, 0.4})
	ids := []int{0, 1, 0, 1}
	w := createTestTensor(t, []int{2, 2}, []float64{1, -2, 0.5, 3})

	t.Run("sum", func(t *testing.T) {
		forward := func(in *Tensor) *Tensor {
			out, err := SegmentSum(in, ids, 2)
			require.NoError(t, err)
			return out
		}
		analytic, err := SegmentSumBackward(w, ids)
		require.NoError(t, err)
		numeric := numericLossGrad(t, forward, x, w)
		for i := range numeric {
			assert.InDelta(t, numeric[i], analytic.Data[i], 1e-5)
		}
	})

	t.Run("mean", func(t *testing.T) {
		forward := func(in *Tensor) *Tensor {
			out, err := SegmentMean(in, ids, 2)
			require.NoError(t, err)
			return out
		}
		analytic, err := SegmentMeanBackward(w, ids, 2)
		require.NoError(t, err)
		numeric := numericLossGrad(t, forward, x, w)
		for i := range numeric {
			assert.InDelta(t, numeric[i], analytic.Data[i], 1e-5)
		}
	})

	t.Run("max", func(t *testing.T) {
		forward := func(in *Tensor) *Tensor {
			out, err := SegmentMax(in, ids, 2)
			require.NoError(t, err)
			return out
		}
		analytic, err := SegmentMaxBackward(w, x, ids, 2)
		require.NoError(t, err)
		numeric := numericLossGrad(t, forward, x, w)
		for i := range numeric {
			assert.InDelta(t, numeric[i], analytic.Data[i], 1e-5)
		}
	})

	t.Run("softmax", func(t *testing.T) {
		forward := func(in *Tensor) *Tensor {
			out, err := SegmentSoftmax(in, ids, 2)
			require.NoError(t, err)
			return out
		}
		probs := forward(x)
		// Softmax output has one row per input row, so the loss
		// weights span all four rows here.
		wFull := createTestTensor(t, []int{4, 2}, []float64{1, -2, 0.5, 3, -1, 0.25, 2, -0.5})
		analytic, err := SegmentSoftmaxBackward(wFull, probs, ids, 2)
		require.NoError(t, err)
		numeric := numericLossGrad(t, forward, x, wFull)
		for i := range numeric {
			assert.InDelta(t, numeric[i], analytic.Data[i], 1e-5)
		}
	})
}
