package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Reducer is a permutation-invariant segmented reduction: rows of data
// sharing a segment id are folded into one output row. SegmentSum,
// SegmentMax and SegmentMean satisfy this signature.
type Reducer func(data *Tensor, segmentIDs []int, numSegments int) (*Tensor, error)

func checkSegments(data *Tensor, segmentIDs []int, numSegments int) error {
	if len(segmentIDs) != data.Rows() {
		return fmt.Errorf("segment ids length %d does not match %d data rows", len(segmentIDs), data.Rows())
	}
	if numSegments < 0 {
		return fmt.Errorf("negative segment count %d", numSegments)
	}
	for i, id := range segmentIDs {
		if id < 0 || id >= numSegments {
			return fmt.Errorf("segment id %d at row %d out of range [0, %d)", id, i, numSegments)
		}
	}
	return nil
}

func segmentShape(data *Tensor, numSegments int) []int {
	shape := make([]int, len(data.Shape))
	copy(shape, data.Shape)
	shape[0] = numSegments
	return shape
}

// SegmentSum reduces rows of data by summation within each segment.
// Segments with no contributing rows produce a zero row.
func SegmentSum(data *Tensor, segmentIDs []int, numSegments int) (*Tensor, error) {
	if err := checkSegments(data, segmentIDs, numSegments); err != nil {
		return nil, err
	}
	out := Zeros(segmentShape(data, numSegments))
	for i, id := range segmentIDs {
		floats.Add(out.Row(id), data.Row(i))
	}
	return out, nil
}

// SegmentMax reduces rows of data by elementwise maximum within each
// segment. A segment with no contributing rows produces a zero row,
// not -inf: callers on the attention path guarantee every normalized
// segment has at least one member, so the convention never leaks into
// results that matter.
func SegmentMax(data *Tensor, segmentIDs []int, numSegments int) (*Tensor, error) {
	if err := checkSegments(data, segmentIDs, numSegments); err != nil {
		return nil, err
	}
	out := Zeros(segmentShape(data, numSegments))
	seen := make([]bool, numSegments)
	for i, id := range segmentIDs {
		row := out.Row(id)
		src := data.Row(i)
		if !seen[id] {
			copy(row, src)
			seen[id] = true
			continue
		}
		for j, v := range src {
			if v > row[j] {
				row[j] = v
			}
		}
	}
	return out, nil
}

// SegmentMean reduces rows of data by arithmetic mean within each
// segment. Segments with no contributing rows produce a zero row.
func SegmentMean(data *Tensor, segmentIDs []int, numSegments int) (*Tensor, error) {
	out, err := SegmentSum(data, segmentIDs, numSegments)
	if err != nil {
		return nil, err
	}
	counts := segmentCounts(segmentIDs, numSegments)
	for s, c := range counts {
		if c > 1 {
			floats.Scale(1/float64(c), out.Row(s))
		}
	}
	return out, nil
}

func segmentCounts(segmentIDs []int, numSegments int) []int {
	counts := make([]int, numSegments)
	for _, id := range segmentIDs {
		counts[id]++
	}
	return counts
}

// SegmentSumBackward propagates the gradient of a SegmentSum output
// back to its inputs: each contributing row receives its segment's
// gradient unchanged.
func SegmentSumBackward(grad *Tensor, segmentIDs []int) (*Tensor, error) {
	return Gather(grad, segmentIDs)
}

// SegmentMeanBackward propagates the gradient of a SegmentMean output
// back to its inputs: each contributing row receives its segment's
// gradient divided by the segment size.
func SegmentMeanBackward(grad *Tensor, segmentIDs []int, numSegments int) (*Tensor, error) {
	out, err := Gather(grad, segmentIDs)
	if err != nil {
		return nil, err
	}
	counts := segmentCounts(segmentIDs, numSegments)
	for i, id := range segmentIDs {
		if counts[id] > 1 {
			floats.Scale(1/float64(counts[id]), out.Row(i))
		}
	}
	return out, nil
}

// SegmentMaxBackward propagates the gradient of a SegmentMax output
// back to its inputs. Elementwise, the gradient flows only into the
// first row of the segment that attains the maximum; all other rows
// receive zero.
func SegmentMaxBackward(grad, data *Tensor, segmentIDs []int, numSegments int) (*Tensor, error) {
	if err := checkSegments(data, segmentIDs, numSegments); err != nil {
		return nil, err
	}
	if !ShapesEqual(grad.Shape, segmentShape(data, numSegments)) {
		return nil, &ShapeMismatchError{Op: "SegmentMaxBackward", Want: segmentShape(data, numSegments), Got: grad.Shape}
	}
	rs := data.RowSize()
	// Elementwise argmax per segment, first contributor wins.
	argmax := make([]int, numSegments*rs)
	for i := range argmax {
		argmax[i] = -1
	}
	best := make([]float64, numSegments*rs)
	for i, id := range segmentIDs {
		src := data.Row(i)
		for j, v := range src {
			k := id*rs + j
			if argmax[k] == -1 || v > best[k] {
				argmax[k] = i
				best[k] = v
			}
		}
	}
	out := Zeros(data.Shape)
	for s := 0; s < numSegments; s++ {
		gRow := grad.Row(s)
		for j := 0; j < rs; j++ {
			if i := argmax[s*rs+j]; i >= 0 {
				out.Row(i)[j] += gRow[j]
			}
		}
	}
	return out, nil
}

// SegmentSoftmax applies a numerically stable softmax independently
// within each segment: the per-segment maximum is subtracted before
// exponentiation and the exponentials are normalized by the per-segment
// sum. The output has the same shape as logits. Segments with no
// members contribute nothing; a zero denominator is replaced by one so
// masked-out or empty groups yield zeros rather than NaN.
func SegmentSoftmax(logits *Tensor, segmentIDs []int, numSegments int) (*Tensor, error) {
	maxes, err := SegmentMax(logits, segmentIDs, numSegments)
	if err != nil {
		return nil, err
	}
	broadcastMax, err := Gather(maxes, segmentIDs)
	if err != nil {
		return nil, err
	}
	exp := logits.Clone()
	floats.Sub(exp.Data, broadcastMax.Data)
	for i, v := range exp.Data {
		exp.Data[i] = math.Exp(v)
	}
	sums, err := SegmentSum(exp, segmentIDs, numSegments)
	if err != nil {
		return nil, err
	}
	for i, v := range sums.Data {
		if v == 0 {
			sums.Data[i] = 1
		}
	}
	broadcastSum, err := Gather(sums, segmentIDs)
	if err != nil {
		return nil, err
	}
	floats.Div(exp.Data, broadcastSum.Data)
	return exp, nil
}

// SegmentSoftmaxBackward propagates a gradient through SegmentSoftmax.
// probs must be the forward output. Elementwise within each segment:
//
//	dlogits[i] = probs[i] * (grad[i] - sum_j probs[j]*grad[j])
func SegmentSoftmaxBackward(grad, probs *Tensor, segmentIDs []int, numSegments int) (*Tensor, error) {
	if !ShapesEqual(grad.Shape, probs.Shape) {
		return nil, &ShapeMismatchError{Op: "SegmentSoftmaxBackward", Want: probs.Shape, Got: grad.Shape}
	}
	weighted, err := Mul(probs, grad)
	if err != nil {
		return nil, err
	}
	sums, err := SegmentSum(weighted, segmentIDs, numSegments)
	if err != nil {
		return nil, err
	}
	broadcast, err := Gather(sums, segmentIDs)
	if err != nil {
		return nil, err
	}
	out := grad.Clone()
	floats.Sub(out.Data, broadcast.Data)
	floats.Mul(out.Data, probs.Data)
	return out, nil
}
