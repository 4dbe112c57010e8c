package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Tensor represents a multi-dimensional array of float64. The first
// axis always indexes rows (edges, nodes, or graphs); trailing axes
// hold the per-row feature layout. Data is stored row-major.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor creates a new tensor wrapping the given data.
func NewTensor(shape []int, data []float64) (*Tensor, error) {
	size := 1
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", dim, shape)
		}
		size *= dim
	}
	if len(data) != size {
		return nil, &ShapeMismatchError{Op: "NewTensor", Want: shape, GotLen: len(data)}
	}
	return &Tensor{Shape: shape, Data: data}, nil
}

// Zeros creates a zero-filled tensor of the given shape.
func Zeros(shape []int) *Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	t, _ := NewTensor(shape, make([]float64, size))
	return t
}

// Rows returns the size of the leading axis.
func (t *Tensor) Rows() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}

// RowSize returns the number of elements in one row, i.e. the product
// of the trailing dimensions.
func (t *Tensor) RowSize() int {
	size := 1
	for _, dim := range t.Shape[1:] {
		size *= dim
	}
	return size
}

// Row returns the slice backing row i. The slice aliases t.Data.
func (t *Tensor) Row(i int) []float64 {
	rs := t.RowSize()
	return t.Data[i*rs : (i+1)*rs]
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	shape := make([]int, len(t.Shape))
	copy(shape, t.Shape)
	data := make([]float64, len(t.Data))
	copy(data, t.Data)
	return &Tensor{Shape: shape, Data: data}
}

// ShapesEqual reports whether two shapes are identical.
func ShapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Reshape returns a tensor viewing the same data under a new shape.
// The total element count must be preserved.
func Reshape(t *Tensor, shape []int) (*Tensor, error) {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	if size != len(t.Data) {
		return nil, &ShapeMismatchError{Op: "Reshape", Want: shape, Got: t.Shape}
	}
	out := make([]int, len(shape))
	copy(out, shape)
	return &Tensor{Shape: out, Data: t.Data}, nil
}

// Gather builds a new tensor whose row i is t.Row(indices[i]). The
// output has len(indices) rows and t's trailing shape.
func Gather(t *Tensor, indices []int) (*Tensor, error) {
	rs := t.RowSize()
	rows := t.Rows()
	outShape := make([]int, len(t.Shape))
	copy(outShape, t.Shape)
	outShape[0] = len(indices)
	out := make([]float64, len(indices)*rs)
	for i, idx := range indices {
		if idx < 0 || idx >= rows {
			return nil, fmt.Errorf("gather index %d out of range [0, %d)", idx, rows)
		}
		copy(out[i*rs:(i+1)*rs], t.Row(idx))
	}
	return &Tensor{Shape: outShape, Data: out}, nil
}

// Concat concatenates tensors along the last axis. All inputs must
// share every dimension except the last.
func Concat(ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("concat of zero tensors")
	}
	if len(ts) == 1 {
		return ts[0], nil
	}
	first := ts[0]
	nd := len(first.Shape)
	if nd == 0 {
		return nil, fmt.Errorf("concat of scalar tensors")
	}
	outer := 1
	for _, dim := range first.Shape[:nd-1] {
		outer *= dim
	}
	lastTotal := 0
	for _, t := range ts {
		if len(t.Shape) != nd || !ShapesEqual(t.Shape[:nd-1], first.Shape[:nd-1]) {
			return nil, &ShapeMismatchError{Op: "Concat", Want: first.Shape, Got: t.Shape}
		}
		lastTotal += t.Shape[nd-1]
	}
	outShape := make([]int, nd)
	copy(outShape, first.Shape)
	outShape[nd-1] = lastTotal
	out := make([]float64, outer*lastTotal)
	offset := 0
	for _, t := range ts {
		last := t.Shape[nd-1]
		for o := 0; o < outer; o++ {
			copy(out[o*lastTotal+offset:o*lastTotal+offset+last], t.Data[o*last:(o+1)*last])
		}
		offset += last
	}
	return &Tensor{Shape: outShape, Data: out}, nil
}

// SplitLastAxis splits a tensor into pieces along the last axis. The
// sizes must sum to the tensor's last dimension.
func SplitLastAxis(t *Tensor, sizes []int) ([]*Tensor, error) {
	nd := len(t.Shape)
	if nd == 0 {
		return nil, fmt.Errorf("split of scalar tensor")
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != t.Shape[nd-1] {
		return nil, fmt.Errorf("split sizes %v do not sum to last dimension %d", sizes, t.Shape[nd-1])
	}
	outer := 1
	for _, dim := range t.Shape[:nd-1] {
		outer *= dim
	}
	last := t.Shape[nd-1]
	parts := make([]*Tensor, len(sizes))
	offset := 0
	for p, size := range sizes {
		shape := make([]int, nd)
		copy(shape, t.Shape)
		shape[nd-1] = size
		data := make([]float64, outer*size)
		for o := 0; o < outer; o++ {
			copy(data[o*size:(o+1)*size], t.Data[o*last+offset:o*last+offset+size])
		}
		parts[p] = &Tensor{Shape: shape, Data: data}
		offset += size
	}
	return parts, nil
}

// Add returns the elementwise sum of two tensors of identical shape.
func Add(a, b *Tensor) (*Tensor, error) {
	if !ShapesEqual(a.Shape, b.Shape) {
		return nil, &ShapeMismatchError{Op: "Add", Want: a.Shape, Got: b.Shape}
	}
	out := a.Clone()
	floats.Add(out.Data, b.Data)
	return out, nil
}

// Sub returns the elementwise difference a - b.
func Sub(a, b *Tensor) (*Tensor, error) {
	if !ShapesEqual(a.Shape, b.Shape) {
		return nil, &ShapeMismatchError{Op: "Sub", Want: a.Shape, Got: b.Shape}
	}
	out := a.Clone()
	floats.Sub(out.Data, b.Data)
	return out, nil
}

// Mul returns the elementwise product of two tensors of identical shape.
func Mul(a, b *Tensor) (*Tensor, error) {
	if !ShapesEqual(a.Shape, b.Shape) {
		return nil, &ShapeMismatchError{Op: "Mul", Want: a.Shape, Got: b.Shape}
	}
	out := a.Clone()
	floats.Mul(out.Data, b.Data)
	return out, nil
}

// Scale returns the tensor multiplied by a scalar.
func Scale(t *Tensor, c float64) *Tensor {
	out := t.Clone()
	floats.Scale(c, out.Data)
	return out
}

// DotLastAxis computes the dot product of two tensors over their last
// axis, producing a tensor whose shape is the shared leading shape.
// For inputs shaped [n, h, d] the result is shaped [n, h].
func DotLastAxis(a, b *Tensor) (*Tensor, error) {
	if !ShapesEqual(a.Shape, b.Shape) {
		return nil, &ShapeMismatchError{Op: "DotLastAxis", Want: a.Shape, Got: b.Shape}
	}
	nd := len(a.Shape)
	if nd == 0 {
		return nil, fmt.Errorf("dot of scalar tensors")
	}
	last := a.Shape[nd-1]
	outShape := make([]int, nd-1)
	copy(outShape, a.Shape[:nd-1])
	outer := 1
	for _, dim := range outShape {
		outer *= dim
	}
	out := make([]float64, outer)
	for o := 0; o < outer; o++ {
		out[o] = floats.Dot(a.Data[o*last:(o+1)*last], b.Data[o*last:(o+1)*last])
	}
	return &Tensor{Shape: outShape, Data: out}, nil
}

// ScaleRows multiplies each vector along the last axis of t by the
// matching scalar in w, where w's shape equals t's shape without its
// last axis. For t shaped [e, h, d] and w shaped [e, h], output
// (i, j, :) is t(i, j, :) * w(i, j).
func ScaleRows(t, w *Tensor) (*Tensor, error) {
	nd := len(t.Shape)
	if nd == 0 || !ShapesEqual(t.Shape[:nd-1], w.Shape) {
		return nil, &ShapeMismatchError{Op: "ScaleRows", Want: t.Shape, Got: w.Shape}
	}
	last := t.Shape[nd-1]
	out := t.Clone()
	for o, c := range w.Data {
		floats.Scale(c, out.Data[o*last:(o+1)*last])
	}
	return out, nil
}
