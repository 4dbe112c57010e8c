package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ToDense converts a 2-D tensor to a gonum Dense matrix sharing no
// storage with the tensor.
func ToDense(t *Tensor) (*mat.Dense, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("ToDense requires a 2-D tensor, got shape %v", t.Shape)
	}
	data := make([]float64, len(t.Data))
	copy(data, t.Data)
	return mat.NewDense(t.Shape[0], t.Shape[1], data), nil
}

// FromDense converts a gonum matrix to a 2-D tensor.
func FromDense(m mat.Matrix) *Tensor {
	rows, cols := m.Dims()
	data := make([]float64, rows*cols)
	if d, ok := m.(*mat.Dense); ok && d.RawMatrix().Stride == cols {
		copy(data, d.RawMatrix().Data[:rows*cols])
	} else {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				data[i*cols+j] = m.At(i, j)
			}
		}
	}
	return &Tensor{Shape: []int{rows, cols}, Data: data}
}
