// Package models provides small learned per-entity functions to plug
// into graph-network blocks: linear layers, activations, and a plain
// MLP. Blocks accept any blocks.UpdateFn; these exist so the library
// is usable out of the box and testable with real parameters.
package models

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/tsawler/go-graphnet/tensor"
)

// Linear is a dense layer computing output = input @ W + b.
type Linear struct {
	Weight *mat.Dense // [inputSize, outputSize]
	Bias   []float64  // [outputSize], nil when bias is disabled

	InputSize  int
	OutputSize int
}

// NewLinear creates a linear layer with Xavier-initialized weights and
// a zero bias.
func NewLinear(inputSize, outputSize int, rng *rand.Rand) *Linear {
	scale := math.Sqrt(2.0 / float64(inputSize+outputSize))
	weightData := make([]float64, inputSize*outputSize)
	for i := range weightData {
		weightData[i] = (rng.Float64()*2 - 1) * scale
	}
	return &Linear{
		Weight:     mat.NewDense(inputSize, outputSize, weightData),
		Bias:       make([]float64, outputSize),
		InputSize:  inputSize,
		OutputSize: outputSize,
	}
}

// Apply runs the layer over a [rows, inputSize] tensor. It satisfies
// blocks.UpdateFn.
func (l *Linear) Apply(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 2 || input.Shape[1] != l.InputSize {
		return nil, &tensor.ShapeMismatchError{Op: "Linear", Want: []int{input.Rows(), l.InputSize}, Got: input.Shape}
	}
	in, err := tensor.ToDense(input)
	if err != nil {
		return nil, err
	}
	var out mat.Dense
	out.Mul(in, l.Weight)
	result := tensor.FromDense(&out)
	if l.Bias != nil {
		for i := 0; i < result.Rows(); i++ {
			row := result.Row(i)
			for j, b := range l.Bias {
				row[j] += b
			}
		}
	}
	return result, nil
}

// ReLU returns a tensor with negative entries clamped to zero.
func ReLU(t *tensor.Tensor) (*tensor.Tensor, error) {
	out := t.Clone()
	for i, v := range out.Data {
		if v < 0 {
			out.Data[i] = 0
		}
	}
	return out, nil
}

// Identity passes its input through unchanged.
func Identity(t *tensor.Tensor) (*tensor.Tensor, error) {
	return t, nil
}

// MLP is a chain of linear layers with ReLU applied between them (not
// after the last one).
type MLP struct {
	Layers []*Linear
}

// NewMLP creates an MLP with the given layer widths, e.g. sizes
// {8, 16, 4} builds 8->16->4.
func NewMLP(sizes []int, rng *rand.Rand) (*MLP, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("MLP needs at least two layer sizes, got %v", sizes)
	}
	layers := make([]*Linear, len(sizes)-1)
	for i := range layers {
		layers[i] = NewLinear(sizes[i], sizes[i+1], rng)
	}
	return &MLP{Layers: layers}, nil
}

// Apply runs the network over a [rows, sizes[0]] tensor. It satisfies
// blocks.UpdateFn.
func (m *MLP) Apply(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := input
	var err error
	for i, layer := range m.Layers {
		out, err = layer.Apply(out)
		if err != nil {
			return nil, err
		}
		if i < len(m.Layers)-1 {
			out, err = ReLU(out)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
