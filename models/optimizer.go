package models

import (
	"fmt"
	"math"

	"github.com/tsawler/go-graphnet/tensor"
)

// Optimizer updates parameters in place from matching gradients. The
// segment backward functions in the tensor package produce gradients in
// this layout.
type Optimizer interface {
	Step(params []*tensor.Tensor, grads []*tensor.Tensor) error
	ZeroGrad(grads []*tensor.Tensor)
	LearningRate() float64
	SetLearningRate(lr float64)
	StepCount() int64
}

// OptimizerConfig holds settings common to all optimizers.
type OptimizerConfig struct {
	LearningRate float64
	WeightDecay  float64
}

// SGDConfig configures an SGD optimizer.
type SGDConfig struct {
	OptimizerConfig
	Momentum float64
}

// SGD implements stochastic gradient descent with optional momentum.
type SGD struct {
	config          SGDConfig
	momentumBuffers [][]float64
	stepCount       int64
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	return &SGD{config: config}
}

// Step performs one optimization step.
func (opt *SGD) Step(params []*tensor.Tensor, grads []*tensor.Tensor) error {
	if err := checkParamGrads(params, grads); err != nil {
		return err
	}

	if opt.momentumBuffers == nil && opt.config.Momentum != 0 {
		opt.momentumBuffers = make([][]float64, len(params))
		for i, param := range params {
			opt.momentumBuffers[i] = make([]float64, len(param.Data))
		}
	}

	opt.stepCount++

	for i, param := range params {
		grad := grads[i]
		for j := range param.Data {
			g := grad.Data[j]
			if opt.config.WeightDecay != 0 {
				g += opt.config.WeightDecay * param.Data[j]
			}
			if opt.momentumBuffers != nil {
				buf := opt.momentumBuffers[i]
				buf[j] = opt.config.Momentum*buf[j] + g
				g = buf[j]
			}
			param.Data[j] -= opt.config.LearningRate * g
		}
	}
	return nil
}

// ZeroGrad zeros all gradients.
func (opt *SGD) ZeroGrad(grads []*tensor.Tensor) { zeroAll(grads) }

// LearningRate returns the current learning rate.
func (opt *SGD) LearningRate() float64 { return opt.config.LearningRate }

// SetLearningRate sets the learning rate.
func (opt *SGD) SetLearningRate(lr float64) { opt.config.LearningRate = lr }

// StepCount returns the number of steps taken so far.
func (opt *SGD) StepCount() int64 { return opt.stepCount }

// AdamConfig configures an Adam optimizer.
type AdamConfig struct {
	OptimizerConfig
	Beta1   float64
	Beta2   float64
	Epsilon float64
}

// DefaultAdamConfig returns the standard Adam hyperparameters with the
// given learning rate.
func DefaultAdamConfig(lr float64) AdamConfig {
	return AdamConfig{
		OptimizerConfig: OptimizerConfig{LearningRate: lr},
		Beta1:           0.9,
		Beta2:           0.999,
		Epsilon:         1e-8,
	}
}

// Adam implements the Adam optimization algorithm.
type Adam struct {
	config    AdamConfig
	mBuffers  [][]float64
	vBuffers  [][]float64
	stepCount int64
}

// NewAdam creates a new Adam optimizer.
func NewAdam(config AdamConfig) *Adam {
	return &Adam{config: config}
}

// Step performs one optimization step with bias-corrected moment
// estimates.
func (opt *Adam) Step(params []*tensor.Tensor, grads []*tensor.Tensor) error {
	if err := checkParamGrads(params, grads); err != nil {
		return err
	}

	if opt.mBuffers == nil {
		opt.mBuffers = make([][]float64, len(params))
		opt.vBuffers = make([][]float64, len(params))
		for i, param := range params {
			opt.mBuffers[i] = make([]float64, len(param.Data))
			opt.vBuffers[i] = make([]float64, len(param.Data))
		}
	}

	opt.stepCount++
	c1 := 1 - math.Pow(opt.config.Beta1, float64(opt.stepCount))
	c2 := 1 - math.Pow(opt.config.Beta2, float64(opt.stepCount))

	for i, param := range params {
		grad := grads[i]
		m, v := opt.mBuffers[i], opt.vBuffers[i]
		for j := range param.Data {
			g := grad.Data[j]
			if opt.config.WeightDecay != 0 {
				g += opt.config.WeightDecay * param.Data[j]
			}
			m[j] = opt.config.Beta1*m[j] + (1-opt.config.Beta1)*g
			v[j] = opt.config.Beta2*v[j] + (1-opt.config.Beta2)*g*g
			mHat := m[j] / c1
			vHat := v[j] / c2
			param.Data[j] -= opt.config.LearningRate * mHat / (math.Sqrt(vHat) + opt.config.Epsilon)
		}
	}
	return nil
}

// ZeroGrad zeros all gradients.
func (opt *Adam) ZeroGrad(grads []*tensor.Tensor) { zeroAll(grads) }

// LearningRate returns the current learning rate.
func (opt *Adam) LearningRate() float64 { return opt.config.LearningRate }

// SetLearningRate sets the learning rate.
func (opt *Adam) SetLearningRate(lr float64) { opt.config.LearningRate = lr }

// StepCount returns the number of steps taken so far.
func (opt *Adam) StepCount() int64 { return opt.stepCount }

func checkParamGrads(params, grads []*tensor.Tensor) error {
	if len(params) != len(grads) {
		return fmt.Errorf("params and grads must have the same length, got %d and %d", len(params), len(grads))
	}
	for i, param := range params {
		if len(param.Data) != len(grads[i].Data) {
			return &tensor.ShapeMismatchError{Op: "Optimizer.Step", Want: param.Shape, Got: grads[i].Shape}
		}
	}
	return nil
}

func zeroAll(grads []*tensor.Tensor) {
	for _, grad := range grads {
		for j := range grad.Data {
			grad.Data[j] = 0
		}
	}
}
