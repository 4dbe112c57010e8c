package models

import "math"

// LRScheduler adjusts an optimizer's learning rate over training steps.
type LRScheduler interface {
	// Step recomputes the learning rate for the given step and pushes
	// it to the attached optimizer, if any.
	Step(step int64)
	LR() float64
	SetOptimizer(opt Optimizer)
}

// ExponentialDecayScheduler multiplies the learning rate by decayRate
// every decaySteps steps, continuously.
type ExponentialDecayScheduler struct {
	initialLR  float64
	decayRate  float64
	decaySteps int64
	currentLR  float64
	optimizer  Optimizer
}

// NewExponentialDecayScheduler creates an exponential decay scheduler.
func NewExponentialDecayScheduler(initialLR, decayRate float64, decaySteps int64) *ExponentialDecayScheduler {
	return &ExponentialDecayScheduler{
		initialLR:  initialLR,
		decayRate:  decayRate,
		decaySteps: decaySteps,
		currentLR:  initialLR,
	}
}

func (s *ExponentialDecayScheduler) Step(step int64) {
	s.currentLR = s.initialLR * math.Pow(s.decayRate, float64(step)/float64(s.decaySteps))
	if s.optimizer != nil {
		s.optimizer.SetLearningRate(s.currentLR)
	}
}

func (s *ExponentialDecayScheduler) LR() float64 { return s.currentLR }

func (s *ExponentialDecayScheduler) SetOptimizer(opt Optimizer) { s.optimizer = opt }

// StepDecayScheduler multiplies the learning rate by gamma once every
// stepSize steps.
type StepDecayScheduler struct {
	initialLR float64
	gamma     float64
	stepSize  int64
	currentLR float64
	optimizer Optimizer
}

// NewStepDecayScheduler creates a step decay scheduler.
func NewStepDecayScheduler(initialLR, gamma float64, stepSize int64) *StepDecayScheduler {
	return &StepDecayScheduler{
		initialLR: initialLR,
		gamma:     gamma,
		stepSize:  stepSize,
		currentLR: initialLR,
	}
}

func (s *StepDecayScheduler) Step(step int64) {
	s.currentLR = s.initialLR * math.Pow(s.gamma, float64(step/s.stepSize))
	if s.optimizer != nil {
		s.optimizer.SetLearningRate(s.currentLR)
	}
}

func (s *StepDecayScheduler) LR() float64 { return s.currentLR }

func (s *StepDecayScheduler) SetOptimizer(opt Optimizer) { s.optimizer = opt }

// CosineAnnealingScheduler anneals the learning rate from initialLR to
// minLR along a half cosine over totalSteps steps, then holds at minLR.
type CosineAnnealingScheduler struct {
	initialLR  float64
	minLR      float64
	totalSteps int64
	currentLR  float64
	optimizer  Optimizer
}

// NewCosineAnnealingScheduler creates a cosine annealing scheduler.
func NewCosineAnnealingScheduler(initialLR, minLR float64, totalSteps int64) *CosineAnnealingScheduler {
	return &CosineAnnealingScheduler{
		initialLR:  initialLR,
		minLR:      minLR,
		totalSteps: totalSteps,
		currentLR:  initialLR,
	}
}

func (s *CosineAnnealingScheduler) Step(step int64) {
	if step >= s.totalSteps {
		s.currentLR = s.minLR
	} else {
		progress := float64(step) / float64(s.totalSteps)
		s.currentLR = s.minLR + (s.initialLR-s.minLR)*0.5*(1+math.Cos(math.Pi*progress))
	}
	if s.optimizer != nil {
		s.optimizer.SetLearningRate(s.currentLR)
	}
}

func (s *CosineAnnealingScheduler) LR() float64 { return s.currentLR }

func (s *CosineAnnealingScheduler) SetOptimizer(opt Optimizer) { s.optimizer = opt }
