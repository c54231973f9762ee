package model

import (
	"gonum.org/v1/gonum/mat"

	"void-forge/internal/nn"
)

// Batch represents a minibatch of flattened features and class labels.
// Invariant: Inputs has one row per label.
type Batch struct {
	Inputs *mat.Dense
	Labels []int
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	return len(b.Labels)
}

// Mode selects the forward-pass behavior. It is an explicit argument
// rather than mutable model state so that a validation pass cannot leave
// the network in the wrong mode.
type Mode int

const (
	// Train enables dropout and records the activation cache for Backward.
	Train Mode = iota
	// Eval runs a pure forward pass; no state is recorded.
	Eval
)

// Network defines the training functionality required by the trainer.
type Network interface {
	// Forward maps a batch of inputs to per-class logits.
	Forward(x *mat.Dense, mode Mode) *mat.Dense
	// Backward accumulates parameter gradients from dLoss/dLogits.
	// It fails if the preceding forward pass did not run in Train mode.
	Backward(dLogits *mat.Dense) error
	// Parameters returns the trainable parameters.
	Parameters() []*nn.Param
}
