package nn

import "gonum.org/v1/gonum/mat"

// Param is one trainable tensor together with its accumulated gradient.
type Param struct {
	Value *mat.Dense
	Grad  *mat.Dense
}

// NewParam allocates a zero-valued parameter of the given shape.
func NewParam(rows, cols int) *Param {
	return &Param{
		Value: mat.NewDense(rows, cols, nil),
		Grad:  mat.NewDense(rows, cols, nil),
	}
}

// ZeroGrad clears the gradient of every parameter.
func ZeroGrad(params []*Param) {
	for _, p := range params {
		p.Grad.Zero()
	}
}
