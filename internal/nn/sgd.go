package nn

import "gonum.org/v1/gonum/mat"

// Optimizer updates parameters in place using their accumulated gradients.
type Optimizer interface {
	Step(params []*Param)
}

// SGD is stochastic gradient descent with classical momentum:
// v = momentum*v + g; w = w - lr*v.
type SGD struct {
	LR       float64
	Momentum float64

	velocity map[*Param]*mat.Dense
}

// NewSGD constructs the optimizer. Momentum 0 degrades to plain SGD.
func NewSGD(lr, momentum float64) *SGD {
	return &SGD{
		LR:       lr,
		Momentum: momentum,
		velocity: make(map[*Param]*mat.Dense),
	}
}

func (o *SGD) Step(params []*Param) {
	if o.velocity == nil {
		o.velocity = make(map[*Param]*mat.Dense)
	}
	for _, p := range params {
		v, ok := o.velocity[p]
		if !ok {
			r, c := p.Value.Dims()
			v = mat.NewDense(r, c, nil)
			o.velocity[p] = v
		}
		v.Scale(o.Momentum, v)
		v.Add(v, p.Grad)

		var step mat.Dense
		step.Scale(o.LR, v)
		p.Value.Sub(p.Value, &step)
	}
}
