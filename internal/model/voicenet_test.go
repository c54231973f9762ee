package model

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"void-forge/internal/nn"
)

func trainStep(t *testing.T, net *VoiceNet, opt *nn.SGD, batch Batch) float64 {
	t.Helper()
	logits := net.Forward(batch.Inputs, Train)
	loss := nn.CrossEntropy{}.Forward(logits, batch.Labels)
	nn.ZeroGrad(net.Parameters())
	if err := net.Backward(nn.CrossEntropy{}.Backward(logits, batch.Labels)); err != nil {
		t.Fatalf("backward: %v", err)
	}
	opt.Step(net.Parameters())
	return loss
}

func TestVoiceNetTrainStepReducesLoss(t *testing.T) {
	net := NewVoiceNet(3, 4, 8, 0, 1)
	opt := nn.NewSGD(0.1, 0)
	batch := Batch{
		Inputs: mat.NewDense(2, 4, []float64{
			0.1, 0.2, 0.3, 0.4,
			0.4, 0.3, 0.2, 0.1,
		}),
		Labels: []int{1, 2},
	}
	loss1 := trainStep(t, net, opt, batch)
	var lossN float64
	for i := 0; i < 20; i++ {
		lossN = trainStep(t, net, opt, batch)
	}
	if lossN >= loss1 {
		t.Fatalf("expected loss to decrease; first=%f last=%f", loss1, lossN)
	}
}

func TestVoiceNetEvalForwardDeterministic(t *testing.T) {
	net := NewVoiceNet(3, 4, 8, 0.5, 7)
	x := mat.NewDense(1, 4, []float64{0.5, -0.2, 0.1, 0.9})
	a := net.Forward(x, Eval)
	b := net.Forward(x, Eval)
	if !mat.EqualApprox(a, b, 0) {
		t.Fatalf("eval forward is not deterministic:\n%v\n%v", mat.Formatted(a), mat.Formatted(b))
	}
}

func TestVoiceNetBackwardAfterEvalFails(t *testing.T) {
	net := NewVoiceNet(2, 3, 4, 0, 1)
	x := mat.NewDense(1, 3, []float64{1, 2, 3})
	net.Forward(x, Eval)
	err := net.Backward(mat.NewDense(1, 2, []float64{0.5, -0.5}))
	if !errors.Is(err, ErrNoCache) {
		t.Fatalf("expected ErrNoCache after eval forward, got %v", err)
	}
	for i, p := range net.Parameters() {
		r, c := p.Grad.Dims()
		if !mat.Equal(p.Grad, mat.NewDense(r, c, nil)) {
			t.Fatalf("parameter %d gradient mutated by rejected backward", i)
		}
	}
}

func TestVoiceNetEvalLeavesParametersUntouched(t *testing.T) {
	net := NewVoiceNet(2, 3, 4, 0.5, 1)
	before := make([][]float64, 0, 4)
	for _, p := range net.Parameters() {
		before = append(before, rawData(p.Value))
	}
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	net.Forward(x, Eval)
	for i, p := range net.Parameters() {
		after := rawData(p.Value)
		for j := range after {
			if after[j] != before[i][j] {
				t.Fatalf("parameter %d changed during eval forward", i)
			}
		}
	}
}

func TestVoiceNetBackwardConsumesCache(t *testing.T) {
	net := NewVoiceNet(2, 3, 4, 0, 1)
	x := mat.NewDense(1, 3, []float64{1, 0, -1})
	net.Forward(x, Train)
	grad := mat.NewDense(1, 2, []float64{1, -1})
	if err := net.Backward(grad); err != nil {
		t.Fatalf("first backward: %v", err)
	}
	if err := net.Backward(grad); !errors.Is(err, ErrNoCache) {
		t.Fatalf("second backward should fail, got %v", err)
	}
}
