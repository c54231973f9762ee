package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss scores a batch of logits against integer class labels.
type Loss interface {
	// Forward returns the mean loss over the batch.
	Forward(logits *mat.Dense, labels []int) float64
	// Backward returns dLoss/dLogits, already scaled by 1/batch.
	Backward(logits *mat.Dense, labels []int) *mat.Dense
}

// CrossEntropy is softmax cross-entropy over the class dimension.
// No NaN guarding is performed; a degenerate loss propagates to the caller.
type CrossEntropy struct{}

func (CrossEntropy) Forward(logits *mat.Dense, labels []int) float64 {
	rows, _ := logits.Dims()
	total := 0.0
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, logits)
		total += logSumExp(row) - row[labels[i]]
	}
	return total / float64(rows)
}

func (CrossEntropy) Backward(logits *mat.Dense, labels []int) *mat.Dense {
	rows, cols := logits.Dims()
	grad := mat.NewDense(rows, cols, nil)
	inv := 1.0 / float64(rows)
	for i := 0; i < rows; i++ {
		probs := Softmax(mat.Row(nil, i, logits))
		for c, p := range probs {
			grad.Set(i, c, p*inv)
		}
		grad.Set(i, labels[i], (probs[labels[i]]-1)*inv)
	}
	return grad
}

// Softmax converts logits to probabilities, shifted by the max for stability.
func Softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	sum := 0.0
	out := make([]float64, len(logits))
	for i, v := range logits {
		exp := math.Exp(v - maxLogit)
		out[i] = exp
		sum += exp
	}
	inv := 1.0 / sum
	for i := range out {
		out[i] *= inv
	}
	return out
}

// logSumExp computes log(sum(exp(x))) shifted by the max.
func logSumExp(x []float64) float64 {
	maxVal := x[0]
	for _, v := range x {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	for _, v := range x {
		sum += math.Exp(v - maxVal)
	}
	return maxVal + math.Log(sum)
}
