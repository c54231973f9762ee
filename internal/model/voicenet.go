package model

import (
	"errors"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"void-forge/internal/nn"
)

// ErrNoCache indicates Backward was called without a preceding
// Train-mode forward pass. An Eval-mode forward records no activations,
// so gradient computation after it is impossible by construction.
var ErrNoCache = errors.New("model: backward without a train-mode forward")

// VoiceNet is a two-layer classifier over flattened spectrogram features:
// linear -> ReLU -> dropout -> linear.
type VoiceNet struct {
	inputSize  int
	hiddenSize int
	numClasses int
	dropout    float64

	w1, b1 *nn.Param // hidden layer, weights [hidden x input]
	w2, b2 *nn.Param // output layer, weights [classes x hidden]

	rng   *rand.Rand
	cache *forwardCache
}

// forwardCache holds the activations of one Train-mode forward pass.
type forwardCache struct {
	input  *mat.Dense
	hidden *mat.Dense // post-ReLU, post-dropout
	mask   *mat.Dense // inverted-dropout mask applied to hidden
}

// NewVoiceNet constructs the network with random initialization.
func NewVoiceNet(numClasses, inputSize, hiddenSize int, dropout float64, seed int64) *VoiceNet {
	if numClasses <= 0 {
		numClasses = 10
	}
	if inputSize <= 0 {
		inputSize = 64
	}
	if hiddenSize <= 0 {
		hiddenSize = 128
	}
	rng := rand.New(rand.NewSource(seed))
	net := &VoiceNet{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		numClasses: numClasses,
		dropout:    dropout,
		w1:         nn.NewParam(hiddenSize, inputSize),
		b1:         nn.NewParam(1, hiddenSize),
		w2:         nn.NewParam(numClasses, hiddenSize),
		b2:         nn.NewParam(1, numClasses),
		rng:        rng,
	}
	initUniform(net.w1.Value, rng)
	initUniform(net.w2.Value, rng)
	return net
}

func initUniform(w *mat.Dense, rng *rand.Rand) {
	r, c := w.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w.Set(i, j, (rng.Float64()*2-1)*0.01)
		}
	}
}

// Forward maps inputs [B x inputSize] to logits [B x numClasses].
func (m *VoiceNet) Forward(x *mat.Dense, mode Mode) *mat.Dense {
	batch, _ := x.Dims()

	hidden := &mat.Dense{}
	hidden.Mul(x, m.w1.Value.T())
	addRowVector(hidden, m.b1.Value)
	relu(hidden)

	var mask *mat.Dense
	if mode == Train && m.dropout > 0 {
		mask = m.dropoutMask(batch)
		hidden.MulElem(hidden, mask)
	}

	logits := &mat.Dense{}
	logits.Mul(hidden, m.w2.Value.T())
	addRowVector(logits, m.b2.Value)

	if mode == Train {
		m.cache = &forwardCache{input: x, hidden: hidden, mask: mask}
	} else {
		m.cache = nil
	}
	return logits
}

// Backward consumes the cached forward activations and accumulates
// gradients into the parameters. One Backward per Train-mode Forward.
func (m *VoiceNet) Backward(dLogits *mat.Dense) error {
	if m.cache == nil {
		return ErrNoCache
	}
	cache := m.cache
	m.cache = nil

	// Output layer.
	dW2 := &mat.Dense{}
	dW2.Mul(dLogits.T(), cache.hidden)
	m.w2.Grad.Add(m.w2.Grad, dW2)
	accumColSums(m.b2.Grad, dLogits)

	// Into the hidden layer.
	dHidden := &mat.Dense{}
	dHidden.Mul(dLogits, m.w2.Value)
	if cache.mask != nil {
		dHidden.MulElem(dHidden, cache.mask)
	}
	reluGrad(dHidden, cache.hidden)

	dW1 := &mat.Dense{}
	dW1.Mul(dHidden.T(), cache.input)
	m.w1.Grad.Add(m.w1.Grad, dW1)
	accumColSums(m.b1.Grad, dHidden)

	return nil
}

// Parameters returns the trainable parameters in a stable order.
func (m *VoiceNet) Parameters() []*nn.Param {
	return []*nn.Param{m.w1, m.b1, m.w2, m.b2}
}

// InputSize returns the expected feature-vector length.
func (m *VoiceNet) InputSize() int { return m.inputSize }

// Classes returns the size of the output class dimension.
func (m *VoiceNet) Classes() int { return m.numClasses }

func (m *VoiceNet) dropoutMask(batch int) *mat.Dense {
	keep := 1 - m.dropout
	scale := 1 / keep
	mask := mat.NewDense(batch, m.hiddenSize, nil)
	for i := 0; i < batch; i++ {
		for j := 0; j < m.hiddenSize; j++ {
			if m.rng.Float64() < keep {
				mask.Set(i, j, scale)
			}
		}
	}
	return mask
}

// addRowVector adds a [1 x n] bias row to every row of dst.
func addRowVector(dst *mat.Dense, row *mat.Dense) {
	r, c := dst.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, dst.At(i, j)+row.At(0, j))
		}
	}
}

// accumColSums adds the column sums of src into the [1 x n] gradient dst.
func accumColSums(dst *mat.Dense, src *mat.Dense) {
	r, c := src.Dims()
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += src.At(i, j)
		}
		dst.Set(0, j, dst.At(0, j)+sum)
	}
}

func relu(m *mat.Dense) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) < 0 {
				m.Set(i, j, 0)
			}
		}
	}
}

// reluGrad zeroes entries of grad where the activation was clamped.
func reluGrad(grad *mat.Dense, activation *mat.Dense) {
	r, c := grad.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if activation.At(i, j) <= 0 {
				grad.Set(i, j, 0)
			}
		}
	}
}
