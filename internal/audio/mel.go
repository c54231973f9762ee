package audio

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// Transform is a deterministic feature extractor over a raw waveform.
type Transform interface {
	Apply(wave []float64) (*mat.Dense, error)
}

// Defaults matching the reference preprocessing.
const (
	DefaultNFFT      = 2048
	DefaultHopLength = 512
	DefaultNMels     = 128
)

// MelSpectrogram computes a power mel spectrogram: Hann-windowed STFT
// followed by an HTK-scale triangular mel filterbank.
type MelSpectrogram struct {
	SampleRate int
	NFFT       int
	HopLength  int
	NMels      int

	fft        *fourier.FFT
	window     []float64
	filterbank *mat.Dense // [NMels x NFFT/2+1]
}

// NewMelSpectrogram constructs the transform with default frame settings.
func NewMelSpectrogram(sampleRate int) *MelSpectrogram {
	m := &MelSpectrogram{
		SampleRate: sampleRate,
		NFFT:       DefaultNFFT,
		HopLength:  DefaultHopLength,
		NMels:      DefaultNMels,
	}
	m.init()
	return m
}

func (m *MelSpectrogram) init() {
	m.fft = fourier.NewFFT(m.NFFT)
	m.window = hann(m.NFFT)
	m.filterbank = melFilterbank(m.NMels, m.NFFT, m.SampleRate)
}

// Apply returns the spectrogram as an [NMels x frames] matrix.
func (m *MelSpectrogram) Apply(wave []float64) (*mat.Dense, error) {
	if len(wave) == 0 {
		return nil, errors.New("audio: empty waveform")
	}
	if m.fft == nil {
		m.init()
	}

	// Center the frames: pad NFFT/2 zeros on both ends so that frame i
	// is centered on sample i*hop, giving 1 + len/hop frames.
	pad := m.NFFT / 2
	padded := make([]float64, pad+len(wave)+pad)
	copy(padded[pad:], wave)

	frames := 1 + len(wave)/m.HopLength
	bins := m.NFFT/2 + 1
	coeffs := make([]complex128, bins)
	frame := make([]float64, m.NFFT)
	power := make([]float64, bins)

	out := mat.NewDense(m.NMels, frames, nil)
	melRow := make([]float64, m.NMels)
	for f := 0; f < frames; f++ {
		start := f * m.HopLength
		for i := 0; i < m.NFFT; i++ {
			frame[i] = padded[start+i] * m.window[i]
		}
		m.fft.Coefficients(coeffs, frame)
		for i, c := range coeffs {
			power[i] = real(c)*real(c) + imag(c)*imag(c)
		}
		fb := m.filterbank.RawMatrix()
		for mel := 0; mel < m.NMels; mel++ {
			sum := 0.0
			row := fb.Data[mel*fb.Stride : mel*fb.Stride+bins]
			for i, w := range row {
				sum += w * power[i]
			}
			melRow[mel] = sum
		}
		for mel := 0; mel < m.NMels; mel++ {
			out.Set(mel, f, melRow[mel])
		}
	}
	return out, nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// hertzToMel uses the HTK mel scale.
func hertzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHertz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// melFilterbank builds nMels triangular filters spanning 0..sampleRate/2.
func melFilterbank(nMels, nfft, sampleRate int) *mat.Dense {
	bins := nfft/2 + 1
	fb := mat.NewDense(nMels, bins, nil)

	low := hertzToMel(0)
	high := hertzToMel(float64(sampleRate) / 2)
	points := make([]float64, nMels+2)
	for i := range points {
		mel := low + (high-low)*float64(i)/float64(nMels+1)
		points[i] = melToHertz(mel)
	}

	binHz := float64(sampleRate) / float64(nfft)
	for mel := 0; mel < nMels; mel++ {
		left, center, right := points[mel], points[mel+1], points[mel+2]
		for b := 0; b < bins; b++ {
			hz := float64(b) * binHz
			switch {
			case hz <= left || hz >= right:
				// outside the triangle
			case hz <= center:
				if center > left {
					fb.Set(mel, b, (hz-left)/(center-left))
				}
			default:
				if right > center {
					fb.Set(mel, b, (right-hz)/(right-center))
				}
			}
		}
	}
	return fb
}
