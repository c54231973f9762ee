// Package audio converts raw waveforms into model features.
package audio

// Resample converts wave from one sample rate to another by linear
// interpolation. The input is returned unchanged when the rates match.
func Resample(wave []float64, from, to int) []float64 {
	if from == to || len(wave) == 0 {
		return wave
	}
	outLen := int(float64(len(wave)) * float64(to) / float64(from))
	if outLen == 0 {
		return nil
	}
	out := make([]float64, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(wave)-1 {
			out[i] = wave[len(wave)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = wave[idx]*(1-frac) + wave[idx+1]*frac
	}
	return out
}

// MixDown averages multichannel audio into mono. Mono input is returned
// unchanged.
func MixDown(channels [][]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	if len(channels) == 1 {
		return channels[0]
	}
	n := len(channels[0])
	out := make([]float64, n)
	inv := 1.0 / float64(len(channels))
	for _, ch := range channels {
		for i := 0; i < n && i < len(ch); i++ {
			out[i] += ch[i] * inv
		}
	}
	return out
}

// FitLength pads wave with trailing zeros or truncates it to n samples.
func FitLength(wave []float64, n int) []float64 {
	if len(wave) == n {
		return wave
	}
	if len(wave) > n {
		return wave[:n]
	}
	out := make([]float64, n)
	copy(out, wave)
	return out
}
