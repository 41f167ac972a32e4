package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

var ErrTooShort = errors.New("analysis: series needs at least 4 samples")

// PowerSpectrum returns the magnitudes of the first half of the transform
// of data.
func PowerSpectrum(data []float64) []float64 {
	spec := fft.FFTReal(data)
	ps := make([]float64, len(spec)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// Pad removes the mean of data, applies a Hann window and zero-pads the
// result to the next power of two.
func Pad(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	padded := make([]float64, n)
	for i, v := range data {
		padded[i] = v - mean
	}
	window.Apply(padded[:len(data)], window.Hann)
	return padded
}

type Spectrum struct {
	Power []float64
	// BinWidth is the frequency step between bins in Hz.
	BinWidth float64
	Dominant float64
	Peak     float64
}

// Period of the dominant frequency, or 0 when the series is flat.
func (s *Spectrum) Period() float64 {
	if s.Dominant <= 0 {
		return 0
	}
	return 1 / s.Dominant
}

// Analyze computes the spectrum of a metric sampled every interval seconds.
// The DC bin is skipped when looking for the dominant frequency.
func Analyze(series []float64, interval float64) (*Spectrum, error) {
	if len(series) < 4 {
		return nil, ErrTooShort
	}
	if !(interval > 0) {
		return nil, errors.New("analysis: sample interval must be positive")
	}
	padded := Pad(series)
	ps := PowerSpectrum(padded)

	s := &Spectrum{Power: ps, BinWidth: 1 / (float64(len(padded)) * interval)}
	idx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > s.Peak {
			s.Peak = ps[i]
			idx = i
		}
	}
	s.Dominant = float64(idx) * s.BinWidth
	return s, nil
}
