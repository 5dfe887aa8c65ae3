package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the one-sided spectrum of data with
// its mean removed. Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the strongest non-DC frequency in Hz of a series
// sampled every dt seconds, and its magnitude. A flat series yields zero.
func DominantFrequency(data []float64, dt float64) (freq, magnitude float64) {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0, 0
	}

	best := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > magnitude {
			magnitude = ps[i]
			best = i
		}
	}
	if best == 0 {
		return 0, 0
	}
	return float64(best) / (float64(len(data)) * dt), magnitude
}
