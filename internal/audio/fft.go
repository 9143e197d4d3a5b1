package audio

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

const (
	fftSize     = 1024
	fftBins     = 512 // positive-frequency half of a 1024-point real FFT
	numBuckets  = 64
	binsPerBucket = fftBins / numBuckets
)

// hannWindow is precomputed once; a forward FFT re-applies the identical
// window every tick, so there is no reason to recompute the cosine table
// per call.
var hannWindow = func() [fftSize]float64 {
	var w [fftSize]float64
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return w
}()

// analyzeSpectrum implements §4.8: window the most recent fftSize samples,
// run a forward FFT, bucket the positive-frequency half into numBuckets
// groups, and remap to a perceptual log scale in [0,1].
func analyzeSpectrum(samples []float32) [numBuckets]float64 {
	var out [numBuckets]float64
	if len(samples) == 0 {
		return out
	}

	windowed := make([]float64, fftSize)
	n := len(samples)
	for i := 0; i < fftSize; i++ {
		if i < n {
			windowed[i] = float64(samples[i]) * hannWindow[i]
		}
	}

	spectrum := fft.FFTReal(windowed)

	for bucket := 0; bucket < numBuckets; bucket++ {
		var sum float64
		base := bucket * binsPerBucket
		for i := 0; i < binsPerBucket; i++ {
			c := spectrum[base+i]
			sum += math.Hypot(real(c), imag(c))
		}
		mag := sum / float64(binsPerBucket)
		out[bucket] = clampUnit(math.Log(1+50*mag) / 5)
	}
	return out
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SpectrumAnalyzer runs the music and ambient FFTs each tick, skipping the
// ambient spectrum (reporting all zeros) when no ambient voice is audible
// to avoid noise-floor artifacts per §4.8.
type SpectrumAnalyzer struct {
	musicRing   *SampleRing
	ambientRing *SampleRing
}

// NewSpectrumAnalyzer returns an analyzer reading from the given rings.
func NewSpectrumAnalyzer(musicRing, ambientRing *SampleRing) *SpectrumAnalyzer {
	return &SpectrumAnalyzer{musicRing: musicRing, ambientRing: ambientRing}
}

// Tick runs both FFTs and returns the pair of 64-element spectra.
func (a *SpectrumAnalyzer) Tick(ambientAudible bool) (music, ambient [numBuckets]float64) {
	music = analyzeSpectrum(a.musicRing.Latest(fftSize))
	if ambientAudible {
		ambient = analyzeSpectrum(a.ambientRing.Latest(fftSize))
	}
	return
}
