package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// lowPassStreamer is a one-pole IIR low-pass filter with independent state
// per channel. At cutoff = 22000 Hz the filter is effectively transparent,
// per spec.
type lowPassStreamer struct {
	s          beep.Streamer
	alpha      float64
	prev       [2]float64
	sampleRate float64
}

func newLowPass(s beep.Streamer, cutoffHz float64, sampleRate float64) *lowPassStreamer {
	l := &lowPassStreamer{s: s, sampleRate: sampleRate}
	l.setCutoff(cutoffHz)
	return l
}

func (l *lowPassStreamer) setCutoff(cutoffHz float64) {
	cutoffHz = clampCutoff(cutoffHz)
	dt := 1.0 / l.sampleRate
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	l.alpha = dt / (rc + dt)
}

func clampCutoff(hz float64) float64 {
	if hz < 20 {
		return 20
	}
	if hz > 22000 {
		return 22000
	}
	return hz
}

func (l *lowPassStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := l.s.Stream(samples)
	a := l.alpha
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			y := a*samples[i][ch] + (1-a)*l.prev[ch]
			l.prev[ch] = y
			samples[i][ch] = y
		}
	}
	return n, ok
}

func (l *lowPassStreamer) Err() error { return l.s.Err() }
