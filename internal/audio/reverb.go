package audio

import "github.com/gopxl/beep"

// reverbStreamer implements a Schroeder reverb: 4 parallel comb filters
// followed by 2 series allpass filters, per channel. Delay lengths,
// feedback and allpass coefficients are fixed constants from the original
// design, not user-tunable — only mix is.
type reverbStreamer struct {
	s   beep.Streamer
	mix float64

	combBuf  [2][4][]float64
	combPos  [2][4]int
	allBuf   [2][2][]float64
	allPos   [2][2]int
}

var combDelaySeconds = [4]float64{0.0797, 0.0903, 0.1100, 0.1277}
var allpassDelaySeconds = [2]float64{0.0220, 0.0074}

const (
	reverbCombFeedback   = 0.95
	reverbAllpassCoeff   = 0.7
	reverbWetGain        = 2.5
)

func newReverb(s beep.Streamer, mix float64, sampleRate float64) *reverbStreamer {
	r := &reverbStreamer{s: s, mix: clamp01(mix)}
	for ch := 0; ch < 2; ch++ {
		for i, d := range combDelaySeconds {
			n := int(d * sampleRate)
			if n < 1 {
				n = 1
			}
			r.combBuf[ch][i] = make([]float64, n)
		}
		for i, d := range allpassDelaySeconds {
			n := int(d * sampleRate)
			if n < 1 {
				n = 1
			}
			r.allBuf[ch][i] = make([]float64, n)
		}
	}
	return r
}

func (r *reverbStreamer) setMix(mix float64) { r.mix = clamp01(mix) }

func (r *reverbStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := r.s.Stream(samples)
	if r.mix < 0.001 {
		return n, ok
	}
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			samples[i][ch] = r.processSample(ch, samples[i][ch])
		}
	}
	return n, ok
}

func (r *reverbStreamer) processSample(ch int, x float64) float64 {
	var combSum float64
	for c := 0; c < 4; c++ {
		buf := r.combBuf[ch][c]
		pos := r.combPos[ch][c]
		delayed := buf[pos]
		buf[pos] = x + delayed*reverbCombFeedback
		r.combPos[ch][c] = (pos + 1) % len(buf)
		combSum += delayed
	}
	combSum *= 0.25

	allOut := combSum
	for a := 0; a < 2; a++ {
		buf := r.allBuf[ch][a]
		pos := r.allPos[ch][a]
		delayed := buf[pos]
		newVal := allOut + delayed*reverbAllpassCoeff
		allOut = delayed - reverbAllpassCoeff*newVal
		buf[pos] = newVal
		r.allPos[ch][a] = (pos + 1) % len(buf)
	}

	return x*(1-r.mix) + allOut*r.mix*reverbWetGain
}

func (r *reverbStreamer) Err() error { return r.s.Err() }
