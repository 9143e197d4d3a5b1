package audio

import "github.com/gopxl/beep"

// tapStreamer pushes every emitted sample (both channels, averaged to mono for
// the ring — the analyzer only needs a mono spectrum per voice) into the
// owning SampleRing and otherwise passes the signal through untouched.
type tapStreamer struct {
	s    beep.Streamer
	ring *SampleRing
}

func newTap(s beep.Streamer, ring *SampleRing) *tapStreamer {
	return &tapStreamer{s: s, ring: ring}
}

func (t *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	if t.ring != nil {
		for i := 0; i < n; i++ {
			mono := (samples[i][0] + samples[i][1]) / 2
			t.ring.Push(float32(mono))
		}
	}
	return n, ok
}

func (t *tapStreamer) Err() error { return t.s.Err() }
