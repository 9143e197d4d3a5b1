package audio

import "github.com/gopxl/beep"

// panStreamer implements the stereo pan stage. Gains are asymmetric, not
// equal-power — see DESIGN.md for why that deviation from a textbook pan is
// kept. Mono streams are untouched: OpenChain inserts this stage only for
// files decoded as stereo, so a mono file (which beep upmixes to two
// identical channels) is never panned. The gain formula itself degenerates
// to a no-op at pan=0.
type panStreamer struct {
	s        beep.Streamer
	pan      float64 // [-1,1]
	gainL    float64
	gainR    float64
}

func newPan(s beep.Streamer, pan float64) *panStreamer {
	p := &panStreamer{s: s}
	p.setPan(pan)
	return p
}

func (p *panStreamer) setPan(pan float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	p.pan = pan
	if pan <= 0 {
		p.gainL = 1
		p.gainR = 1 + pan
	} else {
		p.gainL = 1 - pan
		p.gainR = 1
	}
}

func (p *panStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := p.s.Stream(samples)
	for i := 0; i < n; i++ {
		samples[i][0] *= p.gainL
		samples[i][1] *= p.gainR
	}
	return n, ok
}

func (p *panStreamer) Err() error { return p.s.Err() }
