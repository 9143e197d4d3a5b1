package audio

import "github.com/gopxl/beep"

// duckFadeSpeed is the per-tick step for duck_progress, giving a ~300ms
// full transition at the 50ms tick rate (1/0.15 ≈ 6.67 ticks).
const duckFadeSpeed = 0.15

// SoundboardController owns the single one-shot soundboard voice and the
// sidechain ducking state it drives (§4.7).
type SoundboardController struct {
	Sink *Sink

	DuckAmount   float64
	duckTarget   float64
	DuckProgress float64
}

// NewSoundboardController returns a controller with nothing playing and
// ducking at rest.
func NewSoundboardController() *SoundboardController {
	return &SoundboardController{}
}

// Play implements PlaySoundboard: stop any existing soundboard sink and
// start the sidechain ducking engagement.
func (s *SoundboardController) Play(cache *AudioCache, path string, volume float64, targetRate beep.SampleRate) error {
	if s.Sink != nil {
		s.Sink.Stop()
	}
	chain, err := OpenChain(cache, path, NeutralProfile, targetRate, nil)
	if err != nil {
		return err
	}
	sink := NewSink()
	sink.SetVolume(clamp01(volume))
	sink.Append(chain)
	s.Sink = sink
	s.duckTarget = 1
	return nil
}

// Stop implements StopSoundboard: release duck_target, letting the ducking
// interpolation (§4.9 step 4) ease it back to 0.
func (s *SoundboardController) Stop() {
	if s.Sink != nil {
		s.Sink.Stop()
	}
	s.duckTarget = 0
}

// CheckEnded implements the §4.9 step 3 soundboard-end check: if the sink
// has drained, clear the voice and release the duck target.
func (s *SoundboardController) CheckEnded() {
	if s.Sink != nil && s.Sink.Empty() {
		s.Sink = nil
		s.duckTarget = 0
	}
}

// TickDucking implements §4.9 step 4: move duck_progress toward duck_target
// by duckFadeSpeed per tick. It reports whether ducking is active (progress
// or target nonzero), telling the caller to refresh music/ambient gains.
func (s *SoundboardController) TickDucking() (active bool) {
	if s.DuckProgress != s.duckTarget {
		if s.duckTarget > s.DuckProgress {
			s.DuckProgress += duckFadeSpeed
			if s.DuckProgress > s.duckTarget {
				s.DuckProgress = s.duckTarget
			}
		} else {
			s.DuckProgress -= duckFadeSpeed
			if s.DuckProgress < s.duckTarget {
				s.DuckProgress = s.duckTarget
			}
		}
	}
	return s.DuckProgress > 0 || s.duckTarget != s.DuckProgress
}
