package audio

import "sync"

// Sink is the Go analogue of rodio's Sink: a queue of streamers played back
// to back, with volume, pause and stop controls. Sink itself implements
// beep.Streamer so it can be appended directly to the engine's beep.Mixer.
//
// Unlike beep.Mixer, a Sink has no built-in way to signal "I'm done" other
// than returning (0, false) from Stream. Stop marks the sink terminated;
// once terminated and the queue is drained, Stream reports (0, false) on
// every call, so the owning Mixer drops it on its next pull.
type Sink struct {
	mu         sync.Mutex
	queue      []*Chain
	current    *Chain
	volume     float64
	paused     bool
	terminated bool
}

// NewSink returns an empty, unpaused sink at full volume.
func NewSink() *Sink {
	return &Sink{volume: 1.0}
}

// Append adds a chain to the back of the queue. If the sink is idle (no
// current chain), the new chain becomes current immediately.
func (s *Sink) Append(c *Chain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		s.current = c
	} else {
		s.queue = append(s.queue, c)
	}
	s.terminated = false
}

// SetVolume sets linear playback volume, clamped to [0,1].
func (s *Sink) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = clamp01(v)
	s.mu.Unlock()
}

// Volume returns the current linear playback volume.
func (s *Sink) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Pause silences output without discarding queued chains.
func (s *Sink) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// Resume un-pauses playback.
func (s *Sink) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// IsPaused reports whether the sink is paused.
func (s *Sink) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Stop clears the queue and marks the sink for removal from its Mixer on
// the next Stream call.
func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	for _, c := range s.queue {
		c.Close()
	}
	s.queue = nil
	s.terminated = true
}

// Empty reports whether the sink has nothing left to play.
func (s *Sink) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == nil && len(s.queue) == 0
}

// Current returns the chain presently playing, or nil if idle.
func (s *Sink) Current() *Chain {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Stream implements beep.Streamer. It pulls from the current chain,
// advancing to the next queued one on exhaustion, applies volume scaling,
// and silences output while paused. Once terminated with an empty queue it
// reports (0, false) so the hosting Mixer auto-removes it.
func (s *Sink) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated && s.current == nil && len(s.queue) == 0 {
		return 0, false
	}

	if s.paused || s.current == nil {
		for i := range samples {
			samples[i] = [2]float64{0, 0}
		}
		return len(samples), true
	}

	filled := 0
	for filled < len(samples) {
		n, ok := s.current.Streamer.Stream(samples[filled:])
		filled += n
		if !ok {
			s.current.Close()
			if len(s.queue) > 0 {
				s.current = s.queue[0]
				s.queue = s.queue[1:]
				continue
			}
			s.current = nil
			break
		}
		if n == 0 {
			break
		}
	}

	for i := 0; i < filled; i++ {
		samples[i][0] *= s.volume
		samples[i][1] *= s.volume
	}
	for i := filled; i < len(samples); i++ {
		samples[i] = [2]float64{0, 0}
	}

	return len(samples), true
}

// Err reports the current chain's decode error, if any.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.Streamer.Err()
}
