package audio

import "testing"

func TestSoundboardDuckingRampsUpAndDown(t *testing.T) {
	s := NewSoundboardController()
	s.duckTarget = 1

	var last float64
	active := false
	for i := 0; i < 10; i++ {
		active = s.TickDucking()
		last = s.DuckProgress
		if last >= 1 {
			break
		}
	}
	if last != 1 {
		t.Fatalf("expected duck_progress to reach 1.0, got %v", last)
	}
	if !active {
		t.Error("expected ducking to report active while ramped up")
	}

	s.duckTarget = 0
	for i := 0; i < 10; i++ {
		s.TickDucking()
		if s.DuckProgress == 0 {
			break
		}
	}
	if s.DuckProgress != 0 {
		t.Fatalf("expected duck_progress to settle back to 0, got %v", s.DuckProgress)
	}
}

func TestSoundboardDuckingStepSize(t *testing.T) {
	s := NewSoundboardController()
	s.duckTarget = 1
	s.TickDucking()
	if s.DuckProgress != duckFadeSpeed {
		t.Errorf("expected first step to move exactly duckFadeSpeed, got %v", s.DuckProgress)
	}
}

func TestSoundboardCheckEndedClearsVoice(t *testing.T) {
	s := NewSoundboardController()
	s.Sink = NewSink()
	s.Sink.Append(chainFor(&constStreamer{val: [2]float64{1, 1}, n: 1}))
	s.duckTarget = 1

	buf := make([][2]float64, 4)
	s.Sink.Stream(buf) // drains the one-sample chain

	s.CheckEnded()
	if s.Sink != nil {
		t.Error("expected sink to be cleared once drained")
	}
	if s.duckTarget != 0 {
		t.Error("expected duck_target released to 0 on end")
	}
}

func TestSoundboardStopReleasesDuckTarget(t *testing.T) {
	s := NewSoundboardController()
	s.Sink = NewSink()
	s.Sink.Append(chainFor(&constStreamer{val: [2]float64{1, 1}, n: 100}))
	s.duckTarget = 1

	s.Stop()
	if s.duckTarget != 0 {
		t.Error("expected Stop to release duck_target to 0")
	}
	if !s.Sink.Empty() {
		t.Error("expected Stop to clear the sink's queue")
	}
}
