package audio

import "testing"

func TestStateStoreProgressRoundTrip(t *testing.T) {
	s := NewStateStore()
	s.SetProgress(AudioProgress{CurrentTime: 12.5, Duration: 180, IsPlaying: true})
	got := s.Progress()
	if got.CurrentTime != 12.5 || got.Duration != 180 || !got.IsPlaying {
		t.Errorf("unexpected progress snapshot: %+v", got)
	}
}

func TestStateStoreActiveAmbientsCopyIsolated(t *testing.T) {
	s := NewStateStore()
	s.SetActiveAmbients(map[string]ActiveAmbientInfo{
		"forest": {ID: "forest", FileA: "a.ogg"},
	})
	snap := s.ActiveAmbients()
	snap["forest"] = ActiveAmbientInfo{ID: "mutated"}

	again := s.ActiveAmbients()
	if again["forest"].ID != "forest" {
		t.Error("expected mutating a returned snapshot to not affect the store")
	}
}

func TestStateStoreCurrentTrackNilWhenUnset(t *testing.T) {
	s := NewStateStore()
	if s.CurrentTrack() != nil {
		t.Error("expected nil current track on a fresh store")
	}
	s.SetCurrentTrack(&CurrentTrackInfo{TrackInfo: TrackInfo{ID: "t1"}})
	got := s.CurrentTrack()
	if got == nil || got.ID != "t1" {
		t.Fatalf("expected current track t1, got %+v", got)
	}
}
