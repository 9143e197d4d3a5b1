package collab

import "testing"

func TestNextTrackSequentialWraps(t *testing.T) {
	s := PlaylistState{
		Tracks: []PlaylistTrack{
			{ID: "a"}, {ID: "b"}, {ID: "c"},
		},
		CurrentIndex: 2,
		IsLooping:    true,
	}
	track, idx, ok := NextTrack(s)
	if !ok || idx != 0 || track.ID != "a" {
		t.Fatalf("expected wrap to index 0 (%q), got idx=%d track=%q ok=%v", "a", idx, track.ID, ok)
	}
}

func TestNextTrackSequentialStopsAtEnd(t *testing.T) {
	s := PlaylistState{
		Tracks: []PlaylistTrack{
			{ID: "a"}, {ID: "b"},
		},
		CurrentIndex: 1,
		IsLooping:    false,
	}
	_, _, ok := NextTrack(s)
	if ok {
		t.Fatal("expected no next track at the end of a non-looping playlist")
	}
}

func TestNextTrackEmptyPlaylist(t *testing.T) {
	_, _, ok := NextTrack(PlaylistState{})
	if ok {
		t.Fatal("expected no next track for an empty playlist")
	}
}

func TestMemoryPlaylistsAdvanceTo(t *testing.T) {
	p := NewMemoryPlaylists()
	p.SetPlaylist("p1", []PlaylistTrack{{ID: "a"}, {ID: "b"}})
	p.Activate("p1")

	p.AdvanceTo("p1", 1)
	snap := p.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Errorf("expected index 1, got %d", snap.CurrentIndex)
	}

	// AdvanceTo for a playlist that isn't current must be ignored.
	p.AdvanceTo("other", 0)
	snap = p.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Errorf("expected index to remain 1 after a stale AdvanceTo, got %d", snap.CurrentIndex)
	}
}

func TestMemorySchedulerAdvanceWraps(t *testing.T) {
	sched := NewMemoryScheduler("sched1", []ScheduledItem{
		{ID: "i1", MinMinutes: 1},
		{ID: "i2", MinMinutes: 1},
	})
	sched.Start()

	sched.Advance(60) // exhausts item 0's 1 minute (60s)
	snap := sched.Snapshot()
	if snap.CurrentItemIndex != 1 {
		t.Fatalf("expected advance to item 1, got %d", snap.CurrentItemIndex)
	}

	sched.Advance(60) // exhausts item 1, wraps
	snap = sched.Snapshot()
	if snap.CurrentItemIndex != 0 {
		t.Fatalf("expected wrap to item 0, got %d", snap.CurrentItemIndex)
	}
}

func TestMemoryPresetsNotFound(t *testing.T) {
	p := NewMemoryPresets()
	_, err := p.LoadPreset("missing")
	if err == nil {
		t.Fatal("expected an error for a missing preset id")
	}
}

func TestMemoryPresetsLoad(t *testing.T) {
	p := NewMemoryPresets()
	p.Add(Preset{ID: "forest", Name: "Forest"})
	got, err := p.LoadPreset("forest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Forest" {
		t.Errorf("expected name Forest, got %q", got.Name)
	}
}
