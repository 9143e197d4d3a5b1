package audio

import (
	"testing"
	"time"

	"github.com/TenVexAI/soundscapes/internal/collab"
)

func TestMusicControllerPlaySetsUpFadeIn(t *testing.T) {
	mc := &MusicController{CrossfadeDuration: 2.0, ring: NewSampleRing()}
	mc.Sink = NewSink()
	mc.Sink.Append(chainFor(&constStreamer{val: [2]float64{1, 1}, n: 100}))

	// Bypass OpenChain (needs a real file); exercise fade bookkeeping
	// directly the way Play would leave it.
	now := time.Now()
	mc.Sink.SetVolume(0)
	mc.fadeInStart = now
	mc.fadeInDuration = mc.CrossfadeDuration
	mc.fadeInActive = true
	mc.Track = &TrackInfo{ID: "t1"}
	mc.TrackStart = now
	mc.TrackDuration = 10

	masters := Masters{MusicVolume: 1, MasterVolume: 1}
	mc.Tick(now, masters, 0, 0)
	if mc.Sink.Volume() != 0 {
		t.Errorf("expected gain ~0 at fade-in start, got %v", mc.Sink.Volume())
	}

	mc.Tick(now.Add(2500*time.Millisecond), masters, 0, 0)
	if mc.fadeInActive {
		t.Error("expected fade-in to complete after crossfade_duration elapses")
	}
	if mc.Sink.Volume() < 0.99 {
		t.Errorf("expected full gain after fade-in completes, got %v", mc.Sink.Volume())
	}
}

func TestMusicControllerMuteZeroesGain(t *testing.T) {
	mc := &MusicController{ring: NewSampleRing()}
	mc.Sink = NewSink()
	mc.Sink.Append(chainFor(&constStreamer{val: [2]float64{1, 1}, n: 100}))
	mc.Track = &TrackInfo{ID: "t1"}
	mc.TrackStart = time.Now()
	mc.TrackDuration = 10

	mc.Tick(time.Now(), Masters{MusicVolume: 1, MasterVolume: 1, MasterMuted: true}, 0, 0)
	if mc.Sink.Volume() != 0 {
		t.Errorf("expected zero gain when master muted, got %v", mc.Sink.Volume())
	}
}

func TestMusicControllerFadeOutNearEnd(t *testing.T) {
	mc := &MusicController{CrossfadeDuration: 4.0, ring: NewSampleRing()}
	mc.Sink = NewSink()
	mc.Sink.Append(chainFor(&constStreamer{val: [2]float64{1, 1}, n: 100}))
	mc.Track = &TrackInfo{ID: "t1"}
	now := time.Now()
	mc.TrackStart = now.Add(-8 * time.Second) // 8s elapsed of a 10s track
	mc.TrackDuration = 10

	mc.Tick(now, Masters{MusicVolume: 1, MasterVolume: 1}, 0, 0)
	if !mc.fadeOutActive {
		t.Fatal("expected fade-out to activate within crossfade_duration of the end")
	}
	if mc.Sink.Volume() >= 1 {
		t.Errorf("expected reduced gain during fade-out, got %v", mc.Sink.Volume())
	}
}

func TestMusicControllerAutoAdvanceQueuesNextTick(t *testing.T) {
	playlist := collab.NewMemoryPlaylists()
	playlist.SetPlaylist("p1", []collab.PlaylistTrack{
		{ID: "a", File: "a.ogg"}, {ID: "b", File: "b.ogg"},
	})
	playlist.Activate("p1")

	mc := &MusicController{ring: NewSampleRing(), playlist: playlist}
	mc.Sink = NewSink()
	mc.Sink.Append(chainFor(&constStreamer{val: [2]float64{1, 1}, n: 1}))
	mc.Track = &TrackInfo{ID: "a", FilePath: "a.ogg"}
	mc.wasPlaying = true

	now := time.Now()
	// Drain the sink so it reports empty on the next Tick.
	buf := make([][2]float64, 4)
	mc.Sink.Stream(buf)

	mc.Tick(now, Masters{MusicVolume: 1, MasterVolume: 1}, 0, 0)
	if mc.pendingPath != "b.ogg" {
		t.Fatalf("expected auto-advance to queue b.ogg, got %q", mc.pendingPath)
	}

	snap := playlist.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Errorf("expected playlist index advanced to 1, got %d", snap.CurrentIndex)
	}
}

func TestMusicControllerProgressReportsFinished(t *testing.T) {
	mc := &MusicController{ring: NewSampleRing()}
	if mc.Progress(time.Now()).IsFinished != false {
		t.Error("expected empty controller progress to report not-finished when no track is loaded")
	}
	mc.Track = &TrackInfo{ID: "a"}
	mc.TrackStart = time.Now()
	mc.TrackDuration = 10
	mc.Sink = nil
	if !mc.Progress(time.Now()).IsFinished {
		t.Error("expected IsFinished true when sink is nil")
	}
}
