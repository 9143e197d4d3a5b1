package audio

import (
	"testing"

	"github.com/TenVexAI/soundscapes/internal/collab"
	"github.com/gopxl/beep"
)

func newTestEngine() *Engine {
	return NewEngine(beep.SampleRate(44100), collab.NewMemoryPlaylists(), collab.NewMemoryScheduler("s1", nil), collab.NewMemoryPresets())
}

func TestEngineDispatchMasterControls(t *testing.T) {
	e := newTestEngine()

	e.dispatch(SetMasterVolume{Volume: 0.6})
	if e.Masters.MasterVolume != 0.6 {
		t.Errorf("expected MasterVolume 0.6, got %v", e.Masters.MasterVolume)
	}

	e.dispatch(SetMusicVolume{Volume: 0.3})
	if e.Masters.MusicVolume != 0.3 {
		t.Errorf("expected MusicVolume 0.3, got %v", e.Masters.MusicVolume)
	}

	e.dispatch(SetMasterMuted{Muted: true})
	if !e.Masters.MasterMuted {
		t.Error("expected MasterMuted true")
	}

	e.dispatch(SetAmbientMasterVolume{Volume: 1.5})
	if e.Masters.AmbientMasterVolume != 1 {
		t.Errorf("expected AmbientMasterVolume clamped to 1, got %v", e.Masters.AmbientMasterVolume)
	}
}

func TestEngineStopAmbientIdempotentDuringFadeOut(t *testing.T) {
	e := newTestEngine()
	e.ambientVoices["rain"] = &AmbientVoice{ID: "rain", State: PlayingA,
		Sink: NewSink()}

	e.stopAmbient("rain", false)
	if _, fading := e.fadesNormal.fadingOut["rain"]; !fading {
		t.Fatal("expected fade-out entry after first StopAmbient")
	}

	// A second stop while already fading out must not reset progress.
	e.fadesNormal.fadingOut["rain"] = 0.5
	e.stopAmbient("rain", false)
	if e.fadesNormal.fadingOut["rain"] != 0.5 {
		t.Errorf("expected second StopAmbient to be a no-op, got progress %v", e.fadesNormal.fadingOut["rain"])
	}
}

func TestEngineStopAmbientSchedulerUsesOwnTable(t *testing.T) {
	e := newTestEngine()
	e.ambientVoices["rain"] = &AmbientVoice{ID: "rain", State: PlayingA, Scheduler: true, Sink: NewSink()}

	e.stopAmbient("rain", true)
	if _, fading := e.fadesScheduler.fadingOut["rain"]; !fading {
		t.Fatal("expected the scheduler-cadence table to carry the fade-out")
	}
	if _, fading := e.fadesNormal.fadingOut["rain"]; fading {
		t.Error("expected the normal-cadence table to be untouched")
	}
}

func TestEngineFadeOutCompletionRemovesVoice(t *testing.T) {
	e := newTestEngine()
	e.ambientVoices["rain"] = &AmbientVoice{ID: "rain", State: PlayingA, Sink: NewSink()}
	e.fadesNormal.StartFadeOut("rain")

	for i := 0; i < normalFadeProfile.NSteps+1; i++ {
		e.tickAmbientFades()
	}

	if _, ok := e.ambientVoices["rain"]; ok {
		t.Error("expected voice to be removed once its fade-out completes")
	}
}

func TestEngineTickAmbientStateMachineAdvancesOnDrain(t *testing.T) {
	e := newTestEngine()
	v := &AmbientVoice{
		ID: "wind", FileA: "missing-a.ogg", FileB: "missing-b.ogg",
		Settings: AmbientSettings{RepeatMin: 1, RepeatMax: 1},
		State:    PlayingA,
		Sink:     NewSink(),
	}
	e.ambientVoices["wind"] = v

	e.tickAmbientStateMachines()
	if v.State != PlayingB {
		t.Fatalf("expected drained PlayingA sink to advance to PlayingB, got %v", v.State)
	}
}

func TestEngineUpdateAmbientSettingsVolumeOnlyNoRebuild(t *testing.T) {
	e := newTestEngine()
	settings := AmbientSettings{Volume: 0.2, Pitch: 1, LowPassFreqHz: 22000}
	v := &AmbientVoice{ID: "rain", Settings: settings, State: PlayingA, Sink: NewSink()}
	e.ambientVoices["rain"] = v
	originalSink := v.Sink

	updated := settings
	updated.Volume = 0.9
	e.updateAmbientSettings("rain", updated, false)

	if v.Sink != originalSink {
		t.Error("expected a volume-only update to keep the existing sink")
	}
	if _, ok := e.fadesNormal.volumeTransitions["rain"]; !ok {
		t.Error("expected a recorded volume transition")
	}
}

func TestEngineRefreshAmbientGainsAppliesDucking(t *testing.T) {
	e := newTestEngine()
	settings := AmbientSettings{Volume: 1}
	e.ambientVoices["rain"] = &AmbientVoice{ID: "rain", Settings: settings, Sink: NewSink()}
	e.Soundboard.DuckProgress = 1
	e.Soundboard.DuckAmount = 0.5

	e.refreshAmbientGains()

	got := e.ambientVoices["rain"].Sink.Volume()
	if absf(got-0.5) > 1e-9 {
		t.Errorf("expected ducked gain 0.5, got %v", got)
	}
}
