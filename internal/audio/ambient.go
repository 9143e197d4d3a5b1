package audio

import "math/rand"

// AmbientState is the per-voice playback phase of the A/B loop machine.
type AmbientState int

const (
	PlayingA AmbientState = iota
	PlayingB
	Paused
)

func (s AmbientState) String() string {
	switch s {
	case PlayingA:
		return "playing_a"
	case PlayingB:
		return "playing_b"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// pauseLoopSeconds is the fixed per-pause-loop time estimate used to convert
// a drawn pause_loops count into a countdown in seconds. The original ties
// this to an assumed file length; see DESIGN.md for the open-question
// resolution.
const pauseLoopSeconds = 5.0

// FadeProfile is a fade-constant pair: how many ticks a fade spans and how
// much progress advances per tick.
type FadeProfile struct {
	NSteps int
	Delta  float64
}

// Two independent cadences: UI-driven ambient changes fade in ~200-400ms,
// scheduler-driven (preset/playlist) transitions fade over ~2s so they
// don't read as an abrupt cut during an unattended schedule change.
var (
	normalFadeProfile    = FadeProfile{NSteps: 4, Delta: 0.08}
	schedulerFadeProfile = FadeProfile{NSteps: 40, Delta: 0.025}
)

// AmbientVoice is one running ambient loop: two alternating source files,
// tunable settings, and the A/B/paused state machine that decides what to
// enqueue next.
type AmbientVoice struct {
	ID        string
	FileA     string
	FileB     string
	Settings  AmbientSettings
	Scheduler bool // true if owned by the scheduler cadence, selects fade profile

	State          AmbientState
	LoopsRemaining int
	PauseRemaining float64

	Sink *Sink
}

// calc computes the gain for one (re-)enqueue per §4.5: base settings
// volume scaled by the ambient and master busses and by sidechain ducking,
// with an optional random multiplier when volume_variation is set.
func calc(settings AmbientSettings, masters Masters, duckProgress, duckAmount float64) float64 {
	if masters.MasterMuted || masters.AmbientMuted {
		return 0
	}
	gain := settings.Volume * masters.AmbientMasterVolume * masters.MasterVolume
	gain *= 1 - duckProgress*duckAmount
	if settings.VolumeVariation > 0 {
		variation := 1 + (rand.Float64()*2-1)*settings.VolumeVariation
		gain *= variation
	}
	if gain < 0 {
		gain = 0
	}
	if gain > 2 {
		gain = 2
	}
	return gain
}

func randRange(lo, hi uint32) int {
	if hi <= lo {
		return int(lo)
	}
	return int(lo) + rand.Intn(int(hi-lo)+1)
}

// newLoopsRemaining draws a fresh repeat count for entering PlayingA.
func (v *AmbientVoice) newLoopsRemaining() {
	v.LoopsRemaining = randRange(v.Settings.RepeatMin, v.Settings.RepeatMax)
}

// fadeProfile returns the fade-constant pair this voice's cadence uses.
func (v *AmbientVoice) fadeProfile() FadeProfile {
	if v.Scheduler {
		return schedulerFadeProfile
	}
	return normalFadeProfile
}

// onSinkDrained advances the A/B/paused state machine by one transition, per
// §4.5, and reports which file (if any) should be opened and enqueued next.
func (v *AmbientVoice) onSinkDrained() (nextFile string, enqueue bool) {
	switch v.State {
	case PlayingA:
		v.State = PlayingB
		return v.FileB, true

	case PlayingB:
		v.LoopsRemaining--
		if v.LoopsRemaining > 0 {
			v.State = PlayingA
			return v.FileA, true
		}
		pauseLoops := randRange(v.Settings.PauseMin, v.Settings.PauseMax)
		if pauseLoops == 0 {
			v.newLoopsRemaining()
			v.State = PlayingA
			return v.FileA, true
		}
		v.State = Paused
		v.PauseRemaining = float64(pauseLoops) * pauseLoopSeconds
		return "", false

	case Paused:
		// onSinkDrained is only called when the sink empties; Paused has no
		// sink to drain from, so reaching here is a caller bug. Handled
		// defensively as a no-op.
		return "", false
	}
	return "", false
}

// tickPaused advances the Paused countdown by one 50ms tick and reports
// whether the voice should resume into PlayingA now.
func (v *AmbientVoice) tickPaused(dt float64) (nextFile string, resume bool) {
	if v.State != Paused {
		return "", false
	}
	v.PauseRemaining -= dt
	if v.PauseRemaining > 0 {
		return "", false
	}
	v.newLoopsRemaining()
	v.State = PlayingA
	return v.FileA, true
}

// AmbientFadeTables holds the three per-voice fade/transition maps for one
// cadence (normal or scheduler), maintained by the engine loop per §4.5.
type AmbientFadeTables struct {
	profile           FadeProfile
	fadingIn          map[string]float64
	fadingOut         map[string]float64
	volumeTransitions map[string][2]float64 // id -> (current, target)
}

// NewAmbientFadeTables returns empty tables for the given cadence profile.
func NewAmbientFadeTables(profile FadeProfile) *AmbientFadeTables {
	return &AmbientFadeTables{
		profile:           profile,
		fadingIn:          make(map[string]float64),
		fadingOut:         make(map[string]float64),
		volumeTransitions: make(map[string][2]float64),
	}
}

// StartFadeIn begins a fade-in for id, discarding any fade-out in flight
// (re-playing an id while it fades out cancels the fade-out, per §5).
func (t *AmbientFadeTables) StartFadeIn(id string) {
	delete(t.fadingOut, id)
	t.fadingIn[id] = 0
}

// StartFadeOut begins a fade-out for id.
func (t *AmbientFadeTables) StartFadeOut(id string) {
	delete(t.fadingIn, id)
	t.fadingOut[id] = 0
}

// SetVolumeTransition records a smooth volume-only glide to target, used
// when an UpdateAmbientSettings changes volume/variation/repeat/pause but
// none of the filter parameters that force a rebuild.
func (t *AmbientFadeTables) SetVolumeTransition(id string, current, target float64) {
	t.volumeTransitions[id] = [2]float64{current, target}
}

// CancelVolumeTransition drops a pending volume glide for id, used when a
// parameter update forces a chain rebuild in the same tick (§5: "parameter
// updates beat volume changes").
func (t *AmbientFadeTables) CancelVolumeTransition(id string) {
	delete(t.volumeTransitions, id)
}

// Remove drops every table entry for id, e.g. once a StopAmbient fade-out
// completes.
func (t *AmbientFadeTables) Remove(id string) {
	delete(t.fadingIn, id)
	delete(t.fadingOut, id)
	delete(t.volumeTransitions, id)
}

// Tick advances every table by one step and reports the set of ids whose
// fade-out just completed (the voice should be removed entirely) along with
// the current fade-in/fade-out multiplier and volume-transition value for
// every active id, keyed by id.
func (t *AmbientFadeTables) Tick() (fadeInMul, fadeOutMul, volumes map[string]float64, finishedOut []string) {
	// Fade-in/fade-out advance by 1/N_steps per tick; volume transitions use
	// the separate Delta-per-tick constant (§4.5: "step = 1/N_steps" for the
	// fade tables, "step per tick = Δ_per_tick" for volume_transitions).
	step := 1.0 / float64(t.profile.NSteps)

	fadeInMul = make(map[string]float64, len(t.fadingIn))
	for id, progress := range t.fadingIn {
		progress += step
		if progress >= 1 {
			progress = 1
			delete(t.fadingIn, id)
		} else {
			t.fadingIn[id] = progress
		}
		fadeInMul[id] = progress
	}

	fadeOutMul = make(map[string]float64, len(t.fadingOut))
	for id, progress := range t.fadingOut {
		progress += step
		if progress >= 1 {
			finishedOut = append(finishedOut, id)
			delete(t.fadingOut, id)
			fadeOutMul[id] = 0
			continue
		}
		t.fadingOut[id] = progress
		fadeOutMul[id] = 1 - progress
	}

	volumeStep := t.profile.Delta
	volumes = make(map[string]float64, len(t.volumeTransitions))
	for id, cv := range t.volumeTransitions {
		current, target := cv[0], cv[1]
		if absf(target-current) < 0.01 {
			volumes[id] = target
			delete(t.volumeTransitions, id)
			continue
		}
		if target > current {
			current += volumeStep
			if current > target {
				current = target
			}
		} else {
			current -= volumeStep
			if current < target {
				current = target
			}
		}
		t.volumeTransitions[id] = [2]float64{current, target}
		volumes[id] = current
	}

	return fadeInMul, fadeOutMul, volumes, finishedOut
}
