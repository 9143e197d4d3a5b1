package audio

import (
	"log"
	"time"

	"github.com/TenVexAI/soundscapes/internal/collab"
	"github.com/TenVexAI/soundscapes/internal/metrics"
	"github.com/gopxl/beep"
)

// tickInterval is the 50ms cadence governing fade granularity, A/B
// transition detection latency, and visualization refresh (§5 Timing).
const tickInterval = 50 * time.Millisecond

// schedulerTicksPerTick is how many 50ms ticks make up the ~1s scheduler
// cadence (§4.9 step 1: "every 20th loop iteration").
const schedulerTicksPerTick = 20

// Engine owns every voice, the command queue, and the shared master
// controls, and runs the single dedicated tick loop (§4.9) that is the only
// thing allowed to mutate any of it. Everything else — UI/IPC, the
// observability HTTP surface — only ever submits Commands or reads the
// StateStore.
type Engine struct {
	Cache      *AudioCache
	TargetRate beep.SampleRate

	Commands *CommandQueue
	State    *StateStore

	Masters Masters

	Music      *MusicController
	Soundboard *SoundboardController

	ambientVoices  map[string]*AmbientVoice
	fadesNormal    *AmbientFadeTables
	fadesScheduler *AmbientFadeTables

	musicRing   *SampleRing
	ambientRing *SampleRing
	analyzer    *SpectrumAnalyzer

	masterMixer  *beep.Mixer
	ambientMixer *beep.Mixer

	Playlist  collab.PlaylistProvider
	Scheduler collab.SchedulerProvider
	Presets   collab.PresetLoader

	loopCount              uint64
	schedulerLastItemIndex int
	schedulerPendingPreset string

	musicRingDropsSeen   uint64
	ambientRingDropsSeen uint64
}

// NewEngine wires up every component but opens no audio device; the caller
// (cmd/soundscape-engine) owns speaker.Init and feeds Engine.Output() to it.
func NewEngine(targetRate beep.SampleRate, playlist collab.PlaylistProvider, scheduler collab.SchedulerProvider, presets collab.PresetLoader) *Engine {
	cache := NewAudioCache()
	musicRing := NewSampleRing()
	ambientRing := NewSampleRing()

	ambientMixer := &beep.Mixer{}
	masterMixer := &beep.Mixer{}
	masterMixer.Add(newTap(ambientMixer, ambientRing))

	e := &Engine{
		Cache:                  cache,
		TargetRate:             targetRate,
		Commands:               NewCommandQueue(),
		State:                  NewStateStore(),
		Masters:                Masters{MasterVolume: 1, MusicVolume: 1, AmbientMasterVolume: 1},
		Music:                  NewMusicController(cache, targetRate, musicRing, playlist),
		Soundboard:             NewSoundboardController(),
		ambientVoices:          make(map[string]*AmbientVoice),
		fadesNormal:            NewAmbientFadeTables(normalFadeProfile),
		fadesScheduler:         NewAmbientFadeTables(schedulerFadeProfile),
		musicRing:              musicRing,
		ambientRing:            ambientRing,
		analyzer:               NewSpectrumAnalyzer(musicRing, ambientRing),
		masterMixer:            masterMixer,
		ambientMixer:           ambientMixer,
		Playlist:               playlist,
		Scheduler:              scheduler,
		Presets:                presets,
		schedulerLastItemIndex: -1,
	}
	return e
}

// Output is the single interleaved PCM stream the caller feeds to the
// output device (e.g. via speaker.Play).
func (e *Engine) Output() beep.Streamer { return e.masterMixer }

// Run drains commands and advances every voice until stop is closed,
// blocking only on the command queue's bounded-wait receive (§5).
func (e *Engine) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		e.tick()
	}
}

// tick implements the ten ordered steps of §4.9.
func (e *Engine) tick() {
	tickStart := time.Now()
	defer func() { metrics.RecordTick(time.Since(tickStart)) }()

	now := tickStart
	e.loopCount++

	// 1. Scheduler tick (~1s).
	if e.loopCount%schedulerTicksPerTick == 0 {
		e.tickScheduler()
	}

	// 2. Pending auto-advance queued by the previous tick.
	if advanced, err := e.Music.ApplyPendingAdvance(now); err != nil {
		log.Printf("music auto-advance: %v", err)
	} else if advanced {
		e.masterMixer.Add(e.Music.Sink)
	}

	// 3. Soundboard end check.
	e.Soundboard.CheckEnded()

	// 4. Ducking interpolation; refresh music + ambient gains while active.
	duckActive := e.Soundboard.TickDucking()
	if duckActive {
		e.refreshAmbientGains()
	}

	// 5-7. Music fade-in, fade-out, progress + auto-advance detection.
	e.Music.Tick(now, e.Masters, e.Soundboard.DuckProgress, e.Soundboard.DuckAmount)

	// 8. Visualization snapshot.
	music, ambient := e.analyzer.Tick(e.anyAmbientAudible())
	e.publishPlaybackState(music, ambient)
	e.recordMetrics()
	e.State.SetProgress(e.Music.Progress(now))
	if e.Music.Track != nil {
		e.State.SetCurrentTrack(&CurrentTrackInfo{
			TrackInfo: *e.Music.Track,
			StartedAt: e.Music.TrackStart,
			Duration:  e.Music.TrackDuration,
		})
	} else {
		e.State.SetCurrentTrack(nil)
	}

	// 9. Drain one command (50ms bounded wait); on timeout, run periodic work.
	if cmd, ok := e.Commands.Recv(tickInterval); ok {
		musicSink, boardSink := e.Music.Sink, e.Soundboard.Sink
		e.dispatch(cmd)
		// Play/Seek install fresh sinks; route them into the output mix.
		if e.Music.Sink != nil && e.Music.Sink != musicSink {
			e.masterMixer.Add(e.Music.Sink)
		}
		if e.Soundboard.Sink != nil && e.Soundboard.Sink != boardSink {
			e.masterMixer.Add(e.Soundboard.Sink)
		}
	} else {
		e.tickAmbientFades()
		e.tickAmbientStateMachines()
	}
}

// recordMetrics pushes the per-tick Prometheus observations: active ambient
// voice count, duck progress, and ring-drop deltas since the last tick.
func (e *Engine) recordMetrics() {
	metrics.SetActiveAmbientVoices(len(e.ambientVoices))
	metrics.SetDuckProgress(e.Soundboard.DuckProgress)

	musicDrops := e.musicRing.Drops()
	metrics.AddRingDrops("music", musicDrops-e.musicRingDropsSeen)
	e.musicRingDropsSeen = musicDrops

	ambientDrops := e.ambientRing.Drops()
	metrics.AddRingDrops("ambient", ambientDrops-e.ambientRingDropsSeen)
	e.ambientRingDropsSeen = ambientDrops
}

func (e *Engine) anyAmbientAudible() bool {
	return len(e.ambientVoices) > 0 && !e.Masters.AmbientMuted
}

func (e *Engine) refreshAmbientGains() {
	for _, v := range e.ambientVoices {
		if v.Sink == nil {
			continue
		}
		v.Sink.SetVolume(calc(v.Settings, e.Masters, e.Soundboard.DuckProgress, e.Soundboard.DuckAmount))
	}
}

func (e *Engine) publishPlaybackState(musicSpectrum, ambientSpectrum [numBuckets]float64) {
	ambientVolume := 0.0
	if len(e.ambientVoices) > 0 {
		for _, v := range e.ambientVoices {
			ambientVolume += v.Settings.Volume
		}
		ambientVolume /= float64(len(e.ambientVoices))
	}
	ps := PlaybackState{
		MusicPlaying:  e.Music.Sink != nil && !e.Music.Sink.Empty(),
		MusicVolume:   e.Masters.MusicVolume,
		AmbientCount:  len(e.ambientVoices),
		AmbientVolume: ambientVolume,
		MasterVolume:  e.Masters.MasterVolume,
		IsMuted:       e.Masters.MasterMuted,
		Frequencies:   musicSpectrum,
		AmbientFreqs:  ambientSpectrum,
	}
	e.State.SetPlayback(ps)

	active := make(map[string]ActiveAmbientInfo, len(e.ambientVoices))
	for id, v := range e.ambientVoices {
		active[id] = ActiveAmbientInfo{ID: id, FileA: v.FileA, FileB: v.FileB, Settings: v.Settings}
	}
	e.State.SetActiveAmbients(active)
}

// dispatch applies one command per §4.4-§4.7; this is the only place any
// voice or master-control state is mutated from a command, including the
// scheduler-cadence commands pushed by tickScheduler.
func (e *Engine) dispatch(cmd Command) {
	now := time.Now()
	switch c := cmd.(type) {
	case PlayMusic:
		if err := e.Music.Play(c.Path, c.Track, now); err != nil {
			log.Printf("play music %q: %v", c.Path, err)
		}
	case StopMusic:
		e.Music.Stop()
	case PauseMusic:
		e.Music.Pause()
	case ResumeMusic:
		e.Music.Resume()
	case SeekMusic:
		if err := e.Music.Seek(c.Seconds, now); err != nil {
			log.Printf("seek music: %v", err)
		}
	case SetMusicVolume:
		e.Masters.MusicVolume = clamp01(c.Volume)
	case SetMasterVolume:
		e.Masters.MasterVolume = clamp01(c.Volume)
	case SetMusicMuted:
		e.Masters.MusicMuted = c.Muted
	case SetMasterMuted:
		e.Masters.MasterMuted = c.Muted
		e.refreshAmbientGains()
	case SetCrossfadeDuration:
		e.Music.CrossfadeDuration = c.Seconds

	case PlaySoundboard:
		volume := c.Volume
		if e.Masters.MasterMuted {
			volume = 0
		}
		if err := e.Soundboard.Play(e.Cache, c.Path, volume, e.TargetRate); err != nil {
			log.Printf("play soundboard %q: %v", c.Path, err)
		}
	case StopSoundboard:
		e.Soundboard.Stop()
	case SetDuckAmount:
		e.Soundboard.DuckAmount = clamp01(c.Amount)

	case PlayAmbient:
		e.playAmbient(c.ID, c.FileA, c.FileB, c.Settings, false)
	case StopAmbient:
		e.stopAmbient(c.ID, false)
	case UpdateAmbientSettings:
		e.updateAmbientSettings(c.ID, c.Settings, false)
	case SetAmbientMasterVolume:
		e.Masters.AmbientMasterVolume = clamp01(c.Volume)
		e.refreshAmbientGains()
	case SetAmbientMuted:
		e.Masters.AmbientMuted = c.Muted
		e.refreshAmbientGains()
	case PreloadAmbient:
		if err := e.Cache.Preload(c.Paths); err != nil {
			log.Printf("preload ambient: %v", err)
		}

	case PlayAmbientScheduler:
		e.playAmbient(c.ID, c.FileA, c.FileB, c.Settings, true)
	case StopAmbientScheduler:
		e.stopAmbient(c.ID, true)
	case UpdateAmbientSettingsScheduler:
		e.updateAmbientSettings(c.ID, c.Settings, true)

	default:
		log.Printf("unhandled command %T", cmd)
	}
}

// fadeTablesFor returns the fade-constant table for a voice's cadence: the
// scheduler cadence fades over ~2s, the UI cadence over ~200-400ms (§4.5).
func (e *Engine) fadeTablesFor(scheduler bool) *AmbientFadeTables {
	if scheduler {
		return e.fadesScheduler
	}
	return e.fadesNormal
}

// playAmbient installs a brand-new ambient voice starting in PlayingA and
// fading in, replacing any voice already at id (cancelling its fade-out if
// one was in flight, per §5's "replay cancels fade-out" rule).
func (e *Engine) playAmbient(id, fileA, fileB string, settings AmbientSettings, scheduler bool) {
	if old, ok := e.ambientVoices[id]; ok && old.Sink != nil {
		old.Sink.Stop()
	}
	e.fadesNormal.Remove(id)
	e.fadesScheduler.Remove(id)

	v := &AmbientVoice{
		ID: id, FileA: fileA, FileB: fileB, Settings: settings,
		Scheduler: scheduler, State: PlayingA,
	}
	v.newLoopsRemaining()
	e.ambientVoices[id] = v
	e.enqueueAmbientFile(v, fileA)
	if v.Sink != nil {
		v.Sink.SetVolume(0) // the fade-in table raises it from silence
	}
	e.fadeTablesFor(scheduler).StartFadeIn(id)
}

// stopAmbient starts a voice's fade-out; a second stop while already fading
// out is a no-op (§8 property 3 — two fade-out entries for the same id
// cannot coexist).
func (e *Engine) stopAmbient(id string, scheduler bool) {
	tables := e.fadeTablesFor(scheduler)
	if _, alreadyOut := tables.fadingOut[id]; alreadyOut {
		return
	}
	if _, ok := e.ambientVoices[id]; !ok {
		return
	}
	tables.StartFadeOut(id)
}

// updateAmbientSettings applies §4.5's parameter-update rule: a filter
// change rebuilds the chain from the voice's current A/B phase (discarding
// any in-flight volume transition, since parameter updates beat volume
// changes per §5); anything else becomes a smooth volume-only transition.
func (e *Engine) updateAmbientSettings(id string, newSettings AmbientSettings, scheduler bool) {
	v, ok := e.ambientVoices[id]
	if !ok {
		return
	}
	tables := e.fadeTablesFor(scheduler)

	if v.Settings.sameFilters(newSettings) {
		v.Settings = newSettings
		current := 0.0
		if v.Sink != nil {
			current = v.Sink.Volume()
		}
		target := calc(v.Settings, e.Masters, e.Soundboard.DuckProgress, e.Soundboard.DuckAmount)
		tables.SetVolumeTransition(id, current, target)
		return
	}

	tables.CancelVolumeTransition(id)
	v.Settings = newSettings
	if v.State == Paused {
		// No live sink to rebuild; the new profile takes effect on resume.
		return
	}

	file := v.FileA
	if v.State == PlayingB {
		file = v.FileB
	}
	chain, err := OpenChain(e.Cache, file, v.Settings.dspProfile(), e.TargetRate, nil)
	if err != nil {
		log.Printf("rebuild ambient %q: %v", id, err)
		return
	}
	old := v.Sink
	sink := NewSink()
	sink.SetVolume(calc(v.Settings, e.Masters, e.Soundboard.DuckProgress, e.Soundboard.DuckAmount))
	sink.Append(chain)
	v.Sink = sink
	e.ambientMixer.Add(sink)
	if old != nil {
		old.Stop()
	}
}

// enqueueAmbientFile opens path fresh (against the DSP profile currently in
// effect for v) and appends it to v's sink, creating the sink and wiring it
// into the ambient mixer on first use.
func (e *Engine) enqueueAmbientFile(v *AmbientVoice, path string) {
	chain, err := OpenChain(e.Cache, path, v.Settings.dspProfile(), e.TargetRate, nil)
	if err != nil {
		log.Printf("open ambient %q: %v", path, err)
		return
	}
	if v.Sink == nil {
		sink := NewSink()
		sink.SetVolume(calc(v.Settings, e.Masters, e.Soundboard.DuckProgress, e.Soundboard.DuckAmount))
		v.Sink = sink
		e.ambientMixer.Add(sink)
	}
	v.Sink.Append(chain)
}

// tickScheduler implements §4.9 step 1: consult the scheduler collaborator,
// decrement its timer by the ~1s elapsed since the last call, and on item
// expiry push the scheduler-cadence commands for the transition. The
// scheduler tick never mutates voice state directly — it only enqueues
// commands, so dispatch remains the single mutation path (§5 ordering).
// Every enabled sound of the new preset gets a PlayAmbientScheduler, so a
// sound that is already running is restarted rather than updated in place;
// UpdateAmbientSettingsScheduler is not sent from here.
func (e *Engine) tickScheduler() {
	if e.Scheduler == nil {
		return
	}
	before := e.Scheduler.Snapshot()
	if !before.IsPlaying || len(before.Items) == 0 {
		return
	}
	e.Scheduler.Advance(schedulerTicksPerTick * int(tickInterval/time.Millisecond) / 1000)
	after := e.Scheduler.Snapshot()

	if after.CurrentItemIndex == e.schedulerLastItemIndex {
		return
	}
	e.schedulerLastItemIndex = after.CurrentItemIndex
	item := after.Items[after.CurrentItemIndex]
	if item.PresetID == e.schedulerPendingPreset {
		return
	}
	e.schedulerPendingPreset = item.PresetID

	if e.Presets == nil {
		return
	}
	preset, err := e.Presets.LoadPreset(item.PresetID)
	if err != nil {
		log.Printf("scheduler load preset %q: %v", item.PresetID, err)
		return
	}

	wanted := make(map[string]bool, len(preset.Sounds))
	for _, s := range preset.Sounds {
		if !s.Enabled {
			continue
		}
		wanted[s.SoundID] = true
		e.Commands.Send(PlayAmbientScheduler{
			ID: s.SoundID, FileA: s.FileA, FileB: s.FileB,
			Settings: ambientSettingsFromDTO(s.Settings),
		})
	}
	for id, v := range e.ambientVoices {
		if v.Scheduler && !wanted[id] {
			e.Commands.Send(StopAmbientScheduler{ID: id})
		}
	}
}

// ambientSettingsFromDTO converts the collaborator package's transport DTO
// (kept import-free of internal/audio) to the engine's own settings type.
func ambientSettingsFromDTO(d collab.AmbientSettingsDTO) AmbientSettings {
	return AmbientSettings{
		Volume: d.Volume, Pitch: d.Pitch, Pan: d.Pan,
		LowPassFreqHz: d.LowPassFreqHz, ReverbMix: d.ReverbMix, ReverbType: d.ReverbType,
		RepeatMin: d.RepeatMin, RepeatMax: d.RepeatMax,
		PauseMin: d.PauseMin, PauseMax: d.PauseMax,
		VolumeVariation: d.VolumeVariation,
	}
}

// tickAmbientFades implements half of §4.9 step 10: advance both cadences'
// fade-in/fade-out/volume-transition tables and apply the resulting gains,
// removing any voice whose fade-out just completed.
func (e *Engine) tickAmbientFades() {
	e.applyFadeTable(e.fadesNormal)
	e.applyFadeTable(e.fadesScheduler)
}

func (e *Engine) applyFadeTable(tables *AmbientFadeTables) {
	fadeIn, fadeOut, volumes, finishedOut := tables.Tick()

	for id, mul := range fadeIn {
		if v, ok := e.ambientVoices[id]; ok && v.Sink != nil {
			base := calc(v.Settings, e.Masters, e.Soundboard.DuckProgress, e.Soundboard.DuckAmount)
			v.Sink.SetVolume(base * mul)
		}
	}
	for id, mul := range fadeOut {
		if v, ok := e.ambientVoices[id]; ok && v.Sink != nil {
			base := calc(v.Settings, e.Masters, e.Soundboard.DuckProgress, e.Soundboard.DuckAmount)
			v.Sink.SetVolume(base * mul)
		}
	}
	for id, vol := range volumes {
		if v, ok := e.ambientVoices[id]; ok && v.Sink != nil {
			v.Sink.SetVolume(vol)
		}
	}
	for _, id := range finishedOut {
		if v, ok := e.ambientVoices[id]; ok {
			if v.Sink != nil {
				v.Sink.Stop()
			}
			delete(e.ambientVoices, id)
		}
	}
}

// tickAmbientStateMachines implements the other half of §4.9 step 10:
// advance every voice's A/B/Paused machine and enqueue whatever file (if
// any) the transition produced.
func (e *Engine) tickAmbientStateMachines() {
	dt := tickInterval.Seconds()
	for _, v := range e.ambientVoices {
		if v.State == Paused {
			if next, resume := v.tickPaused(dt); resume {
				e.enqueueAmbientFile(v, next)
			}
			continue
		}
		if v.Sink == nil || !v.Sink.Empty() {
			continue
		}
		if next, enqueue := v.onSinkDrained(); enqueue {
			e.enqueueAmbientFile(v, next)
		}
	}
}
