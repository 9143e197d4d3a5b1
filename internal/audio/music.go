package audio

import (
	"time"

	"github.com/TenVexAI/soundscapes/internal/collab"
	"github.com/gopxl/beep"
)

// MusicController owns the single music voice: the playing track, its
// crossfade state, and auto-advance bookkeeping (§4.6).
type MusicController struct {
	cache      *AudioCache
	targetRate beep.SampleRate
	ring       *SampleRing
	playlist   collab.PlaylistProvider

	Sink *Sink

	Track         *TrackInfo
	TrackStart    time.Time
	TrackDuration float64

	CrossfadeDuration float64

	fadeInStart    time.Time
	fadeInDuration float64
	fadeInActive   bool
	fadeOutActive  bool

	wasPlaying  bool
	pendingPath string
	pendingInfo TrackInfo
}

// NewMusicController returns a controller with no track loaded.
func NewMusicController(cache *AudioCache, targetRate beep.SampleRate, ring *SampleRing, playlist collab.PlaylistProvider) *MusicController {
	return &MusicController{
		cache:             cache,
		targetRate:        targetRate,
		ring:              ring,
		playlist:          playlist,
		CrossfadeDuration: 2.0,
	}
}

// Play implements §4.6 Play: stop any existing sink immediately, clear the
// music ring, load the new track, and either start silent with a fade-in
// recorded or jump straight to the effective gain.
func (m *MusicController) Play(path string, track TrackInfo, now time.Time) error {
	if m.Sink != nil {
		m.Sink.Stop()
	}
	m.ring.Clear()

	chain, err := OpenChain(m.cache, path, NeutralProfile, m.targetRate, m.ring)
	if err != nil {
		return err
	}

	sink := NewSink()
	sink.Append(chain)
	m.Sink = sink
	m.Track = &track
	m.TrackStart = now
	m.TrackDuration = chain.TotalDuration.Seconds()
	m.fadeOutActive = false
	m.wasPlaying = true
	m.pendingPath = ""

	if m.CrossfadeDuration > 0 {
		sink.SetVolume(0)
		m.fadeInStart = now
		m.fadeInDuration = m.CrossfadeDuration
		m.fadeInActive = true
	} else {
		m.fadeInActive = false
	}
	return nil
}

// Stop clears the voice entirely.
func (m *MusicController) Stop() {
	if m.Sink != nil {
		m.Sink.Stop()
	}
	m.Sink = nil
	m.Track = nil
	m.fadeInActive = false
	m.fadeOutActive = false
	m.wasPlaying = false
}

// Pause/Resume toggle playback without discarding the loaded track.
func (m *MusicController) Pause() {
	if m.Sink != nil {
		m.Sink.Pause()
	}
}

func (m *MusicController) Resume() {
	if m.Sink != nil {
		m.Sink.Resume()
	}
}

// Seek implements §4.6 Seek: reopen the file at position with no gapless
// guarantee, and rebase track_start so progress reporting stays correct.
func (m *MusicController) Seek(position float64, now time.Time) error {
	if m.Track == nil || m.Sink == nil {
		return nil
	}
	path := m.Track.FilePath
	chain, err := OpenChain(m.cache, path, NeutralProfile, m.targetRate, m.ring)
	if err != nil {
		return err
	}
	if err := chain.SkipDuration(time.Duration(position * float64(time.Second))); err != nil {
		chain.Close()
		return err
	}

	wasPaused := m.Sink.IsPaused()
	vol := m.Sink.Volume()
	m.Sink.Stop()

	sink := NewSink()
	sink.SetVolume(vol)
	sink.Append(chain)
	if wasPaused {
		sink.Pause()
	}
	m.Sink = sink
	m.TrackStart = now.Add(-time.Duration(position * float64(time.Second)))
	return nil
}

// applyGain sets linear music volume on the live sink, if any; Tick passes
// a gain already adjusted for masters, mutes, ducking and fades.
func (m *MusicController) applyGain(gain float64) {
	if m.Sink != nil {
		m.Sink.SetVolume(gain)
	}
}

// effectiveTarget computes the target gain before fade-in/fade-out shaping,
// including the sidechain ducking factor (§4.7/§4.9 step 4).
func effectiveTarget(musicVolume, masterVolume float64, musicMuted, masterMuted bool, duckProgress, duckAmount float64) float64 {
	if musicMuted || masterMuted {
		return 0
	}
	return clamp01(musicVolume) * clamp01(masterVolume) * (1 - duckProgress*duckAmount)
}

// ApplyPendingAdvance opens and plays a track queued by the previous tick's
// auto-advance detection (§4.9 step 2). Call this before Tick each loop
// iteration so a detected end-of-track is only acted on one tick later,
// bounding step 7's own cost to detection alone.
func (m *MusicController) ApplyPendingAdvance(now time.Time) (advanced bool, err error) {
	if m.pendingPath == "" {
		return false, nil
	}
	path, info := m.pendingPath, m.pendingInfo
	m.pendingPath = ""
	if err := m.Play(path, info, now); err != nil {
		return false, err
	}
	return true, nil
}

// Tick advances fade-in/fade-out and auto-advance detection by one 50ms
// step (§4.9 steps 5-7), applying the resulting gain to the live sink. A
// detected end-of-track queues the next track for ApplyPendingAdvance on
// the following tick; it is never opened within this same call.
func (m *MusicController) Tick(now time.Time, masters Masters, duckProgress, duckAmount float64) {
	target := effectiveTarget(masters.MusicVolume, masters.MasterVolume, masters.MusicMuted, masters.MasterMuted, duckProgress, duckAmount)

	if m.fadeInActive {
		elapsed := now.Sub(m.fadeInStart).Seconds()
		progress := 1.0
		if m.fadeInDuration > 0 {
			progress = elapsed / m.fadeInDuration
		}
		if progress >= 1 {
			progress = 1
			m.fadeInActive = false
		}
		m.applyGain(target * progress)
	} else if m.Track != nil && m.TrackDuration > 0 && m.CrossfadeDuration > 0 {
		elapsed := now.Sub(m.TrackStart).Seconds()
		remaining := m.TrackDuration - elapsed
		if remaining > 0 && remaining <= m.CrossfadeDuration {
			m.fadeOutActive = true
			fadeProgress := 1 - remaining/m.CrossfadeDuration
			m.applyGain(target * (1 - fadeProgress))
		} else if !m.fadeOutActive {
			m.applyGain(target)
		}
	} else {
		m.applyGain(target)
	}

	nowPlaying := m.Sink != nil && !m.Sink.Empty()
	if m.wasPlaying && !nowPlaying && m.pendingPath == "" && m.playlist != nil {
		snap := m.playlist.Snapshot()
		if track, idx, ok := collab.NextTrack(snap); ok {
			m.pendingPath = track.File
			m.pendingInfo = TrackInfo{
				ID: track.ID, Title: track.Title, Artist: track.Artist,
				Album: track.Album, FilePath: track.File,
			}
			m.playlist.AdvanceTo(snap.CurrentPlaylistID, idx)
		}
	}
	m.wasPlaying = nowPlaying
}

// Progress reports the §4.10 AudioProgress snapshot.
func (m *MusicController) Progress(now time.Time) AudioProgress {
	if m.Track == nil {
		return AudioProgress{}
	}
	elapsed := now.Sub(m.TrackStart).Seconds()
	return AudioProgress{
		CurrentTime: elapsed,
		Duration:    m.TrackDuration,
		IsPlaying:   m.Sink != nil && !m.Sink.Empty() && !m.Sink.IsPaused(),
		IsFinished:  m.Sink == nil || m.Sink.Empty(),
	}
}
