package collab

import (
	"fmt"
	"sync"
)

// MemoryPlaylists is an in-process PlaylistProvider backed by a map of
// playlists, suitable for a standalone engine run without a UI process
// behind it (e.g. the reference cmd/soundscape-engine build).
type MemoryPlaylists struct {
	mu        sync.Mutex
	playlists map[string][]PlaylistTrack
	state     PlaylistState
}

// NewMemoryPlaylists returns an empty provider with no active playlist.
func NewMemoryPlaylists() *MemoryPlaylists {
	return &MemoryPlaylists{
		playlists: make(map[string][]PlaylistTrack),
		state:     PlaylistState{IsLooping: true},
	}
}

// SetPlaylist registers or replaces a playlist's track list.
func (m *MemoryPlaylists) SetPlaylist(id string, tracks []PlaylistTrack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists[id] = tracks
}

// Activate makes id the current playlist, starting at index 0.
func (m *MemoryPlaylists) Activate(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.CurrentPlaylistID = id
	m.state.CurrentIndex = 0
}

// SetShuffled toggles shuffle mode.
func (m *MemoryPlaylists) SetShuffled(shuffled bool) {
	m.mu.Lock()
	m.state.IsShuffled = shuffled
	m.mu.Unlock()
}

// SetLooping toggles loop-at-end mode.
func (m *MemoryPlaylists) SetLooping(looping bool) {
	m.mu.Lock()
	m.state.IsLooping = looping
	m.mu.Unlock()
}

func (m *MemoryPlaylists) Snapshot() PlaylistState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Tracks = append([]PlaylistTrack(nil), m.playlists[m.state.CurrentPlaylistID]...)
	return s
}

func (m *MemoryPlaylists) AdvanceTo(playlistID string, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if playlistID != m.state.CurrentPlaylistID {
		return
	}
	m.state.CurrentIndex = index
}

// MemoryScheduler is an in-process SchedulerProvider over a fixed item
// list, counted down in seconds by the engine's once-a-second scheduler
// tick (§4.9 step 1). Each item is held for exactly its MinMinutes;
// MaxMinutes is not consulted.
type MemoryScheduler struct {
	mu    sync.Mutex
	state SchedulerState
}

// NewMemoryScheduler returns a scheduler over items, initially stopped.
func NewMemoryScheduler(scheduleID string, items []ScheduledItem) *MemoryScheduler {
	return &MemoryScheduler{state: SchedulerState{
		Items:             items,
		CurrentScheduleID: scheduleID,
	}}
}

// Start marks the schedule playing from its first item.
func (m *MemoryScheduler) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsPlaying = len(m.state.Items) > 0
	m.state.CurrentItemIndex = 0
	if len(m.state.Items) > 0 {
		m.state.TimeRemaining = int(m.state.Items[0].MinMinutes) * 60
	}
}

// Stop marks the schedule idle.
func (m *MemoryScheduler) Stop() {
	m.mu.Lock()
	m.state.IsPlaying = false
	m.mu.Unlock()
}

func (m *MemoryScheduler) Snapshot() SchedulerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Items = append([]ScheduledItem(nil), m.state.Items...)
	return s
}

// Advance decrements the remaining-time countdown by seconds, wrapping to
// the next item (or back to the first) on expiry.
func (m *MemoryScheduler) Advance(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.IsPlaying || len(m.state.Items) == 0 {
		return
	}
	m.state.TimeRemaining -= seconds
	if m.state.TimeRemaining > 0 {
		return
	}
	m.state.CurrentItemIndex = (m.state.CurrentItemIndex + 1) % len(m.state.Items)
	item := m.state.Items[m.state.CurrentItemIndex]
	m.state.TimeRemaining = int(item.MinMinutes) * 60
}

// MemoryPresets is an in-process PresetLoader over a map of presets.
type MemoryPresets struct {
	mu      sync.Mutex
	presets map[string]Preset
}

// NewMemoryPresets returns an empty preset store.
func NewMemoryPresets() *MemoryPresets {
	return &MemoryPresets{presets: make(map[string]Preset)}
}

// Add registers a preset.
func (m *MemoryPresets) Add(p Preset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets[p.ID] = p
}

func (m *MemoryPresets) LoadPreset(id string) (Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.presets[id]
	if !ok {
		return Preset{}, fmt.Errorf("preset %q: %w", id, errNotFound)
	}
	return p, nil
}

var errNotFound = fmt.Errorf("not found")
