package audio

import (
	"bytes"
	"os"
	"sync"
)

// AudioCache maps a file path to its raw bytes, populated explicitly by
// PreloadAmbient and consulted on every subsequent A/B file open so the
// ambient scheduler never hits disk mid-playback. Paths never preloaded
// still stream straight from disk — the cache is opportunistic, not
// mandatory. Engine-thread-only: nothing outside the engine goroutine
// touches it, so no lock is required by the concurrency model, but a mutex
// is kept anyway since PreloadAmbient and chain-open both run on the engine
// goroutine and a future caller (e.g. a test) may not.
type AudioCache struct {
	mu    sync.RWMutex
	bytes map[string][]byte
}

// NewAudioCache returns an empty cache.
func NewAudioCache() *AudioCache {
	return &AudioCache{bytes: make(map[string][]byte)}
}

// Preload reads each path into memory, skipping any that are already cached
// or that fail to read (a missing file here is not fatal — the A/B machine
// will simply miss cache and fall back to disk for that path).
func (c *AudioCache) Preload(paths []string) error {
	var firstErr error
	for _, p := range paths {
		c.mu.RLock()
		_, ok := c.bytes[p]
		c.mu.RUnlock()
		if ok {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if firstErr == nil {
				firstErr = newErr(ErrFileOpen, err)
			}
			continue
		}
		c.mu.Lock()
		c.bytes[p] = data
		c.mu.Unlock()
	}
	return firstErr
}

// reader opens path for decoding, preferring the in-memory copy.
func (c *AudioCache) reader(path string) (readSeekCloser, error) {
	c.mu.RLock()
	data, ok := c.bytes[path]
	c.mu.RUnlock()
	if ok {
		return &memFile{Reader: bytes.NewReader(data)}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(ErrFileOpen, err)
	}
	return f, nil
}

// readSeekCloser is the minimal set of methods beep's decoders need; both
// *os.File and memFile satisfy it.
type readSeekCloser interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// memFile adapts a bytes.Reader (no Close method) to readSeekCloser so a
// preloaded file can be decoded exactly like one freshly opened from disk.
type memFile struct {
	*bytes.Reader
}

func (m *memFile) Close() error { return nil }
