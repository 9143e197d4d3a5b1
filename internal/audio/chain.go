package audio

import (
	"time"

	"github.com/gopxl/beep"
)

// DSPProfile is the tunable parameter set threaded through one voice's DSP
// chain: speed (pitch-via-rate), pan, low-pass cutoff and reverb mix.
type DSPProfile struct {
	Speed     float64
	Pan       float64
	LowPassHz float64
	ReverbMix float64
}

// NeutralProfile is the DSP profile for a voice with no per-voice filter
// settings (music, soundboard): unit speed, centered pan, filters fully
// open.
var NeutralProfile = DSPProfile{Speed: 1, Pan: 0, LowPassHz: 22000, ReverbMix: 0}

func clampSpeed(k float64) float64 {
	if k < 0.5 {
		return 0.5
	}
	if k > 2.0 {
		return 2.0
	}
	return k
}

// Chain is one voice's fully composed DSP pipeline: decode -> speed -> pan ->
// low-pass -> reverb -> analyzer tap, in that fixed order (§4.2). Every
// stage is a beep.Streamer wrapping the one before it; beep already
// standardizes every decoder's output to stereo [2]float64 frames (mono
// sources are upmixed during decode), so LowPass/Reverb never need to
// special-case channel count. The Pan stage is inserted only when the
// decoded file itself is stereo, so mono sources pass through unpanned.
//
// Every stage's parameters are fixed for the Chain's lifetime: per §4.5 a
// pitch/pan/low-pass/reverb change always triggers a full rebuild (a new
// Chain replaces the old one), never a live patch, matching the original's
// "filter state is tied to construction" rule.
type Chain struct {
	Streamer      beep.Streamer
	Format        beep.Format
	TotalDuration time.Duration

	decoded beep.StreamSeekCloser
}

// OpenChain decodes path and builds the full DSP chain for it, tapping the
// final output into ring (nil to skip tapping, used for one-shot soundboard
// playback which is never analyzed).
func OpenChain(cache *AudioCache, path string, profile DSPProfile, targetRate beep.SampleRate, ring *SampleRing) (*Chain, error) {
	decoded, format, err := decodeFile(cache, path)
	if err != nil {
		return nil, err
	}

	var s beep.Streamer = decoded
	if format.SampleRate != targetRate {
		s = beep.Resample(4, format.SampleRate, targetRate, s)
	}

	speed := beep.Resample(4, targetRate, targetRate, s)
	speed.SetRatio(clampSpeed(profile.Speed))
	s = speed

	if format.NumChannels == 2 {
		pan := newPan(s, profile.Pan)
		s = pan
	}

	lowpass := newLowPass(s, profile.LowPassHz, float64(targetRate))
	s = lowpass

	reverb := newReverb(s, profile.ReverbMix, float64(targetRate))
	s = reverb

	if ring != nil {
		s = newTap(s, ring)
	}

	return &Chain{
		Streamer:      s,
		Format:        format,
		TotalDuration: format.SampleRate.D(decoded.Len()),
		decoded:       decoded,
	}, nil
}

// SkipDuration seeks the underlying decoder to position d from the start of
// the file, used by Seek (§4.6).
func (c *Chain) SkipDuration(d time.Duration) error {
	n := c.Format.SampleRate.N(d)
	if n < 0 {
		n = 0
	}
	if n >= c.decoded.Len() {
		n = c.decoded.Len() - 1
	}
	return c.decoded.Seek(n)
}

// Close releases the underlying decoder's resources.
func (c *Chain) Close() error {
	if c.decoded == nil {
		return nil
	}
	return c.decoded.Close()
}
