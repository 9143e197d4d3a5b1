package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// decodeFile opens path (via the cache when possible) and returns a
// streaming decoder selected by file extension. Only the two formats the
// original soundscapes library ships sounds in are supported: WAV for short
// one-shots (soundboard, sfx) and OGG Vorbis for music and ambient loops.
func decodeFile(cache *AudioCache, path string) (beep.StreamSeekCloser, beep.Format, error) {
	r, err := cache.reader(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		s, format, err := wav.Decode(r)
		if err != nil {
			r.Close()
			return nil, beep.Format{}, newErr(ErrDecode, err)
		}
		return s, format, nil
	case ".ogg":
		s, format, err := vorbis.Decode(r)
		if err != nil {
			r.Close()
			return nil, beep.Format{}, newErr(ErrDecode, err)
		}
		return s, format, nil
	default:
		r.Close()
		return nil, beep.Format{}, newErr(ErrDecode, fmt.Errorf("unsupported file extension: %s", path))
	}
}
