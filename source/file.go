package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JeanRibes/transcribe/music"
	"github.com/JeanRibes/transcribe/shared"
)

var sidecars = []struct {
	ext    string
	decode func(io.Reader) (music.FrameSequence, error)
}{
	{".frames.json", DecodeJSON},
	{".frames.yaml", DecodeYAML},
	{".frames.yml", DecodeYAML},
}

// File reads precomputed model output from a sidecar next to the audio
// (song.wav -> song.wav.frames.json), or from Dir when it is set. Inline
// audio is named after its clip, so Dir can hold <clip id>.<format>.frames.json.
// With separation the separated output (song.wav.vocals.frames.json) is
// preferred when it exists.
type File struct {
	Dir string
}

func (f File) Frames(ctx context.Context, audioPath string, opts shared.ModelOptions) (music.FrameSequence, error) {
	base := audioPath
	if f.Dir != "" {
		base = filepath.Join(f.Dir, filepath.Base(audioPath))
	}
	if opts.Separate {
		seq, err := f.read(base + ".vocals")
		if !errors.Is(err, os.ErrNotExist) {
			return seq, err
		}
	}
	seq, err := f.read(base)
	if errors.Is(err, os.ErrNotExist) {
		return seq, fmt.Errorf("no frames file for %s: %w", audioPath, os.ErrNotExist)
	}
	return seq, err
}

func (f File) read(base string) (music.FrameSequence, error) {
	for _, sc := range sidecars {
		fd, err := os.Open(base + sc.ext)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return music.FrameSequence{}, err
		}
		defer fd.Close()
		seq, err := sc.decode(fd)
		if err != nil {
			return seq, fmt.Errorf("%s: %w", fd.Name(), err)
		}
		return seq, nil
	}
	return music.FrameSequence{}, os.ErrNotExist
}
