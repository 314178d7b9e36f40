package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JeanRibes/transcribe/music"
	"github.com/JeanRibes/transcribe/project"
	"github.com/JeanRibes/transcribe/shared"
)

// FrameSource runs the model on one audio file.
type FrameSource interface {
	Frames(ctx context.Context, audioPath string, opts shared.ModelOptions) (music.FrameSequence, error)
}

type FrameSourceFunc func(ctx context.Context, audioPath string, opts shared.ModelOptions) (music.FrameSequence, error)

func (f FrameSourceFunc) Frames(ctx context.Context, audioPath string, opts shared.ModelOptions) (music.FrameSequence, error) {
	return f(ctx, audioPath, opts)
}

// frames calls the model and turns a panic into an error so that the temp
// audio still gets released by the caller's defer.
func frames(ctx context.Context, src FrameSource, path string, opts shared.ModelOptions) (seq music.FrameSequence, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return src.Frames(ctx, path, opts)
}

// openAudio gives the model a file to read for clip. Inline audio goes to
// <tmp dir>/<clip id>.<format> that release removes, so the file name stays
// a stable key. Audio referenced by path is used in place.
func openAudio(clip *project.Clip) (path string, release func(), err error) {
	release = func() {}
	a := clip.Audio
	if a == nil {
		return "", release, shared.ErrMissingAudioData
	}
	if len(a.Data) > 0 {
		dir, err := os.MkdirTemp("", "transcribe-*")
		if err != nil {
			return "", release, err
		}
		release = func() { os.RemoveAll(dir) }
		path := filepath.Join(dir, inlineName(clip.ID, a.Format))
		if err := os.WriteFile(path, a.Data, 0o600); err != nil {
			release()
			return "", func() {}, err
		}
		return path, release, nil
	}
	if a.Path == "" {
		return "", release, shared.ErrMissingAudioData
	}
	if _, err := os.Stat(a.Path); err != nil {
		return "", release, fmt.Errorf("%w: %v", shared.ErrMissingAudioData, err)
	}
	return a.Path, release, nil
}

func inlineName(clipID, format string) string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(clipID)
	if name == "" || name == "." || name == ".." {
		name = "clip"
	}
	if format != "" && !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	return name + format
}
