package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/JeanRibes/transcribe/music"
	"github.com/JeanRibes/transcribe/shared"
	charmlog "github.com/charmbracelet/log"
)

const DefaultSeparateFlag = "--separate"

// Script runs an external predictor as `Command Args... [SeparateFlag] audioPath`
// and reads the model output as JSON on its stdout.
type Script struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Dir     string   `yaml:"dir"`
	// passed when the accompaniment must be separated first, DefaultSeparateFlag if empty
	SeparateFlag string `yaml:"separate_flag"`
}

func (s Script) args(audioPath string, opts shared.ModelOptions) []string {
	args := slices.Clone(s.Args)
	if opts.Separate {
		flag := s.SeparateFlag
		if flag == "" {
			flag = DefaultSeparateFlag
		}
		args = append(args, flag)
	}
	return append(args, audioPath)
}

func (s Script) Frames(ctx context.Context, audioPath string, opts shared.ModelOptions) (music.FrameSequence, error) {
	if s.Command == "" {
		return music.FrameSequence{}, fmt.Errorf("no model command configured")
	}
	logger := charmlog.FromContext(ctx)

	cmd := exec.CommandContext(ctx, s.Command, s.args(audioPath, opts)...)
	cmd.Dir = s.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		return music.FrameSequence{}, fmt.Errorf("%s: %w: %s", s.Command, err, strings.TrimSpace(stderr.String()))
	}
	logger.Debug("model finished", "command", s.Command, "audio", audioPath, "took", time.Since(start))
	return DecodeJSON(bytes.NewReader(out))
}
