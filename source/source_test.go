package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JeanRibes/transcribe/music"
	"github.com/JeanRibes/transcribe/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outputJSON = `{"hop": 0.02, "onset": [0, 0.9, 0], "offset": [0, 0, 0.8], "pitch": [60, 62, 62]}`

func TestDecodeJSON(t *testing.T) {
	seq, err := DecodeJSON(strings.NewReader(outputJSON))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(0.02, seq.Hop)
	assert.Equal([]music.Frame{{Pitch: 60}, {Onset: 0.9, Pitch: 62}, {Offset: 0.8, Pitch: 62}}, seq.Frames)
}

func TestDecodePitchProbs(t *testing.T) {
	in := `
hop: 0.02
onset: [0.5, 0]
offset: [0, 0.5]
pitch_base: 36
pitch_probs:
  - [0.1, 0.7, 0.2]
  - [0.3, 0.3, 0.1]
`
	seq, err := DecodeYAML(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []int{37, 36}, []int{seq.Frames[0].Pitch, seq.Frames[1].Pitch})
}

func TestDecodeRejectsBadOutput(t *testing.T) {
	assert := assert.New(t)

	_, err := DecodeJSON(strings.NewReader(`{"hop": 0.02, "onset": [0], "offset": [0, 0], "pitch": [60]}`))
	assert.ErrorContains(err, "length mismatch")

	_, err = DecodeJSON(strings.NewReader(`{"hop": 0.02, "onset": [], "offset": [], "pitch": []}`))
	assert.ErrorIs(err, shared.ErrEmptyFrameSequence)

	_, err = DecodeJSON(strings.NewReader(`{"hop": 0.02, "onset": [1.5], "offset": [0], "pitch": [60]}`))
	assert.Error(err)

	_, err = DecodeJSON(strings.NewReader(`{"hop": 0.02, "onset": [0], "offset": [0], "pitch": [60], "pitch_probs": [[1]]}`))
	assert.Error(err)

	_, err = DecodeJSON(strings.NewReader(`not json`))
	assert.Error(err)
}

func TestFileSidecar(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "take.wav")
	require.NoError(t, os.WriteFile(audio+".frames.json", []byte(outputJSON), 0o644))

	seq, err := File{}.Frames(context.Background(), audio, shared.ModelOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())
}

func TestFileDir(t *testing.T) {
	dir := t.TempDir()
	yml := "hop: 0.01\nonset: [0.9]\noffset: [0]\npitch: [64]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "take.wav.frames.yaml"), []byte(yml), 0o644))

	seq, err := File{Dir: dir}.Frames(context.Background(), "/somewhere/else/take.wav", shared.ModelOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.01, seq.Hop)

	_, err = File{Dir: dir}.Frames(context.Background(), "other.wav", shared.ModelOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScript(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "take.json")
	require.NoError(t, os.WriteFile(audio, []byte(outputJSON), 0o644))

	// the audio path is passed as the last argument, here $0 of the shell
	s := Script{Command: "sh", Args: []string{"-c", `cat "$0"`}}
	seq, err := s.Frames(context.Background(), audio, shared.ModelOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())
}

func TestScriptFailure(t *testing.T) {
	s := Script{Command: "sh", Args: []string{"-c", "echo out of memory >&2; exit 3"}}
	_, err := s.Frames(context.Background(), "take.wav", shared.ModelOptions{})
	assert.ErrorContains(t, err, "out of memory")

	_, err = Script{}.Frames(context.Background(), "take.wav", shared.ModelOptions{})
	assert.Error(t, err)
}

func TestScriptSeparateFlag(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "take.json")
	require.NoError(t, os.WriteFile(audio, []byte(outputJSON), 0o644))

	// fails unless the flag comes right before the audio path
	s := Script{Command: "sh", Args: []string{"-c", `test "$0" = --separate && cat "$1"`}}
	seq, err := s.Frames(context.Background(), audio, shared.ModelOptions{Separate: true})
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())

	_, err = s.Frames(context.Background(), audio, shared.ModelOptions{})
	assert.Error(t, err)

	s.SeparateFlag = "--svs"
	assert.Equal(t, []string{"-c", `test "$0" = --separate && cat "$1"`, "--svs", "a.wav"},
		s.args("a.wav", shared.ModelOptions{Separate: true}))
	assert.Equal(t, []string{"-c", `test "$0" = --separate && cat "$1"`, "a.wav"},
		s.args("a.wav", shared.ModelOptions{}))
}

func TestFileSeparated(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "take.wav")
	require.NoError(t, os.WriteFile(audio+".frames.json", []byte(outputJSON), 0o644))
	vocals := `{"hop": 0.02, "onset": [0.9], "offset": [0], "pitch": [70]}`

	// no separated output, the plain one is used
	seq, err := File{}.Frames(context.Background(), audio, shared.ModelOptions{Separate: true})
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())

	require.NoError(t, os.WriteFile(audio+".vocals.frames.json", []byte(vocals), 0o644))
	seq, err = File{}.Frames(context.Background(), audio, shared.ModelOptions{Separate: true})
	require.NoError(t, err)
	assert.Equal(t, 70, seq.Frames[0].Pitch)

	seq, err = File{}.Frames(context.Background(), audio, shared.ModelOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())
}
