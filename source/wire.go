// Package source provides frame sources: the adapters that get per-frame
// model output for an audio file.
package source

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JeanRibes/transcribe/music"
	"gopkg.in/yaml.v3"
)

// Output is the model output as written by the predictor script. Either
// Pitch or PitchProbs must be set, PitchProbs rows are distributions over
// MIDI notes starting at PitchBase.
type Output struct {
	Hop        float64     `json:"hop" yaml:"hop"`
	Onset      []float64   `json:"onset" yaml:"onset"`
	Offset     []float64   `json:"offset" yaml:"offset"`
	Pitch      []int       `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	PitchProbs [][]float64 `json:"pitch_probs,omitempty" yaml:"pitch_probs,omitempty"`
	PitchBase  int         `json:"pitch_base,omitempty" yaml:"pitch_base,omitempty"`
}

func (o Output) Sequence() (music.FrameSequence, error) {
	pitch := o.Pitch
	if len(o.PitchProbs) > 0 {
		if len(o.Pitch) > 0 {
			return music.FrameSequence{}, fmt.Errorf("both pitch and pitch_probs are set")
		}
		pitch = make([]int, len(o.PitchProbs))
		for i, probs := range o.PitchProbs {
			pitch[i] = music.PitchFromDistribution(probs, o.PitchBase)
		}
	}
	seq, err := music.NewFrameSequence(o.Hop, o.Onset, o.Offset, pitch)
	if err != nil {
		return seq, err
	}
	return seq, seq.Validate()
}

func DecodeJSON(r io.Reader) (music.FrameSequence, error) {
	var o Output
	if err := json.NewDecoder(r).Decode(&o); err != nil {
		return music.FrameSequence{}, fmt.Errorf("decoding model output: %w", err)
	}
	return o.Sequence()
}

func DecodeYAML(r io.Reader) (music.FrameSequence, error) {
	var o Output
	if err := yaml.NewDecoder(r).Decode(&o); err != nil {
		return music.FrameSequence{}, fmt.Errorf("decoding model output: %w", err)
	}
	return o.Sequence()
}
