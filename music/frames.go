package music

import (
	"fmt"

	"github.com/JeanRibes/transcribe/shared"
)

// Frame is one hop of model output.
type Frame struct {
	Onset  float64 // probability that a note starts here
	Offset float64 // probability that the sounding note has ended
	Pitch  int     // MIDI note number
}

// FrameSequence is the model output for one audio region. Frame i covers
// [i*Hop, (i+1)*Hop) seconds from the start of the audio.
type FrameSequence struct {
	Frames []Frame
	Hop    float64
}

func (s FrameSequence) Len() int {
	return len(s.Frames)
}

// Duration of the whole sequence in seconds.
func (s FrameSequence) Duration() float64 {
	return float64(len(s.Frames)) * s.Hop
}

func (s FrameSequence) Validate() error {
	if len(s.Frames) == 0 {
		return shared.ErrEmptyFrameSequence
	}
	if s.Hop <= 0 {
		return fmt.Errorf("frame hop must be positive, got %v", s.Hop)
	}
	for i, f := range s.Frames {
		if f.Onset < 0 || f.Onset > 1 || f.Offset < 0 || f.Offset > 1 {
			return fmt.Errorf("frame %d: probability out of [0, 1] (onset %v, offset %v)", i, f.Onset, f.Offset)
		}
		if f.Pitch < 0 || f.Pitch > 127 {
			return fmt.Errorf("frame %d: pitch %d out of MIDI range", i, f.Pitch)
		}
	}
	return nil
}

// NewFrameSequence zips three per-frame series, they must have the same length.
func NewFrameSequence(hop float64, onset, offset []float64, pitch []int) (FrameSequence, error) {
	if len(onset) != len(offset) || len(onset) != len(pitch) {
		return FrameSequence{}, fmt.Errorf("series length mismatch: onset %d, offset %d, pitch %d",
			len(onset), len(offset), len(pitch))
	}
	seq := FrameSequence{Hop: hop, Frames: make([]Frame, len(onset))}
	for i := range onset {
		seq.Frames[i] = Frame{Onset: onset[i], Offset: offset[i], Pitch: pitch[i]}
	}
	return seq, nil
}

// PitchFromDistribution returns base + argmax(probs). Ties keep the lowest index.
func PitchFromDistribution(probs []float64, base int) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return base + best
}
