package music

import "github.com/JeanRibes/transcribe/shared"

// Note is a refined note, times in seconds from the start of the audio.
type Note struct {
	Start    float64
	End      float64
	Pitch    uint8
	Velocity uint8
}

func (n Note) Duration() float64 {
	return n.End - n.Start
}

type RefineOptions struct {
	// spans shorter than this are noise
	MinDurationFrames int `yaml:"min_duration_frames"`
	// same-pitch spans separated by at most this many silent frames are joined,
	// 0 disables merging
	MergeGapFrames int `yaml:"merge_gap_frames"`
}

func DefaultRefineOptions() RefineOptions {
	return RefineOptions{MinDurationFrames: 1}
}

// Refine cleans the segmenter output and converts it to seconds.
// frameCount is the length of the sequence the spans come from.
func Refine(spans []Span, frameCount int, hop float64, opts RefineOptions) []Note {
	kept := make([]Span, 0, len(spans))
	for _, s := range spans {
		s.Start = max(s.Start, 0)
		s.End = min(s.End, frameCount)
		if s.Frames() <= 0 || s.Frames() < opts.MinDurationFrames {
			continue
		}
		if n := len(kept); n > 0 && opts.MergeGapFrames > 0 {
			prev := &kept[n-1]
			gap := s.Start - prev.End
			if prev.Pitch == s.Pitch && gap >= 1 && gap <= opts.MergeGapFrames {
				prev.End = s.End
				continue
			}
		}
		kept = append(kept, s)
	}

	notes := make([]Note, 0, len(kept))
	for _, s := range kept {
		notes = append(notes, Note{
			Start:    float64(s.Start) * hop,
			End:      float64(s.End) * hop,
			Pitch:    uint8(min(max(s.Pitch, 0), 127)),
			Velocity: shared.Velocity,
		})
	}
	return notes
}

// Decode runs the segmenter and the refiner on one frame sequence.
func Decode(seq FrameSequence, th shared.Thresholds, opts RefineOptions) []Note {
	return Refine(Segment(seq, th.Onset, th.Silence), seq.Len(), seq.Hop, opts)
}
