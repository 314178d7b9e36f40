package music

// Span is a raw note in frame units, End is exclusive.
type Span struct {
	Start int
	End   int
	Pitch int
}

func (s Span) Frames() int {
	return s.End - s.Start
}

/*
Segment folds the frame sequence into note spans.

	onset            → start a note, pitch taken at this frame
	onset while on   → cut the current note and start the next one on the same frame
	silence while on → end the note
	end of sequence  → end the note

Both thresholds trigger on equality.
*/
func Segment(seq FrameSequence, onsetThreshold, silenceThreshold float64) []Span {
	spans := []Span{}
	on := false
	var start, pitch int
	for i, f := range seq.Frames {
		onset := f.Onset >= onsetThreshold
		if on && (onset || f.Offset >= silenceThreshold) {
			spans = append(spans, Span{Start: start, End: i, Pitch: pitch})
			on = false
		}
		if !on && onset {
			on = true
			start = i
			pitch = f.Pitch // the voice drifts, keep the pitch of the attack
		}
	}
	if on {
		spans = append(spans, Span{Start: start, End: len(seq.Frames), Pitch: pitch})
	}
	return spans
}
