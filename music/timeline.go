package music

// TempoMap converts between the host's ticks and seconds.
type TempoMap interface {
	TickToSeconds(tick int64) float64
	SecondsToTick(seconds float64) int64
}

// Region anchors decoder output onto the project timeline. It is taken from
// the source audio clip when a run starts.
type Region struct {
	ClipStart  int64 // visible start of the audio clip
	ClipEnd    int64
	AudioStart int64 // tick where the audio file itself starts
}

// TickNote is a note ready to be inserted in a host clip.
type TickNote struct {
	Start    int64
	End      int64
	Pitch    uint8
	Velocity uint8
}

// ToTicks places a note on the project timeline. ok is false when the note
// collapses to zero length after rounding.
func ToTicks(n Note, region Region, tempo TempoMap) (tn TickNote, ok bool) {
	offset := tempo.TickToSeconds(region.AudioStart)
	tn = TickNote{
		Start:    tempo.SecondsToTick(n.Start + offset),
		End:      tempo.SecondsToTick(n.End + offset),
		Pitch:    n.Pitch,
		Velocity: n.Velocity,
	}
	// audio may start before the song does
	tn.Start = max(tn.Start, 0)
	return tn, tn.End > tn.Start
}

// MapNotes converts all notes and returns how many were dropped.
func MapNotes(notes []Note, region Region, tempo TempoMap) (res []TickNote, dropped int) {
	res = make([]TickNote, 0, len(notes))
	for _, n := range notes {
		tn, ok := ToTicks(n, region, tempo)
		if !ok {
			dropped += 1
			continue
		}
		res = append(res, tn)
	}
	return res, dropped
}
