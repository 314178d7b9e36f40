package project

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gitlab.com/gomidi/quantizer/lib/quantizer"
)

type noteEvent struct {
	tick int64
	on   bool
	key  uint8
	vel  uint8
}

// ExportTrack renders a note track as a type 1 SMF: a tempo track followed
// by the notes heard in each clip. Notes are cut to their clip's bounds.
func (s *Song) ExportTrack(id string) (*smf.SMF, error) {
	tr, err := s.Track(id)
	if err != nil {
		return nil, err
	}
	if tr.Type != NoteTrack {
		return nil, fmt.Errorf("track %q is not a note track", id)
	}

	f := smf.New()
	f.TimeFormat = s.PPQ

	conductor := smf.Track{}
	var prev int64
	for _, t := range s.tempoMap() {
		conductor.Add(uint32(t.Tick-prev), smf.MetaTempo(t.BPM))
		prev = t.Tick
	}
	conductor.Close(0)
	if err := f.Add(conductor); err != nil {
		return nil, err
	}

	events := []noteEvent{}
	for _, c := range tr.Clips {
		for _, n := range c.Notes {
			start, end := max(n.Start, c.Start), min(n.End, c.End)
			if end <= start {
				continue
			}
			events = append(events,
				noteEvent{tick: start, on: true, key: n.Pitch, vel: n.Velocity},
				noteEvent{tick: end, key: n.Pitch})
		}
	}
	// note offs first so that repeated pitches do not swallow each other
	slices.SortStableFunc(events, func(a, b noteEvent) int {
		if a.tick != b.tick {
			return cmp.Compare(a.tick, b.tick)
		}
		if a.on == b.on {
			return 0
		}
		if a.on {
			return 1
		}
		return -1
	})

	notes := smf.Track{}
	notes.Add(0, smf.MetaTrackSequenceName(tr.Name))
	prev = 0
	for _, ev := range events {
		if ev.on {
			notes.Add(uint32(ev.tick-prev), midi.NoteOn(0, ev.key, ev.vel))
		} else {
			notes.Add(uint32(ev.tick-prev), midi.NoteOff(0, ev.key))
		}
		prev = ev.tick
	}
	notes.Close(0)
	if err := f.Add(notes); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteSMF writes f to w, optionally snapping notes to the grid first.
func WriteSMF(w io.Writer, f *smf.SMF, quantize bool) error {
	if !quantize {
		_, err := f.WriteTo(w)
		return err
	}
	var bf bytes.Buffer
	if _, err := f.WriteTo(&bf); err != nil {
		return err
	}
	if err := quantizer.Quantize(&bf, w); err != nil {
		return fmt.Errorf("quantize: %w", err)
	}
	return nil
}
