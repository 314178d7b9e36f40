package project

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/JeanRibes/transcribe/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

const songYAML = `
ppq: 480
tempos:
  - {tick: 0, bpm: 120}
tracks:
  - id: vocals
    name: Vocals
    type: audio
    clips:
      - id: verse
        type: audio
        start: 0
        end: 960
        audio: {path: verse.wav, start_tick: 0}
      - type: audio
        start: 1920
        end: 2880
`

func TestTickSecondsConstantTempo(t *testing.T) {
	s := NewSong()

	assert := assert.New(t)
	assert.InDelta(0.5, s.TickToSeconds(480), 1e-12)
	assert.Equal(int64(192), s.SecondsToTick(0.2))
	assert.Equal(int64(1152), s.SecondsToTick(1.2))
	assert.Equal(int64(-480), s.SecondsToTick(-0.5))
}

func TestTickSecondsTempoChange(t *testing.T) {
	s := NewSong()
	s.Tempos = append(s.Tempos, TempoEvent{Tick: 960, BPM: 60})

	assert := assert.New(t)
	// one second at 120, then 480 ticks per second
	assert.InDelta(1.0, s.TickToSeconds(960), 1e-12)
	assert.InDelta(2.0, s.TickToSeconds(1440), 1e-12)
	assert.Equal(int64(960), s.SecondsToTick(1))
	assert.Equal(int64(1440), s.SecondsToTick(2))
	assert.Equal(int64(480), s.SecondsToTick(0.5))
}

func TestFirstTempoRulesBeforeItsTick(t *testing.T) {
	s := NewSong()
	s.Tempos = []TempoEvent{{Tick: 480, BPM: 60}}

	assert.InDelta(t, 1.0, s.TickToSeconds(480), 1e-12)
}

func TestTickRoundTripIsIdempotent(t *testing.T) {
	s := NewSong()
	s.Tempos = append(s.Tempos, TempoEvent{Tick: 1000, BPM: 93.7}, TempoEvent{Tick: 5000, BPM: 141})
	for _, secs := range []float64{0, 0.013, 0.77, 1.04, 2.5, 3.3333, 9.99} {
		tick := s.SecondsToTick(secs)
		assert.Equal(t, tick, s.SecondsToTick(s.TickToSeconds(tick)), "seconds %v", secs)
	}
}

func TestDecodeNormalizes(t *testing.T) {
	s, err := Decode(strings.NewReader(songYAML))
	require.NoError(t, err)

	assert := assert.New(t)
	require.Len(t, s.Tracks, 1)
	tr := s.Tracks[0]
	assert.Equal(AudioTrack, tr.Type)
	require.Len(t, tr.Clips, 2)
	assert.Equal("verse.wav", tr.Clips[0].Audio.Path)
	assert.NotEmpty(tr.Clips[1].ID)
	assert.Equal(smf.MetricTicks(480), s.PPQ)
}

func TestEncodeDecode(t *testing.T) {
	s := NewSong()
	tr := s.CreateTrack(NoteTrack, 0, "Melody")
	c := NewNoteClip(0, 960)
	require.NoError(t, c.CreateNote(64, 100, 192, 1152))
	tr.InsertClip(0, c)

	var bf bytes.Buffer
	require.NoError(t, s.Encode(&bf))
	again, err := Decode(&bf)
	require.NoError(t, err)

	assert.Equal(t, s.Tracks, again.Tracks)
}

func TestTrackLookups(t *testing.T) {
	s, err := Decode(strings.NewReader(songYAML))
	require.NoError(t, err)

	_, err = s.Track("nope")
	assert := assert.New(t)
	assert.True(errors.Is(err, shared.ErrTrackNotFound))
	assert.Contains(err.Error(), "nope")

	tr, err := s.Track("vocals")
	require.NoError(t, err)
	_, err = tr.Clip("chorus")
	assert.ErrorIs(err, shared.ErrClipNotFound)
	assert.Equal(0, tr.ClipIndex("verse"))
}

func TestCreateTrackAtIndex(t *testing.T) {
	s := NewSong()
	a := s.CreateTrack(AudioTrack, 0, "a")
	b := s.CreateTrack(AudioTrack, 1, "b")
	n := s.CreateTrack(NoteTrack, s.TrackIndex(a.ID)+1, "a notes")

	assert := assert.New(t)
	assert.Equal([]*Track{a, n, b}, s.Tracks)
	assert.Equal(-1, s.TrackIndex("missing"))
	assert.True(s.RemoveTrack(n.ID))
	assert.False(s.RemoveTrack(n.ID))
}

func TestCreateNoteOrdering(t *testing.T) {
	c := NewNoteClip(0, 960)
	require.NoError(t, c.CreateNote(60, 100, 480, 600))
	require.NoError(t, c.CreateNote(62, 100, 0, 100))
	require.NoError(t, c.CreateNote(64, 100, 480, 700))

	assert := assert.New(t)
	assert.Equal([]uint8{62, 60, 64}, []uint8{c.Notes[0].Pitch, c.Notes[1].Pitch, c.Notes[2].Pitch})
	assert.ErrorIs(c.CreateNote(60, 100, 10, 10), ErrInvalidRange)
	assert.Error(c.CreateNote(200, 100, 0, 10))
	assert.Error((&Clip{Type: AudioClip}).CreateNote(60, 100, 0, 10))
}

func TestAdjustWithoutConflictResolutionForces(t *testing.T) {
	tr := &Track{Type: NoteTrack}
	left := NewNoteClip(0, 1000)
	right := NewNoteClip(1000, 2000)
	tr.InsertClip(0, left)
	tr.InsertClip(1, right)

	require.NoError(t, tr.AdjustClipRight(left.ID, 1500, false))

	assert := assert.New(t)
	assert.Equal(int64(1500), left.End)
	assert.Equal(int64(1000), right.Start)
	assert.Len(tr.Clips, 2)
}

func TestAdjustWithConflictResolutionTrims(t *testing.T) {
	tr := &Track{Type: NoteTrack}
	a := NewNoteClip(0, 1000)
	b := NewNoteClip(1000, 1200)
	c := NewNoteClip(1200, 2000)
	for i, clip := range []*Clip{a, b, c} {
		tr.InsertClip(i, clip)
	}

	require.NoError(t, tr.AdjustClipRight(a.ID, 1500, true))

	assert := assert.New(t)
	assert.Equal([]*Clip{a, c}, tr.Clips)
	assert.Equal(int64(1500), c.Start)
}

func TestAdjustRejectsInvalidRange(t *testing.T) {
	tr := &Track{Type: NoteTrack}
	c := NewNoteClip(100, 200)
	tr.InsertClip(0, c)

	assert := assert.New(t)
	assert.ErrorIs(tr.AdjustClipLeft(c.ID, 200, false), ErrInvalidRange)
	assert.ErrorIs(tr.AdjustClipLeft(c.ID, -1, false), ErrInvalidRange)
	assert.ErrorIs(tr.AdjustClipRight(c.ID, 100, false), ErrInvalidRange)
	assert.ErrorIs(tr.AdjustClipRight("other", 300, false), shared.ErrClipNotFound)
}

func TestExportTrack(t *testing.T) {
	s := NewSong()
	tr := s.CreateTrack(NoteTrack, 0, "Melody")
	c := NewNoteClip(0, 960)
	require.NoError(t, c.CreateNote(64, 100, 192, 1152)) // cut at 960
	require.NoError(t, c.CreateNote(65, 100, 960, 1000)) // outside, not heard
	require.NoError(t, c.CreateNote(60, 90, 0, 192))
	tr.InsertClip(0, c)

	f, err := s.ExportTrack(tr.ID)
	require.NoError(t, err)
	var bf bytes.Buffer
	require.NoError(t, WriteSMF(&bf, f, false))

	rd, err := smf.ReadFrom(&bf)
	require.NoError(t, err)
	assert := assert.New(t)
	assert.Equal(2, rd.NumTracks())

	var ch, key, vel uint8
	var ons []uint8
	var abs, offAt uint32
	for _, ev := range rd.Tracks[1] {
		abs += ev.Delta
		if ev.Message.GetNoteOn(&ch, &key, &vel) {
			ons = append(ons, key)
		} else if ev.Message.GetNoteOff(&ch, &key, &vel) && key == 64 {
			offAt = abs
		}
	}
	assert.Equal([]uint8{60, 64}, ons)
	assert.Equal(uint32(960), offAt)
}

func TestExportRejectsAudioTrack(t *testing.T) {
	s, err := Decode(strings.NewReader(songYAML))
	require.NoError(t, err)

	_, err = s.ExportTrack("vocals")
	assert.Error(t, err)
}

func TestDecodeRejectsBadTempo(t *testing.T) {
	for _, tempos := range []string{
		"[{tick: 0}]",
		"[{tick: 0, bpm: -90}]",
		"[{tick: 0, bpm: 120}, {tick: 960, bpm: .nan}]",
		"[{tick: 0, bpm: .inf}]",
		"[{tick: -10, bpm: 120}]",
	} {
		_, err := Decode(strings.NewReader("tempos: " + tempos))
		assert.ErrorIs(t, err, ErrInvalidTempo, tempos)
	}

	s := &Song{Tempos: []TempoEvent{{Tick: 480, BPM: 90}}}
	assert.NoError(t, s.Normalize())
	assert.Equal(t, smf.MetricTicks(480), s.PPQ)
}
