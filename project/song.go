package project

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/JeanRibes/transcribe/shared"
	"github.com/google/uuid"
	"gitlab.com/gomidi/midi/v2/smf"
)

type TempoEvent struct {
	Tick int64   `yaml:"tick" json:"tick"`
	BPM  float64 `yaml:"bpm" json:"bpm"`
}

// Song is the host project: a tempo map and an ordered list of tracks.
type Song struct {
	PPQ    smf.MetricTicks `yaml:"ppq" json:"ppq"`
	Tempos []TempoEvent    `yaml:"tempos" json:"tempos"`
	Tracks []*Track        `yaml:"tracks" json:"tracks"`

	mu sync.Mutex
}

func NewSong() *Song {
	return &Song{
		PPQ:    shared.DefaultPPQ,
		Tempos: []TempoEvent{{Tick: 0, BPM: shared.BPM}},
	}
}

var ErrInvalidTempo = errors.New("invalid tempo")

// Normalize fills what a hand-written or decoded project may leave out:
// resolution, tempo, ids. A tempo map that cannot be used is an error.
func (s *Song) Normalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PPQ == 0 {
		s.PPQ = shared.DefaultPPQ
	}
	if len(s.Tempos) == 0 {
		s.Tempos = []TempoEvent{{Tick: 0, BPM: shared.BPM}}
	}
	for i, t := range s.Tempos {
		if !(t.BPM > 0) || math.IsInf(t.BPM, 0) {
			return fmt.Errorf("tempo %d at tick %d: bpm %v: %w", i, t.Tick, t.BPM, ErrInvalidTempo)
		}
		if t.Tick < 0 {
			return fmt.Errorf("tempo %d: negative tick %d: %w", i, t.Tick, ErrInvalidTempo)
		}
	}
	slices.SortStableFunc(s.Tempos, func(a, b TempoEvent) int {
		return cmp.Compare(a.Tick, b.Tick)
	})
	for _, tr := range s.Tracks {
		if tr.ID == "" {
			tr.ID = uuid.NewString()
		}
		for _, c := range tr.Clips {
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
		}
	}
	return nil
}

func (s *Song) Track(id string) (*Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range s.Tracks {
		if tr.ID == id {
			return tr, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrTrackNotFound, id)
}

// TrackIndex returns -1 when there is no such track.
func (s *Song) TrackIndex(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.IndexFunc(s.Tracks, func(tr *Track) bool { return tr.ID == id })
}

// CreateTrack inserts a new empty track at index (clamped to the track list).
func (s *Song) CreateTrack(typ TrackType, index int, name string) *Track {
	tr := &Track{ID: uuid.NewString(), Name: name, Type: typ}
	s.mu.Lock()
	defer s.mu.Unlock()
	index = min(max(index, 0), len(s.Tracks))
	s.Tracks = slices.Insert(s.Tracks, index, tr)
	return tr
}

func (s *Song) RemoveTrack(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.Tracks)
	s.Tracks = slices.DeleteFunc(s.Tracks, func(tr *Track) bool { return tr.ID == id })
	return len(s.Tracks) != n
}

func (s *Song) tempoMap() []TempoEvent {
	if len(s.Tempos) == 0 {
		return []TempoEvent{{Tick: 0, BPM: shared.BPM}}
	}
	tempos := s.Tempos
	if tempos[0].Tick > 0 {
		// the first tempo also rules before its own tick
		tempos = append([]TempoEvent{{Tick: 0, BPM: tempos[0].BPM}}, tempos...)
	}
	return tempos
}

func (s *Song) secondsPerTick(bpm float64) float64 {
	ppq := s.PPQ
	if ppq == 0 {
		ppq = shared.DefaultPPQ
	}
	return 60 / (bpm * float64(ppq))
}

func (s *Song) TickToSeconds(tick int64) float64 {
	tempos := s.tempoMap()
	var secs float64
	for i, t := range tempos {
		last := i == len(tempos)-1
		if last || tick <= tempos[i+1].Tick {
			return secs + float64(tick-t.Tick)*s.secondsPerTick(t.BPM)
		}
		secs += float64(tempos[i+1].Tick-t.Tick) * s.secondsPerTick(t.BPM)
	}
	return secs
}

// SecondsToTick rounds to the nearest tick.
func (s *Song) SecondsToTick(seconds float64) int64 {
	tempos := s.tempoMap()
	var start float64 // seconds at the current tempo event
	for i, t := range tempos {
		spt := s.secondsPerTick(t.BPM)
		if i < len(tempos)-1 {
			end := start + float64(tempos[i+1].Tick-t.Tick)*spt
			if seconds >= end {
				start = end
				continue
			}
		}
		return t.Tick + int64(math.Round((seconds-start)/spt))
	}
	return 0
}
