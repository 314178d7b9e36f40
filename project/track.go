package project

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JeanRibes/transcribe/shared"
	"github.com/google/uuid"
)

type TrackType string

const (
	AudioTrack TrackType = "audio"
	NoteTrack  TrackType = "note"
)

type ClipType string

const (
	AudioClip ClipType = "audio"
	NoteClip  ClipType = "note"
)

var ErrInvalidRange = errors.New("invalid clip range")

type Track struct {
	ID   string    `yaml:"id" json:"id"`
	Name string    `yaml:"name,omitempty" json:"name,omitempty"`
	Type TrackType `yaml:"type" json:"type"`
	// plays through the host's default sampler
	DefaultSampler bool    `yaml:"default_sampler,omitempty" json:"defaultSampler,omitempty"`
	Clips          []*Clip `yaml:"clips,omitempty" json:"clips,omitempty"`
}

type AudioData struct {
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty"`
	StartTick int64  `yaml:"start_tick" json:"startTick"`
	// inline audio sent by the host, never written to project files
	Data []byte `yaml:"-" json:"data,omitempty"`
}

type Note struct {
	Pitch    uint8 `yaml:"pitch" json:"pitch"`
	Velocity uint8 `yaml:"velocity" json:"velocity"`
	Start    int64 `yaml:"start" json:"startTick"`
	End      int64 `yaml:"end" json:"endTick"`
}

type Clip struct {
	ID    string     `yaml:"id" json:"id"`
	Type  ClipType   `yaml:"type" json:"type"`
	Start int64      `yaml:"start" json:"clipStartTick"`
	End   int64      `yaml:"end" json:"clipEndTick"`
	Audio *AudioData `yaml:"audio,omitempty" json:"audio,omitempty"`
	Notes []Note     `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// NewNoteClip returns a clip that is not on any track yet.
func NewNoteClip(start, end int64) *Clip {
	return &Clip{ID: uuid.NewString(), Type: NoteClip, Start: start, End: end}
}

// CreateNote keeps notes ordered by start tick. Notes may extend past the
// clip bounds, the clip only decides what is heard.
func (c *Clip) CreateNote(pitch, velocity uint8, start, end int64) error {
	if c.Type != NoteClip {
		return fmt.Errorf("clip %s is a %s clip, notes go in note clips", c.ID, c.Type)
	}
	if pitch > 127 || velocity > 127 {
		return fmt.Errorf("clip %s: pitch %d / velocity %d out of MIDI range", c.ID, pitch, velocity)
	}
	if end <= start {
		return fmt.Errorf("clip %s: note [%d, %d): %w", c.ID, start, end, ErrInvalidRange)
	}
	n := Note{Pitch: pitch, Velocity: velocity, Start: start, End: end}
	i := slices.IndexFunc(c.Notes, func(o Note) bool { return o.Start > start })
	if i < 0 {
		i = len(c.Notes)
	}
	c.Notes = slices.Insert(c.Notes, i, n)
	return nil
}

func (c *Clip) overlaps(start, end int64) bool {
	return c.Start < end && start < c.End
}

func (t *Track) Clip(id string) (*Clip, error) {
	for _, c := range t.Clips {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q on track %q", shared.ErrClipNotFound, id, t.ID)
}

func (t *Track) ClipIndex(id string) int {
	return slices.IndexFunc(t.Clips, func(c *Clip) bool { return c.ID == id })
}

func (t *Track) InsertClip(index int, c *Clip) {
	index = min(max(index, 0), len(t.Clips))
	t.Clips = slices.Insert(t.Clips, index, c)
}

func (t *Track) RemoveClip(id string) bool {
	n := len(t.Clips)
	t.Clips = slices.DeleteFunc(t.Clips, func(c *Clip) bool { return c.ID == id })
	return len(t.Clips) != n
}

// AdjustClipLeft moves the start of a clip. With resolveConflict the
// neighbours overlapped by the new range are trimmed or removed, without it
// the boundary is forced and overlaps are left as they are.
func (t *Track) AdjustClipLeft(id string, tick int64, resolveConflict bool) error {
	c, err := t.Clip(id)
	if err != nil {
		return err
	}
	if tick < 0 || tick >= c.End {
		return fmt.Errorf("clip %s: left %d, right %d: %w", id, tick, c.End, ErrInvalidRange)
	}
	c.Start = tick
	if resolveConflict {
		t.resolveConflicts(c)
	}
	return nil
}

func (t *Track) AdjustClipRight(id string, tick int64, resolveConflict bool) error {
	c, err := t.Clip(id)
	if err != nil {
		return err
	}
	if tick <= c.Start {
		return fmt.Errorf("clip %s: left %d, right %d: %w", id, c.Start, tick, ErrInvalidRange)
	}
	c.End = tick
	if resolveConflict {
		t.resolveConflicts(c)
	}
	return nil
}

func (t *Track) resolveConflicts(keep *Clip) {
	t.Clips = slices.DeleteFunc(t.Clips, func(c *Clip) bool {
		if c == keep || !c.overlaps(keep.Start, keep.End) {
			return false
		}
		switch {
		case c.Start >= keep.Start && c.End <= keep.End:
			return true
		case c.Start < keep.Start:
			c.End = keep.Start
		default:
			c.Start = keep.End
		}
		return false
	})
}
