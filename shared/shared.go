package shared

import (
	"errors"
	"fmt"
	"math"
)

// Status of one clip in a transcription run.
type Status int

const (
	Transcribed Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Transcribed:
		return "transcribed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{Transcribed, Skipped, Failed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

const (
	ProviderID = "hellwz"
	PluginID   = "singing-transcription"
	PathPrefix = "/plugins/transcribe-singing"
)

// every transcribed note gets the same velocity, the model has no dynamics output
const Velocity = 100

const (
	DefaultOnsetThreshold   = 0.4
	DefaultSilenceThreshold = 0.5
	MinThreshold            = 0.1
	MaxThreshold            = 0.9
	ThresholdStep           = 0.1
)

const DefaultPPQ = 480

var BPM = float64(120)

var (
	ErrMissingAudioData   = errors.New("clip has no resolvable audio data")
	ErrEmptyFrameSequence = errors.New("model returned an empty frame sequence")
	ErrBoundaryForce      = errors.New("clip boundary could not be forced to the audio region")
	ErrTrackNotFound      = errors.New("track not found")
	ErrClipNotFound       = errors.New("clip not found")
	ErrNotAudioTrack      = errors.New("can only transcribe audio tracks")
	ErrNotAudioClip       = errors.New("not an audio clip")
	ErrThresholdRange     = errors.New("threshold out of range")
)

type Thresholds struct {
	Onset   float64 `yaml:"onset" json:"onsetThreshold"`
	Silence float64 `yaml:"silence" json:"silenceThreshold"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Onset: DefaultOnsetThreshold, Silence: DefaultSilenceThreshold}
}

func (t Thresholds) Validate() (errs error) {
	if math.IsNaN(t.Onset) || t.Onset < MinThreshold || t.Onset > MaxThreshold {
		errs = errors.Join(errs, fmt.Errorf("onset %v not in [%v, %v]: %w", t.Onset, MinThreshold, MaxThreshold, ErrThresholdRange))
	}
	if math.IsNaN(t.Silence) || t.Silence < MinThreshold || t.Silence > MaxThreshold {
		errs = errors.Join(errs, fmt.Errorf("silence %v not in [%v, %v]: %w", t.Silence, MinThreshold, MaxThreshold, ErrThresholdRange))
	}
	return errs
}

// ModelOptions go to the model along with each audio file.
type ModelOptions struct {
	// split the accompaniment off before transcribing the voice
	Separate bool `yaml:"separate" json:"doSeparation"`
}
