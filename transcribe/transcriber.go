package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/JeanRibes/transcribe/music"
	"github.com/JeanRibes/transcribe/project"
	"github.com/JeanRibes/transcribe/shared"
	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Thresholds shared.Thresholds   `yaml:"thresholds"`
	Refine     music.RefineOptions `yaml:"refine"`
	Model      shared.ModelOptions `yaml:"model"`
	// clips decoded at the same time, placement order is kept regardless
	Workers int `yaml:"workers"`
}

func DefaultOptions() Options {
	return Options{
		Thresholds: shared.DefaultThresholds(),
		Refine:     music.DefaultRefineOptions(),
		Workers:    1,
	}
}

// ClipOutcome is what happened to one source clip.
type ClipOutcome struct {
	SourceClipID string        `json:"sourceClipId"`
	ClipID       string        `json:"clipId,omitempty"` // clip created on the destination track
	Status       shared.Status `json:"status"`
	Notes        int           `json:"notes"`
	Dropped      int           `json:"dropped"` // collapsed to zero ticks
	Err          error         `json:"-"`
	Error        string        `json:"error,omitempty"`
}

type Report struct {
	SourceTrackID string        `json:"sourceTrackId"`
	TrackID       string        `json:"trackId"`
	Outcomes      []ClipOutcome `json:"outcomes"`
}

func (r *Report) Count(status shared.Status) (n int) {
	for _, o := range r.Outcomes {
		if o.Status == status {
			n += 1
		}
	}
	return n
}

// Err joins the errors of the failed clips.
func (r *Report) Err() (errs error) {
	for _, o := range r.Outcomes {
		if o.Status == shared.Failed {
			errs = errors.Join(errs, fmt.Errorf("clip %s: %w", o.SourceClipID, o.Err))
		}
	}
	return errs
}

type Transcriber struct {
	source FrameSource
	opts   Options
	logger *charmlog.Logger
}

func New(source FrameSource, opts Options, logger *charmlog.Logger) *Transcriber {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr, charmlog.InfoLevel, "transcribe")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Transcriber{source: source, opts: opts, logger: logger}
}

// Progress is called once per source clip, in source order.
type Progress func(ClipOutcome)

type job struct {
	clip    *project.Clip
	region  music.Region
	notes   []music.TickNote
	dropped int
	status  shared.Status
	err     error
}

// TranscribeTrack transcribes every audio clip of a track into a new note
// track placed right after it.
func (t *Transcriber) TranscribeTrack(ctx context.Context, song *project.Song, trackID string, progress Progress) (*Report, error) {
	src, err := t.sourceTrack(song, trackID)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, song, src, src.Clips, progress)
}

// TranscribeClip is the interactive trigger: only one clip is processed.
func (t *Transcriber) TranscribeClip(ctx context.Context, song *project.Song, trackID, clipID string, progress Progress) (*Report, error) {
	src, err := t.sourceTrack(song, trackID)
	if err != nil {
		return nil, err
	}
	clip, err := src.Clip(clipID)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, song, src, []*project.Clip{clip}, progress)
}

func (t *Transcriber) sourceTrack(song *project.Song, trackID string) (*project.Track, error) {
	if err := t.opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	src, err := song.Track(trackID)
	if err != nil {
		return nil, err
	}
	if src.Type != project.AudioTrack {
		return nil, fmt.Errorf("track %q: %w", trackID, shared.ErrNotAudioTrack)
	}
	return src, nil
}

func (t *Transcriber) run(ctx context.Context, song *project.Song, src *project.Track, clips []*project.Clip, progress Progress) (*Report, error) {
	logger := t.logger.With("track", src.ID)
	ctx = charmlog.WithContext(ctx, logger)

	dst := song.CreateTrack(project.NoteTrack, song.TrackIndex(src.ID)+1, src.Name)
	dst.DefaultSampler = true
	logger.Info("start", "clips", len(clips), "destination", dst.ID,
		"onset", t.opts.Thresholds.Onset, "silence", t.opts.Thresholds.Silence)

	jobs := make([]*job, len(clips))
	for i, clip := range clips {
		jobs[i] = prepare(clip)
	}

	g := new(errgroup.Group)
	g.SetLimit(t.opts.Workers)
	for _, j := range jobs {
		if j.err != nil {
			continue
		}
		g.Go(func() error {
			t.decode(ctx, song, j)
			return nil
		})
	}
	g.Wait()

	report := &Report{SourceTrackID: src.ID, TrackID: dst.ID, Outcomes: make([]ClipOutcome, 0, len(jobs))}
	index := 0
	for _, j := range jobs {
		out := ClipOutcome{SourceClipID: j.clip.ID, Status: j.status, Dropped: j.dropped, Err: j.err}
		if j.err == nil {
			clip, err := Materialize(dst, index, j.region, j.notes)
			if err != nil {
				out.Status, out.Err = shared.Failed, err
			} else {
				out.ClipID = clip.ID
				out.Notes = len(clip.Notes)
				index += 1
			}
		}

		switch out.Status {
		case shared.Transcribed:
			logger.Info("clip transcribed", "clip", j.clip.ID, "notes", out.Notes, "dropped", out.Dropped)
		case shared.Skipped:
			logger.Warn("clip skipped", "clip", j.clip.ID, "reason", out.Err)
		case shared.Failed:
			logger.Error("clip failed", "clip", j.clip.ID, "err", out.Err)
		}
		if out.Err != nil {
			out.Error = out.Err.Error()
		}
		report.Outcomes = append(report.Outcomes, out)
		if progress != nil {
			progress(out)
		}
	}
	logger.Info("done", "transcribed", report.Count(shared.Transcribed),
		"skipped", report.Count(shared.Skipped), "failed", report.Count(shared.Failed))
	return report, nil
}

func prepare(clip *project.Clip) *job {
	j := &job{clip: clip}
	switch {
	case clip.Type != project.AudioClip:
		j.status, j.err = shared.Skipped, shared.ErrNotAudioClip
	case clip.Audio == nil:
		j.status, j.err = shared.Skipped, shared.ErrMissingAudioData
	default:
		j.region = music.Region{ClipStart: clip.Start, ClipEnd: clip.End, AudioStart: clip.Audio.StartTick}
	}
	return j
}

// decode runs the model and the decoding pipeline for one clip. It only
// touches j, so clips can be decoded concurrently.
func (t *Transcriber) decode(ctx context.Context, song *project.Song, j *job) {
	fail := func(err error) {
		j.status, j.err = shared.Failed, err
		if errors.Is(err, shared.ErrMissingAudioData) {
			j.status = shared.Skipped
		}
	}

	path, release, err := openAudio(j.clip)
	if err != nil {
		fail(err)
		return
	}
	defer release()

	charmlog.FromContext(ctx).Debug("running model", "clip", j.clip.ID, "audio", path, "separate", t.opts.Model.Separate)
	seq, err := frames(ctx, t.source, path, t.opts.Model)
	if err != nil {
		fail(fmt.Errorf("model: %w", err))
		return
	}
	if err := seq.Validate(); err != nil {
		fail(err)
		return
	}

	notes := music.Decode(seq, t.opts.Thresholds, t.opts.Refine)
	j.notes, j.dropped = music.MapNotes(notes, j.region, song)
	j.status = shared.Transcribed
}
