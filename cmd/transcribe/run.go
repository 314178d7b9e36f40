package main

import (
	"fmt"
	"os"

	"github.com/JeanRibes/transcribe/project"
	"github.com/JeanRibes/transcribe/shared"
	"github.com/JeanRibes/transcribe/transcribe"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type runOptions struct {
	track, clip, out string
	onset, silence   float64
	framesDir        string
	modelCmd         string
	modelArgs        []string
	separate         bool
	workers          int
}

var runFlags runOptions

// apply overrides the config with the flags that were set on the command line.
func (o runOptions) apply(c Config, changed func(name string) bool) Config {
	if changed("onset-threshold") {
		c.Thresholds.Onset = o.onset
	}
	if changed("silence-threshold") {
		c.Thresholds.Silence = o.silence
	}
	if changed("frames-dir") {
		c.FramesDir, c.Model.Command = o.framesDir, ""
	}
	if changed("model-cmd") {
		c.Model.Command = o.modelCmd
	}
	if changed("model-arg") {
		c.Model.Args = o.modelArgs
	}
	if changed("separate") {
		c.Separate = o.separate
	}
	if changed("workers") {
		c.Workers = o.workers
	}
	return c
}

func init() {
	rootCmd.AddCommand(runCmd)
	f := runCmd.Flags()
	f.StringVar(&runFlags.track, "track", "", "id of the audio track to transcribe")
	f.StringVar(&runFlags.clip, "clip", "", "only transcribe this clip")
	f.StringVarP(&runFlags.out, "out", "o", "", "where to write the project, defaults to the input")
	f.Float64Var(&runFlags.onset, "onset-threshold", shared.DefaultOnsetThreshold, "the higher, the fewer notes")
	f.Float64Var(&runFlags.silence, "silence-threshold", shared.DefaultSilenceThreshold, "the higher, the longer the notes")
	f.StringVar(&runFlags.framesDir, "frames-dir", "", "read precomputed model output from this directory")
	f.StringVar(&runFlags.modelCmd, "model-cmd", "", "predictor command, called with the audio path as last argument")
	f.StringArrayVar(&runFlags.modelArgs, "model-arg", nil, "predictor argument, repeat for several, replaces the configured ones")
	f.BoolVar(&runFlags.separate, "separate", false, "separate the accompaniment before transcribing")
	f.IntVar(&runFlags.workers, "workers", 1, "clips decoded at the same time")
	runCmd.MarkFlagRequired("track")
}

var runCmd = &cobra.Command{
	Use:   "run <project.yaml>",
	Short: "Transcribe the audio clips of a track into a new note track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := runFlags.apply(config, cmd.Flags().Changed)

		song, err := project.Load(args[0])
		if err != nil {
			return err
		}
		report, err := transcribeSong(cmd, song, c)
		if err != nil {
			return err
		}

		out := runFlags.out
		if out == "" {
			out = args[0]
		}
		if err := song.Save(out); err != nil {
			return err
		}
		printReport(cmd, report)
		return nil
	},
}

func transcribeSong(cmd *cobra.Command, song *project.Song, c Config) (*transcribe.Report, error) {
	src, err := song.Track(runFlags.track)
	if err != nil {
		return nil, err
	}
	total := len(src.Clips)
	if runFlags.clip != "" {
		total = 1
	}

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Transcribing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)
	progress := func(transcribe.ClipOutcome) { bar.Increment() }

	tx := transcribe.New(c.Source(), c.Options(), logger.WithPrefix("transcribe"))
	var report *transcribe.Report
	if runFlags.clip != "" {
		report, err = tx.TranscribeClip(cmd.Context(), song, src.ID, runFlags.clip, progress)
	} else {
		report, err = tx.TranscribeTrack(cmd.Context(), song, src.ID, progress)
	}
	if !bar.Completed() {
		// nothing to do, or the run stopped early
		bar.Abort(false)
	}
	p.Wait()
	return report, err
}

func printReport(cmd *cobra.Command, r *transcribe.Report) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "note track %s\n", r.TrackID)
	for _, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(w, "  %-24s %-11s %v\n", o.SourceClipID, o.Status, o.Err)
		default:
			fmt.Fprintf(w, "  %-24s %-11s %d notes -> clip %s\n", o.SourceClipID, o.Status, o.Notes, o.ClipID)
		}
	}
	fmt.Fprintf(w, "%d transcribed, %d skipped, %d failed\n",
		r.Count(shared.Transcribed), r.Count(shared.Skipped), r.Count(shared.Failed))
}
