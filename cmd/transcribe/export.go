package main

import (
	"errors"
	"os"

	"github.com/JeanRibes/transcribe/project"
	"github.com/spf13/cobra"
)

var exportFlags struct {
	track, out string
	quantize   bool
}

func init() {
	rootCmd.AddCommand(exportCmd)
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.track, "track", "", "id of the note track to export")
	f.StringVarP(&exportFlags.out, "out", "o", "", "midi file to write")
	f.BoolVar(&exportFlags.quantize, "quantize", false, "quantize note positions")
	exportCmd.MarkFlagRequired("track")
	exportCmd.MarkFlagRequired("out")
}

var exportCmd = &cobra.Command{
	Use:   "export <project.yaml>",
	Short: "Write a note track to a standard MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		song, err := project.Load(args[0])
		if err != nil {
			return err
		}
		f, err := song.ExportTrack(exportFlags.track)
		if err != nil {
			return err
		}
		out, err := os.Create(exportFlags.out)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, out.Close())
		}()
		if err := project.WriteSMF(out, f, exportFlags.quantize); err != nil {
			return err
		}
		logger.Info("exported", "track", exportFlags.track, "file", exportFlags.out, "quantize", exportFlags.quantize)
		return nil
	},
}
