package main

import (
	"errors"
	"os"

	"github.com/JeanRibes/transcribe/shared"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	configFile string
	config     = DefaultConfig()
	logger     = shared.NewLogger(os.Stderr, charmlog.InfoLevel, "cli")
)

var rootCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Singing transcription",
	Long:  `Turns sung audio clips into note clips, aligned on the song's tempo map.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(configFile)
		if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
			c, err = DefaultConfig(), nil
		}
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		level, err := c.Level()
		if err != nil {
			return err
		}
		config = c
		logger = shared.NewLogger(os.Stderr, level, "cli")
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
