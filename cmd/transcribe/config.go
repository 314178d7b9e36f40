package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JeanRibes/transcribe/music"
	"github.com/JeanRibes/transcribe/server"
	"github.com/JeanRibes/transcribe/shared"
	"github.com/JeanRibes/transcribe/source"
	"github.com/JeanRibes/transcribe/transcribe"
	charmlog "github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel   string              `yaml:"log_level"`
	Thresholds shared.Thresholds   `yaml:"thresholds"`
	Refine     music.RefineOptions `yaml:"refine"`
	Workers    int                 `yaml:"workers"`
	// either a predictor command or a directory of precomputed frames
	Model     source.Script `yaml:"model"`
	FramesDir string        `yaml:"frames_dir"`
	// separate the accompaniment before transcribing, the plugin's doSeparation default
	Separate bool          `yaml:"separate"`
	Server   server.Config `yaml:"server"`
}

var ErrNoModel = errors.New("no model command or frames directory configured")

func DefaultConfig() Config {
	opts := transcribe.DefaultOptions()
	return Config{
		LogLevel:   "info",
		Thresholds: opts.Thresholds,
		Refine:     opts.Refine,
		Workers:    opts.Workers,
		Server:     server.DefaultConfig(),
	}
}

// DecodeConfig reads a config over the defaults, fields left out keep their
// default value.
func DecodeConfig(r io.Reader) (Config, error) {
	config := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&config); err != nil && err != io.EOF {
		return config, fmt.Errorf("decoding config: %w", err)
	}
	if _, err := config.Level(); err != nil {
		return config, err
	}
	return config, config.Thresholds.Validate()
}

func LoadConfig(filename string) (Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return DefaultConfig(), err
	}
	defer file.Close()
	return DecodeConfig(file)
}

func (c Config) Level() (charmlog.Level, error) {
	return charmlog.ParseLevel(c.LogLevel)
}

func (c Config) Options() transcribe.Options {
	return transcribe.Options{
		Thresholds: c.Thresholds,
		Refine:     c.Refine,
		Workers:    c.Workers,
		Model:      shared.ModelOptions{Separate: c.Separate},
	}
}

func (c Config) Source() transcribe.FrameSource {
	if c.Model.Command != "" {
		return c.Model
	}
	return source.File{Dir: c.FramesDir}
}

// ServeSource is Source for the plugin server. Audio sent inline is written to
// a temporary directory, so sidecar files can only come from FramesDir.
func (c Config) ServeSource() (transcribe.FrameSource, error) {
	if c.Model.Command == "" && c.FramesDir == "" {
		return nil, ErrNoModel
	}
	return c.Source(), nil
}
