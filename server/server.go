// Package server runs the transcription plugin over HTTP for the host.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JeanRibes/transcribe/project"
	"github.com/JeanRibes/transcribe/shared"
	"github.com/JeanRibes/transcribe/transcribe"
	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type Config struct {
	Addr           string   `yaml:"addr"`
	Prefix         string   `yaml:"prefix"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func DefaultConfig() Config {
	return Config{Addr: ":8000", Prefix: shared.PathPrefix, AllowedOrigins: []string{"*"}}
}

type Server struct {
	source transcribe.FrameSource
	opts   transcribe.Options
	logger *charmlog.Logger
}

// New returns a server running the model through source. opts.Thresholds
// are only the defaults, each request brings its own.
func New(source transcribe.FrameSource, opts transcribe.Options, logger *charmlog.Logger) *Server {
	if logger == nil {
		logger = charmlog.Default().WithPrefix("server")
	}
	return &Server{source: source, opts: opts, logger: logger}
}

func (s *Server) Handler(cfg Config) http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	sub := router.PathPrefix(cfg.Prefix).Subrouter()
	sub.HandleFunc("/", s.HandleDescribe).Methods(http.MethodGet)
	sub.HandleFunc("/run", s.HandleRun).Methods(http.MethodPost)
	router.Use(s.requestID)

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context, cfg Config) error {
	srv := &http.Server{Addr: cfg.Addr, Handler: s.Handler(cfg), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr, "prefix", cfg.Prefix)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		logger := s.logger.With("request", id)
		w.Header().Set("X-Request-Id", id)
		logger.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(charmlog.WithContext(r.Context(), logger)))
	})
}

func (s *Server) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Describe())
}

func (s *Server) HandleRun(w http.ResponseWriter, r *http.Request) {
	logger := charmlog.FromContext(r.Context())

	req := RunRequest{Params: RunParams{Thresholds: s.opts.Thresholds, ModelOptions: s.opts.Model}}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Song == nil {
		writeError(w, http.StatusBadRequest, errors.New("no song in request"))
		return
	}
	if len(req.Trigger.Entities) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("trigger has no entity"))
		return
	}
	if err := req.Song.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entity := req.Trigger.Entities[0]

	opts := s.opts
	opts.Thresholds = req.Params.Thresholds
	opts.Model = req.Params.ModelOptions
	tx := transcribe.New(s.source, opts, logger)

	var report *transcribe.Report
	err := attachAudio(req.Song, entity, req.ClipAudioData)
	if err == nil && entity.ClipID == "" {
		report, err = tx.TranscribeTrack(r.Context(), req.Song, entity.TrackID, nil)
	} else if err == nil {
		report, err = tx.TranscribeClip(r.Context(), req.Song, entity.TrackID, entity.ClipID, nil)
	}
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	dropInlineAudio(req.Song)
	writeJSON(w, http.StatusOK, RunResponse{Song: req.Song, Report: report})
}

// dropInlineAudio keeps the injected bytes out of the response.
func dropInlineAudio(song *project.Song) {
	for _, tr := range song.Tracks {
		for _, c := range tr.Clips {
			if c.Audio != nil {
				c.Audio.Data = nil
			}
		}
	}
}

// attachAudio puts the injected audio on the clips of the triggered track.
// For a single clip trigger the entry naming the clip wins, otherwise the
// first one is used. For a whole track trigger entries go to the clip they
// name and entries naming no clip of the track are ignored.
func attachAudio(song *project.Song, entity Entity, data []ClipAudioData) error {
	if len(data) == 0 {
		return nil
	}
	tr, err := song.Track(entity.TrackID)
	if err != nil {
		return err
	}
	if entity.ClipID == "" {
		for _, d := range data {
			if clip, err := tr.Clip(d.ClipID); err == nil {
				setAudio(clip, d)
			}
		}
		return nil
	}

	clip, err := tr.Clip(entity.ClipID)
	if err != nil {
		return err
	}
	in := data[0]
	for _, d := range data {
		if d.ClipID == entity.ClipID {
			in = d
			break
		}
	}
	setAudio(clip, in)
	return nil
}

func setAudio(clip *project.Clip, in ClipAudioData) {
	if len(in.AudioData.Data) == 0 {
		return
	}
	if clip.Audio == nil {
		clip.Audio = &project.AudioData{StartTick: clip.Start}
	}
	clip.Audio.Format = in.AudioData.Format
	clip.Audio.Data = in.AudioData.Data
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, shared.ErrTrackNotFound), errors.Is(err, shared.ErrClipNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrThresholdRange), errors.Is(err, shared.ErrNotAudioTrack):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
