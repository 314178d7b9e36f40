package project

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

func Decode(r io.Reader) (*Song, error) {
	s := NewSong()
	if err := yaml.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decoding project: %w", err)
	}
	if err := s.Normalize(); err != nil {
		return nil, fmt.Errorf("decoding project: %w", err)
	}
	return s, nil
}

func Load(path string) (*Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func (s *Song) Encode(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func (s *Song) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
