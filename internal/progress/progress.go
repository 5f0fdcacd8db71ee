// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress persists per-community checkpoints as a JSON object keyed
// by community id. A run that is interrupted resumes from the last saved
// community.
package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store is a checkpoint file holding records of type T.
type Store[T any] struct {
	fs   afero.Fs
	path string
}

// New returns a Store for the file at path.
func New[T any](fsys afero.Fs, path string) *Store[T] {
	return &Store[T]{fs: fsys, path: path}
}

// Path returns the checkpoint file path.
func (s *Store[T]) Path() string { return s.path }

// Load returns the saved records. An absent file yields an empty map.
func (s *Store[T]) Load() (map[string]T, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress %s: %w", s.path, err)
	}

	var records map[string]T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing progress %s: %w", s.path, err)
	}
	if records == nil {
		records = map[string]T{}
	}
	return records, nil
}

// Save writes records with four-space indentation, creating the parent
// directory if needed. The file is replaced by rename so a crash mid-write
// leaves the previous checkpoint intact.
func (s *Store[T]) Save(records map[string]T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	data := buf.Bytes()

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("renaming %s: %w", tmpName, err)
	}
	return nil
}
