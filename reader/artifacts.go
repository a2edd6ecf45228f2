// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// ArtifactStore persists the raw bytes of ingested files under a data
// directory, keyed by filename. The stored artifact is the dedup record: a
// second upload with the same name is rejected before any extraction runs.
type ArtifactStore struct {
	dir    string
	logger *slog.Logger
}

// NewArtifactStore creates the artifact directory if needed.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &ArtifactStore{
		dir:    dir,
		logger: slog.Default().With("component", "artifact-store"),
	}, nil
}

func (s *ArtifactStore) path(name string) string {
	// Base strips any directory components a caller-supplied name carries.
	return filepath.Join(s.dir, filepath.Base(name))
}

// Save writes the artifact, failing with ErrDuplicateInput when an artifact
// with the same name already exists.
func (s *ArtifactStore) Save(name string, content []byte) error {
	p := s.path(name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDuplicateInput, name)
		}
		return err
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(p)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return err
	}

	s.logger.Debug("saved artifact", "name", name, "bytes", len(content))
	return nil
}

// Exists reports whether an artifact with the given name is stored.
func (s *ArtifactStore) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// List returns the stored artifact names, sorted.
func (s *ArtifactStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named artifact. Returns false when no artifact with
// that name was stored.
func (s *ArtifactStore) Delete(name string) (bool, error) {
	err := os.Remove(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	s.logger.Debug("deleted artifact", "name", name)
	return true, nil
}
