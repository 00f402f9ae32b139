// Package store is the flat-JSON document store backing facil. Documents
// live under a single data directory: agendas/<id>.json keyed by numeric
// timestamp ids, meetings/<timestamp>.json for end-of-meeting snapshots,
// and stats/*.json for the dashboard charts. There is no database; every
// document is one pretty-printed JSON file, written atomically.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Subdirectories of the data dir.
const (
	agendasDir  = "agendas"
	meetingsDir = "meetings"
	statsDir    = "stats"
)

// Store provides access to the document store rooted at a data directory.
type Store struct {
	root string
}

// New creates a store rooted at dir. Subdirectories are created lazily on
// first write, so a fresh install reads cleanly from an empty tree.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) agendaPath(id string) string {
	return filepath.Join(s.root, agendasDir, id+".json")
}

func (s *Store) meetingPath(id string) string {
	return filepath.Join(s.root, meetingsDir, id+".json")
}

func (s *Store) statsPath(name string) string {
	return filepath.Join(s.root, statsDir, name+".json")
}

// writeJSON atomically writes v as pretty-printed JSON: the document is
// written to a temp file in the target directory and renamed into place, so
// readers never observe a half-written file.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming into place: %w", err)
	}

	return nil
}

// readJSON reads a JSON document into v.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
