package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trip-planner/internal/domain"
)

// Store owns the two persisted files: the shared trip document and the
// user directory. Each file has its own lock; the two are never held
// nested. Every transaction re-reads the file after taking the lock so
// no mutation can be based on a stale copy.
type Store interface {
	LoadDocument() (*domain.Document, error)
	LoadUsers() (*domain.UserDirectory, error)
	WithExclusiveDocument(mutator func(*domain.Document) error) (*domain.Document, error)
	WithExclusiveUsers(mutator func(*domain.UserDirectory) error) (*domain.UserDirectory, error)
}

type FileStore struct {
	dataPath  string
	usersPath string

	docMu   sync.Mutex
	usersMu sync.Mutex
}

// NewFileStore creates a store over the given document and user files.
func NewFileStore(dataPath, usersPath string) *FileStore {
	return &FileStore{dataPath: dataPath, usersPath: usersPath}
}

// LoadDocument returns the current persisted document, creating and
// persisting an empty one first if none exists.
func (s *FileStore) LoadDocument() (*domain.Document, error) {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	return s.readDocument()
}

// LoadUsers returns the current user directory, seeding an empty one
// if none exists.
func (s *FileStore) LoadUsers() (*domain.UserDirectory, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	return s.readUsers()
}

// WithExclusiveDocument runs mutator against the latest on-disk
// document under the document lock and persists the result atomically.
// A mutator error aborts the transaction: nothing is written and the
// error is returned unchanged.
func (s *FileStore) WithExclusiveDocument(mutator func(*domain.Document) error) (*domain.Document, error) {
	s.docMu.Lock()
	defer s.docMu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}

	if err := mutator(doc); err != nil {
		return nil, err
	}

	if err := writeFileAtomic(s.dataPath, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// WithExclusiveUsers is WithExclusiveDocument for the user directory,
// under its own independent lock.
func (s *FileStore) WithExclusiveUsers(mutator func(*domain.UserDirectory) error) (*domain.UserDirectory, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	dir, err := s.readUsers()
	if err != nil {
		return nil, err
	}

	if err := mutator(dir); err != nil {
		return nil, err
	}

	if err := writeFileAtomic(s.usersPath, dir); err != nil {
		return nil, err
	}
	return dir, nil
}

func (s *FileStore) readDocument() (*domain.Document, error) {
	raw, err := os.ReadFile(s.dataPath)
	if os.IsNotExist(err) {
		doc := domain.NewDocument()
		if err := writeFileAtomic(s.dataPath, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.Normalize()
	return &doc, nil
}

func (s *FileStore) readUsers() (*domain.UserDirectory, error) {
	raw, err := os.ReadFile(s.usersPath)
	if os.IsNotExist(err) {
		dir := &domain.UserDirectory{Users: []domain.User{}}
		if err := writeFileAtomic(s.usersPath, dir); err != nil {
			return nil, err
		}
		return dir, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	var dir domain.UserDirectory
	if err := json.Unmarshal(raw, &dir); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	dir.Normalize()
	return &dir, nil
}

// writeFileAtomic persists v as indented JSON: write to a temp file in
// the same directory, flush to disk, then rename over the live file so
// a reader never observes a torn write.
func writeFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("stage %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
