package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Document is the whole persisted unit: table name -> table sub-document.
type Document map[string]json.RawMessage

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Storage persists a Document as one unit.
type Storage interface {
	// Read returns the last written document, or an empty one if nothing
	// was ever persisted.
	Read() (Document, error)
	// Write replaces the persisted document entirely.
	Write(Document) error
	Close() error
}

// Storage backends accepted by OpenStorage.
const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// OpenStorage opens the storage backend named by kind at path.
func OpenStorage(kind, path string) (Storage, error) {
	switch kind {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendJSON, "":
		return NewJSONStorage(path)
	case BackendSQLite:
		return NewSQLiteStorage(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// MemoryStorage keeps the document in process memory.
type MemoryStorage struct {
	mu  sync.Mutex
	doc Document
}

// NewMemoryStorage returns an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{doc: Document{}}
}

func (s *MemoryStorage) Read() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

func (s *MemoryStorage) Write(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	return nil
}

func (s *MemoryStorage) Close() error { return nil }

// JSONStorage keeps the document in a single JSON file. The file handle is
// held open for the lifetime of the storage and rewritten in place.
type JSONStorage struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewJSONStorage opens (or creates) the JSON file at path, creating parent
// directories as needed.
func NewJSONStorage(path string) (*JSONStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("json storage: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage file: %w", err)
	}
	return &JSONStorage{path: path, f: f}, nil
}

// Path returns the backing file path.
func (s *JSONStorage) Path() string { return s.path }

func (s *JSONStorage) Read() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	size, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return Document{}, nil
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	doc := Document{}
	if err := json.NewDecoder(s.f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("corrupt storage file %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *JSONStorage) Write(doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := s.f.Write(data); err != nil {
		return err
	}
	if err := s.f.Truncate(int64(len(data))); err != nil {
		return err
	}
	return s.f.Sync()
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*JSONStorage)(nil)
)
