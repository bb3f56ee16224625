package location

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/prettymuchbryce/testwire/internal/fs"
	"github.com/spf13/afero"
)

// separator splits a cache line into declaring type and file path.
const separator = " => "

// Store maps a declaring type to the file that defines it. Entries are never
// overwritten: the first path stored for a type is the one every later
// lookup returns.
type Store interface {
	// Get returns the stored path for typ.
	Get(typ string) (path string, ok bool, err error)

	// PutIfAbsent stores path for typ unless an entry already exists, and
	// returns whichever path is stored after the call.
	PutIfAbsent(typ, path string) (stored string, err error)
}

// Entry is one line of the cache.
type Entry struct {
	Type string
	Path string
}

// FileStore is a Store persisted as an append-only text file with one
// "Type => path" line per entry. It is shared across processes: every read
// goes to the file, and PutIfAbsent re-reads under the lock before
// appending so an entry written by another process wins.
type FileStore struct {
	mu   sync.Mutex
	fs   fs.FileSystem
	path string
	lock Locker
}

// NewFileStore creates a FileStore backed by path on fsys. Appends are
// serialized within the process only until WithLocker is called.
func NewFileStore(fsys fs.FileSystem, path string) *FileStore {
	return &FileStore{fs: fsys, path: path, lock: processLock{}}
}

// WithLocker makes PutIfAbsent hold l around its re-read and append.
func (s *FileStore) WithLocker(l Locker) *FileStore {
	s.lock = l
	return s
}

// Path returns the cache file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the first entry recorded for typ.
func (s *FileStore) Get(typ string) (string, bool, error) {
	entries, err := s.Entries()
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Type == typ {
			return e.Path, true, nil
		}
	}
	return "", false, nil
}

// PutIfAbsent appends typ => path unless typ is already recorded.
func (s *FileStore) PutIfAbsent(typ, path string) (string, error) {
	if err := validateEntry(typ, path); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	stored := path
	err := s.lock.WithLock(func() error {
		existing, ok, err := s.Get(typ)
		if err != nil {
			return err
		}
		if ok {
			stored = existing
			return nil
		}
		if err := s.fs.AppendLine(s.path, typ+separator+path); err != nil {
			return fmt.Errorf("failed to append to cache %s: %w", s.path, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return stored, nil
}

// Entries returns every complete line of the cache in file order, including
// later duplicates written by writers that skipped the file lock. A missing file is an empty
// cache.
func (s *FileStore) Entries() ([]Entry, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache %s: %w", s.path, err)
	}

	// A trailing fragment without a newline is an append still in flight.
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
		data = data[:i+1]
	} else {
		data = nil
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		typ, path, ok := strings.Cut(scanner.Text(), separator)
		if !ok || typ == "" {
			continue
		}
		entries = append(entries, Entry{Type: typ, Path: strings.TrimSpace(path)})
	}
	return entries, scanner.Err()
}

// Clear removes the cache file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemStore is an in-process Store.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]string)}
}

// Get returns the stored path for typ.
func (m *MemStore) Get(typ string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.entries[typ]
	return p, ok, nil
}

// PutIfAbsent stores path for typ unless typ is already stored.
func (m *MemStore) PutIfAbsent(typ, path string) (string, error) {
	if err := validateEntry(typ, path); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.entries[typ]; ok {
		return p, nil
	}
	m.entries[typ] = path
	return path, nil
}

func validateEntry(typ, path string) error {
	if typ == "" {
		return errors.New("cache entry has empty type")
	}
	if strings.ContainsAny(typ+path, "\r\n") || strings.Contains(typ, separator) {
		return fmt.Errorf("cache entry %q => %q cannot be stored on one line", typ, path)
	}
	return nil
}
