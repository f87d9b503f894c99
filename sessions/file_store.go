package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const sessionFileName = "session.json"

// ErrCorruptFile is returned by Get when session.json cannot be parsed. Set and
// Remove replace such a file instead of failing, so the session can be rewritten.
var ErrCorruptFile = errors.New("corrupt session file")

var _ Store = (*FileStore)(nil)

// FileStore keeps all keys in one JSON object on disk. Writes go to a temp file
// that is renamed over the original, so a crash never leaves a partial file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore stores the session in <folder>/session.json, creating the folder if needed
func NewFileStore(folder string) (*FileStore, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[sessions NewFileStore] create %s: %w", folder, err)
	}
	return &FileStore{path: filepath.Join(folder, sessionFileName)}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readForUpdate()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if errors.Is(err, ErrCorruptFile) {
		return s.write(map[string]string{})
	}
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

// readForUpdate reads the stored values, starting over when the file is corrupt
func (s *FileStore) readForUpdate() (map[string]string, error) {
	values, err := s.read()
	if errors.Is(err, ErrCorruptFile) {
		return make(map[string]string), nil
	}
	return values, err
}

func (s *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileStore read] %w", err)
	}
	if len(b) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("[FileStore read] %s: %w: %v", s.path, ErrCorruptFile, err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	b, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), sessionFileName+".*")
	if err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore write] %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("[FileStore write] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("[FileStore write] %w", err)
	}
	return nil
}
