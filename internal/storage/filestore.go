package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/blogcaster/api/internal/model"
)

// maxNameAttempts bounds retries when a generated name is already taken
const maxNameAttempts = 8

var (
	// ErrInvalidName is returned for names that were not produced by the store
	ErrInvalidName = errors.New("invalid podcast file name")
	// ErrNotFound is returned when a podcast file does not exist
	ErrNotFound = errors.New("podcast file not found")

	namePattern = regexp.MustCompile(`^podcast_[0-9a-f]{8}\.wav$`)
)

// FileStore persists podcast audio under a single output directory
type FileStore struct {
	fs  afero.Fs
	dir string

	mu   sync.Mutex
	rand io.Reader
}

// Option configures a FileStore
type Option func(*FileStore)

// WithRandom sets the source used for file name generation
func WithRandom(r io.Reader) Option {
	return func(s *FileStore) {
		s.rand = r
	}
}

// NewFileStore creates a store rooted at dir on the given filesystem
func NewFileStore(fs afero.Fs, dir string, opts ...Option) *FileStore {
	s := &FileStore{
		fs:   fs,
		dir:  dir,
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOSFileStore creates a store on the local disk
func NewOSFileStore(dir string, opts ...Option) *FileStore {
	return NewFileStore(afero.NewOsFs(), dir, opts...)
}

// Dir returns the output directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes data to a new uniquely named file. Bytes are written as
// received. A partially written file is removed on failure.
func (s *FileStore) Save(data []byte) (*model.PodcastArtifact, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name, err := s.newName()
		if err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, name)

		f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}

		n, werr := f.Write(data)
		cerr := f.Close()
		if werr == nil && n < len(data) {
			werr = io.ErrShortWrite
		}
		if werr == nil {
			werr = cerr
		}
		if werr != nil {
			s.fs.Remove(path)
			return nil, fmt.Errorf("failed to write %s: %w", path, werr)
		}

		return &model.PodcastArtifact{
			FilePath:   path,
			FileName:   name,
			AudioBytes: data,
			Size:       int64(len(data)),
		}, nil
	}

	return nil, fmt.Errorf("no free file name after %d attempts", maxNameAttempts)
}

// Open returns a reader for a previously saved file
func (s *FileStore) Open(name string) (afero.File, os.FileInfo, error) {
	if !ValidName(name) {
		return nil, nil, ErrInvalidName
	}

	path := filepath.Join(s.dir, name)
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

// ReadFile returns the full contents of a saved file
func (s *FileStore) ReadFile(name string) ([]byte, error) {
	f, _, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Remove deletes a previously saved file
func (s *FileStore) Remove(name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	err := s.fs.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// ValidName reports whether name has the podcast_<8 hex>.wav shape
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

func (s *FileStore) newName() (string, error) {
	s.mu.Lock()
	id, err := uuid.NewRandomFromReader(s.rand)
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	return fmt.Sprintf("podcast_%s.%s", id.String()[:8], model.AudioExtension), nil
}
