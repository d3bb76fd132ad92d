// Package store persists the kuberos CLI configuration: a single YAML
// document holding every named connection context and a pointer to the
// current one.
//
// The document is always read and written as a whole. Writes go to a
// temporary file in the same directory which is then renamed over the
// original, so an interrupted save never leaves a truncated file behind.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions for the config file (read/write for owner only).
	FilePermissions = 0600
	// DirPermissions for the config directory.
	DirPermissions = 0700
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrConfigNotFound        = errors.New("config file not found")
	ErrConfigCorrupt         = errors.New("config file is corrupt")
	ErrConfigWrite           = errors.New("cannot write config file")
	ErrConfigExists          = errors.New("config file already exists")
	ErrContextNotFound       = errors.New("context not found")
	ErrActiveContextDeletion = errors.New("cannot delete the current context")
	ErrNoCurrentContext      = errors.New("no current context set")
	ErrCurrentContextMissing = errors.New("current context does not exist")
	ErrInvalidContext        = errors.New("invalid context")
)

// Context is one named connection profile to a KubeROS API server.
type Context struct {
	Name   string `json:"name" yaml:"name"`
	Server string `json:"server" yaml:"server"`
	User   string `json:"user" yaml:"user"`
	Token  string `json:"token" yaml:"token"`
}

// LoggedIn reports whether a token is cached for the context.
func (c *Context) LoggedIn() bool {
	return c.Token != ""
}

// File is the persisted root document.
type File struct {
	CurrentContext string    `json:"current-context,omitempty" yaml:"current-context,omitempty"`
	Contexts       []Context `json:"contexts" yaml:"contexts"`
}

// Store reads and writes the config file at a fixed path. It holds no
// document state of its own: every Load goes back to disk.
type Store struct {
	path string
}

// New returns a Store for the config file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the config file.
func (s *Store) Path() string {
	return s.path
}

// Load reads and parses the config file.
//
// A missing file is not initialised: the containing directory is created
// and ErrConfigNotFound is returned so the caller can stop. A file that
// cannot be parsed, or that repeats a context name, yields ErrConfigCorrupt.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mkErr := os.MkdirAll(filepath.Dir(s.path), DirPermissions); mkErr != nil {
				return nil, fmt.Errorf("%w: %s (creating directory: %v)", ErrConfigNotFound, s.path, mkErr)
			}
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, s.path)
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return Parse(data)
}

// Parse decodes a config document. Empty input is an empty document.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if len(bytes.TrimSpace(data)) == 0 {
		f.Contexts = []Context{}
		return f, nil
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}
	if f.Contexts == nil {
		f.Contexts = []Context{}
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}
	return f, nil
}

// Marshal encodes a config document the way Save writes it.
func Marshal(f *File) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save replaces the config file with f.
func (s *Store) Save(f *File) error {
	if err := f.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigWrite, err)
	}
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("%w: encoding: %v", ErrConfigWrite, err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigWrite, s.path, err)
	}
	return nil
}

// Update runs one load -> mutate -> save cycle. Nothing is written when fn
// returns an error.
func (s *Store) Update(fn func(f *File) error) (*File, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(f); err != nil {
		return nil, err
	}
	if err := s.Save(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Init writes an empty document when no config file exists yet.
func (s *Store) Init() error {
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, s.path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s: %v", ErrConfigWrite, s.path, err)
	}
	return s.Save(&File{Contexts: []Context{}})
}

// validate checks the structural invariants that must hold for any document
// on disk. A dangling current-context is tolerated here and reported by
// Current instead.
func (f *File) validate() error {
	seen := make(map[string]struct{}, len(f.Contexts))
	for i, c := range f.Contexts {
		if c.Name == "" {
			return fmt.Errorf("context #%d has no name", i+1)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("context %q is defined more than once", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, FilePermissions); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
