package secretstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrAlreadyExists reports an attempt to overwrite a live secret. The
// operator must remove the old value explicitly before a new one can be
// stored.
var ErrAlreadyExists = errors.New("secret already exists")

// ErrNotFound reports a missing secret.
var ErrNotFound = errors.New("secret not found")

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)

// ValidateName rejects secret names that cannot safely double as file names
// and compose identifiers.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid secret name %q (want lowercase letters, digits, underscores)", name)
	}
	return nil
}

// Store persists named secret values as files under a single root
// directory. Files are owner read/write only; the directory is created on
// first write with owner-only access.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore returns a store rooted at dir. The directory is not created
// until the first Put.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{root: filepath.Clean(dir), logger: logger}
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// PathFor returns the backing file path for a secret name; the path is
// valid whether or not the secret exists yet.
func (s *Store) PathFor(name string) string {
	return filepath.Join(s.root, name)
}

// Exists reports whether a value is stored under name.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.PathFor(name))
	return err == nil && info.Mode().IsRegular()
}

// Put stores value under name. It fails with ErrAlreadyExists when a value
// is already present; overwriting a live secret would silently rotate
// whatever references it.
func (s *Store) Put(name, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return fmt.Errorf("create secrets dir %s: %w", s.root, err)
	}
	path := s.PathFor(name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
		}
		return fmt.Errorf("write secret %s: %w", name, err)
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write secret %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("write secret %s: %w", name, err)
	}
	s.logger.Debug("stored secret", zap.String("name", name), zap.String("path", path))
	return nil
}

// Get returns the stored value.
func (s *Store) Get(name string) (string, error) {
	raw, err := os.ReadFile(s.PathFor(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("read secret %s: %w", name, err)
	}
	return string(raw), nil
}

// Remove deletes a stored secret. Removing a missing secret fails with
// ErrNotFound.
func (s *Store) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.PathFor(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("remove secret %s: %w", name, err)
	}
	s.logger.Info("removed secret", zap.String("name", name))
	return nil
}

// List returns the stored secret names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list secrets dir %s: %w", s.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
