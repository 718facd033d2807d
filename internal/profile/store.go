// Package profile persists layout trees as named JSON documents.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bryanchriswhite/swayrst/internal/layout"
	"github.com/bryanchriswhite/swayrst/internal/logger"
)

const fileExt = ".json"

var (
	// ErrNotFound is returned when a profile file does not exist.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidName is returned for empty names or names containing a path separator.
	ErrInvalidName = errors.New("invalid profile name")
)

// Store reads and writes profiles inside one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the profile directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing the named profile.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Exists reports whether the named profile exists
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Save writes tree as the named profile, replacing an existing one.
func (s *Store) Save(name string, tree *layout.Tree) error {
	log := logger.WithComponent("profile")

	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	path := s.Path(name)
	if s.Exists(name) {
		log.Warn().Str("profile", name).Str("path", path).Msg("Profile already exists, overwriting")
	}

	out := *tree
	out.Version = layout.CurrentVersion
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", path, err)
	}

	log.Info().Str("profile", name).Str("path", path).Msg("Profile saved")
	return nil
}

// Load reads the named profile. Documents from older versions are
// upgraded and written back.
func (s *Store) Load(name string) (*layout.Tree, error) {
	log := logger.WithComponent("profile")

	if err := validName(name); err != nil {
		return nil, err
	}

	path := s.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var tree layout.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if tree.Version < layout.CurrentVersion {
		log.Info().
			Str("profile", name).
			Int("from", tree.Version).
			Int("to", layout.CurrentVersion).
			Msg("Upgrading profile")
		tree.Version = layout.CurrentVersion
		if err := s.Save(name, &tree); err != nil {
			log.Warn().Err(err).Str("profile", name).Msg("Failed to save upgraded profile")
		}
	}

	log.Debug().Str("profile", name).Str("path", path).Msg("Profile loaded")
	return &tree, nil
}

// List returns the names of all stored profiles, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named profile.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete profile %s: %w", name, err)
	}
	logger.WithComponent("profile").Info().Str("profile", name).Msg("Profile deleted")
	return nil
}
