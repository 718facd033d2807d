package config

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	fileName       = "swayrst.conf"
	profileDirName = "swayrst-profiles"

	// Names used by another-swayrst, read when the current ones are absent
	legacyFileName       = "another-swayrst.conf"
	legacyProfileDirName = "another-swayrst-profiles"
)

// ErrNoConfigDir is returned when none of the sway or i3 config directories exist.
var ErrNoConfigDir = errors.New("sway config not found, make sure to use a default config path (man sway)")

// SearchDirs lists the candidate config directories in lookup order.
// An empty xdgConfigHome falls back to home/.config.
func SearchDirs(home, xdgConfigHome string) []string {
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(home, ".config")
	}
	return []string{
		filepath.Join(home, ".sway"),
		filepath.Join(xdgConfigHome, "sway"),
		filepath.Join(home, ".i3"),
		filepath.Join(xdgConfigHome, "i3"),
	}
}

// FindDirs returns the existing directories of SearchDirs in lookup order.
func FindDirs(home, xdgConfigHome string) ([]string, error) {
	var dirs []string
	for _, dir := range SearchDirs(home, xdgConfigHome) {
		if isDir(dir) {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return nil, ErrNoConfigDir
	}
	return dirs, nil
}

// UserDirs resolves FindDirs for the current user
func UserDirs() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return FindDirs(home, os.Getenv("XDG_CONFIG_HOME"))
}

// findFile returns the first config file found in dirs, preferring the
// current name over the legacy one within each directory. Without any file
// it returns the current name in the first directory.
func findFile(dirs []string) string {
	for _, dir := range dirs {
		for _, name := range []string{fileName, legacyFileName} {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return filepath.Join(dirs[0], fileName)
}

func defaultProfileDir(confDir string) string {
	dir := filepath.Join(confDir, profileDirName)
	if legacy := filepath.Join(confDir, legacyProfileDirName); !isDir(dir) && isDir(legacy) {
		return legacy
	}
	return dir
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
