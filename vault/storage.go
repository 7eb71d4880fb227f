package vault

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/spf13/afero"
)

// ErrOutsideVault is returned for logical paths that escape the vault root.
var ErrOutsideVault = errors.New("path escapes the vault root")

// Storage reads and writes files by logical vault path.
type Storage struct {
	fs   afero.Fs
	base string
}

// NewStorage creates a storage adapter for the vault rooted at base on fs.
func NewStorage(fs afero.Fs, base string) *Storage {
	return &Storage{fs: fs, base: base}
}

// Fs returns the underlying filesystem.
func (s *Storage) Fs() afero.Fs { return s.fs }

func (s *Storage) hostPath(logical string) (string, error) {
	if logical == "" || logical == models.RootPath {
		return s.base, nil
	}
	slashed := filepath.ToSlash(logical)
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %s", ErrOutsideVault, logical)
		}
	}
	return joinHost(s.base, strings.TrimPrefix(path.Clean("/"+slashed), "/")), nil
}

func (s *Storage) Read(logical string) ([]byte, error) {
	p, err := s.hostPath(logical)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, p)
}

// Write creates parent folders as needed.
func (s *Storage) Write(logical string, data []byte) error {
	p, err := s.hostPath(logical)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", logical, err)
	}
	return afero.WriteFile(s.fs, p, data, 0644)
}

func (s *Storage) Remove(logical string) error {
	p, err := s.hostPath(logical)
	if err != nil {
		return err
	}
	return s.fs.Remove(p)
}

// Rename moves a file within the vault. The destination must not exist on
// filesystems that refuse to overwrite.
func (s *Storage) Rename(from, to string) error {
	src, err := s.hostPath(from)
	if err != nil {
		return err
	}
	dst, err := s.hostPath(to)
	if err != nil {
		return err
	}
	return s.fs.Rename(src, dst)
}

// FullPath returns the absolute host path of a logical path. Only the
// operating system filesystem has one.
func (s *Storage) FullPath(logical string) (string, bool) {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return "", false
	}
	p, err := s.hostPath(logical)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	return abs, true
}

func joinHost(base, logical string) string {
	return filepath.Join(base, filepath.FromSlash(logical))
}
