package vault

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
)

// Vault is the in-memory entry hierarchy of a directory. Logical paths are
// slash separated and relative to the vault root, whose own path is "/".
type Vault struct {
	fs     afero.Fs
	base   string
	ignore *IgnoreRules
	logger *pterm.Logger

	mu      sync.RWMutex
	root    *models.Entry
	entries map[string]*models.Entry
	order   []*models.Entry
}

// Open loads every non-ignored file and folder under base.
func Open(fs afero.Fs, base string, ignorePatterns []string, logger *pterm.Logger) (*Vault, error) {
	info, err := fs.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault %s: %w", base, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to open vault %s: not a directory", base)
	}

	v := &Vault{
		fs:     fs,
		base:   base,
		ignore: NewIgnoreRules(fs, base, ignorePatterns),
		logger: utils.OrDiscard(logger),
	}
	if err := v.Refresh(); err != nil {
		return nil, err
	}
	return v, nil
}

// Base returns the host directory of the vault root.
func (v *Vault) Base() string { return v.base }

// Fs returns the filesystem the vault was loaded from.
func (v *Vault) Fs() afero.Fs { return v.fs }

// Refresh reloads the hierarchy from disk.
func (v *Vault) Refresh() error {
	patterns, err := v.ignore.Patterns()
	if err != nil {
		v.logger.Warn("ignoring unreadable ignore file", v.logger.Args("error", err))
		patterns = nil
	}

	root := &models.Entry{Path: models.RootPath, Name: "", Kind: models.KindFolder}
	entries := map[string]*models.Entry{models.RootPath: root}
	var order []*models.Entry

	err = afero.Walk(v.fs, v.base, func(hostPath string, info os.FileInfo, err error) error {
		if err != nil {
			v.logger.Debug("skipping unreadable path", v.logger.Args("path", hostPath, "error", err))
			return nil
		}
		rel, err := filepath.Rel(v.base, hostPath)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if v.ignore.Ignored(rel, patterns) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		parent := entries[models.RootPath]
		if dir := path.Dir(rel); dir != "." {
			parent = entries[dir]
		}
		if parent == nil {
			return nil
		}
		kind := models.KindFile
		if info.IsDir() {
			kind = models.KindFolder
		}
		entry := &models.Entry{Path: rel, Name: path.Base(rel), Kind: kind, Parent: parent}
		entries[rel] = entry
		order = append(order, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load vault %s: %w", v.base, err)
	}

	v.mu.Lock()
	v.root, v.entries, v.order = root, entries, order
	v.mu.Unlock()

	v.logger.Debug("vault loaded", v.logger.Args("base", v.base, "entries", len(order)))
	return nil
}

// Root returns the hierarchy root.
func (v *Vault) Root() *models.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.root
}

// Entry looks an entry up by logical path. "" and "/" are the root.
func (v *Vault) Entry(logical string) *models.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.entries[normalize(logical)]
}

// AllEntries returns the root followed by every entry in load order.
func (v *Vault) AllEntries() []*models.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*models.Entry, 0, len(v.order)+1)
	out = append(out, v.root)
	return append(out, v.order...)
}

// Len returns the number of entries, root excluded.
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.order)
}

// Ignored reports whether a logical path would be skipped on load.
func (v *Vault) Ignored(logical string) bool {
	patterns, _ := v.ignore.Patterns()
	return v.ignore.Ignored(normalize(logical), patterns)
}

// AddPath registers a file or folder, creating missing parent folders. The
// existing entry is returned when the path is already known.
func (v *Vault) AddPath(logical string, folder bool) *models.Entry {
	logical = normalize(logical)
	v.mu.Lock()
	defer v.mu.Unlock()
	if existing, ok := v.entries[logical]; ok {
		return existing
	}
	if logical == models.RootPath {
		return v.root
	}

	parent := v.root
	segments := strings.Split(logical, "/")
	for i := range segments {
		current := strings.Join(segments[:i+1], "/")
		entry, ok := v.entries[current]
		if !ok {
			kind := models.KindFolder
			if i == len(segments)-1 && !folder {
				kind = models.KindFile
			}
			entry = &models.Entry{Path: current, Name: segments[i], Kind: kind, Parent: parent}
			v.entries[current] = entry
			v.order = append(v.order, entry)
		}
		parent = entry
	}
	return parent
}

// RemovePath drops an entry and everything below it. It reports whether
// anything was removed.
func (v *Vault) RemovePath(logical string) bool {
	logical = normalize(logical)
	if logical == models.RootPath {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[logical]; !ok {
		return false
	}

	prefix := logical + "/"
	kept := v.order[:0]
	for _, entry := range v.order {
		if entry.Path == logical || strings.HasPrefix(entry.Path, prefix) {
			delete(v.entries, entry.Path)
			continue
		}
		kept = append(kept, entry)
	}
	v.order = kept
	return true
}

// Documents returns the logical paths of all files, sorted.
func (v *Vault) Documents() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var docs []string
	for _, entry := range v.order {
		if !entry.IsFolder() {
			docs = append(docs, entry.Path)
		}
	}
	sort.Strings(docs)
	return docs
}

// Logical converts a host path into a logical vault path.
func (v *Vault) Logical(hostPath string) (string, bool) {
	rel, err := filepath.Rel(v.base, hostPath)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return models.RootPath, true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func normalize(logical string) string {
	logical = strings.Trim(filepath.ToSlash(logical), "/")
	if logical == "" || logical == "." {
		return models.RootPath
	}
	return path.Clean(logical)
}
