package vault

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// IgnoreFileName lists extra ignore patterns, one per line, at the vault root.
const IgnoreFileName = ".focussync-ignore"

// defaultIgnored are path segments never loaded into the vault.
var defaultIgnored = []string{
	".git",
	".svn",
	".hg",
	".idea",
	".vscode",
	".obsidian",
	".trash",
	".focussync",
	IgnoreFileName,
	"node_modules",
	"*.tmp",
	"*.swp",
	"*.bak",
	"*.bkp",
	".DS_Store",
}

// ignoreCacheEntry holds parsed ignore patterns with the file mod time they came from
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// IgnoreRules decides which vault paths are skipped while loading entries.
type IgnoreRules struct {
	fs    afero.Fs
	file  string
	extra []string

	mutex  sync.RWMutex
	cached *ignoreCacheEntry
}

// NewIgnoreRules reads patterns from the ignore file under base plus extra.
func NewIgnoreRules(fs afero.Fs, base string, extra []string) *IgnoreRules {
	return &IgnoreRules{
		fs:    fs,
		file:  joinHost(base, IgnoreFileName),
		extra: extra,
	}
}

// Patterns returns the configured patterns followed by those of the ignore
// file. The file is parsed again only when its mod time changes.
func (r *IgnoreRules) Patterns() ([]string, error) {
	info, err := r.fs.Stat(r.file)
	if os.IsNotExist(err) {
		return append([]string{}, r.extra...), nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	r.mutex.RLock()
	if r.cached != nil && info.ModTime().Equal(r.cached.modTime) {
		patterns := r.cached.patterns
		r.mutex.RUnlock()
		return append(append([]string{}, r.extra...), patterns...), nil
	}
	r.mutex.RUnlock()

	content, err := afero.ReadFile(r.fs, r.file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}

	r.mutex.Lock()
	r.cached = &ignoreCacheEntry{patterns: patterns, modTime: info.ModTime()}
	r.mutex.Unlock()

	return append(append([]string{}, r.extra...), patterns...), nil
}

// Ignored reports whether the logical path rel is skipped, either by the
// built-in list or by patterns.
func (r *IgnoreRules) Ignored(rel string, patterns []string) bool {
	return IsDefaultIgnored(rel) || MatchesIgnore(rel, patterns)
}

// IsDefaultIgnored checks every segment of a logical path against the
// built-in list. Patterns starting with '*' match by suffix.
func IsDefaultIgnored(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		for _, pattern := range defaultIgnored {
			if strings.HasPrefix(pattern, "*") {
				if strings.HasSuffix(part, strings.TrimPrefix(pattern, "*")) {
					return true
				}
			} else if part == pattern {
				return true
			}
		}
	}
	return false
}

// MatchesIgnore checks a logical path against gitignore-like patterns. A
// pattern without a slash matches any segment; "dir/" ignores a subtree.
func MatchesIgnore(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			dir := strings.TrimSuffix(pattern, "/")
			if rel == dir || strings.HasPrefix(rel, pattern) {
				return true
			}
			continue
		}
		if match, _ := path.Match(pattern, rel); match {
			return true
		}
		if !strings.Contains(pattern, "/") {
			for _, part := range strings.Split(rel, "/") {
				if match, _ := path.Match(pattern, part); match {
					return true
				}
			}
		}
	}
	return false
}
