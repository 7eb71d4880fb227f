package vault

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/pterm/pterm"
	sitter "github.com/smacker/go-tree-sitter"
	markdown "github.com/smacker/go-tree-sitter/markdown/tree-sitter-markdown"
)

const headingQuery = `
(atx_heading) @heading
(setext_heading) @heading
`

// headingCacheEntry is a parsed heading list with the file state it came from
type headingCacheEntry struct {
	headings []models.Heading
	modTime  time.Time
	size     int64
}

// HeadingIndex parses markdown documents into heading lists and caches the
// result until the file's mod time or size changes.
type HeadingIndex struct {
	storage *Storage
	logger  *pterm.Logger

	mutex  sync.RWMutex
	cache  map[string]*headingCacheEntry
	hits   int64
	misses int64
}

// NewHeadingIndex creates a heading index reading through storage.
func NewHeadingIndex(storage *Storage, logger *pterm.Logger) *HeadingIndex {
	return &HeadingIndex{
		storage: storage,
		logger:  utils.OrDiscard(logger),
		cache:   make(map[string]*headingCacheEntry),
	}
}

// IsMarkdown reports whether a logical path names a markdown document.
func IsMarkdown(logical string) bool {
	switch strings.ToLower(path.Ext(logical)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Headings returns the headings of doc in document order. ok is false for
// folders, non-markdown files and unreadable files.
func (h *HeadingIndex) Headings(doc *models.Entry) ([]models.Heading, bool) {
	if doc == nil || doc.IsFolder() || !IsMarkdown(doc.Path) {
		return nil, false
	}
	hostPath, err := h.storage.hostPath(doc.Path)
	if err != nil {
		return nil, false
	}
	info, err := h.storage.fs.Stat(hostPath)
	if err != nil {
		return nil, false
	}

	h.mutex.RLock()
	cached, exists := h.cache[doc.Path]
	h.mutex.RUnlock()
	if exists && info.ModTime().Equal(cached.modTime) && info.Size() == cached.size {
		h.mutex.Lock()
		h.hits++
		h.mutex.Unlock()
		return cached.headings, true
	}

	source, err := h.storage.Read(doc.Path)
	if err != nil {
		h.logger.Debug("failed to read document", h.logger.Args("path", doc.Path, "error", err))
		return nil, false
	}
	headings, err := ParseHeadings(source)
	if err != nil {
		h.logger.Warn("failed to parse headings", h.logger.Args("path", doc.Path, "error", err))
		return nil, false
	}

	h.mutex.Lock()
	h.misses++
	h.cache[doc.Path] = &headingCacheEntry{headings: headings, modTime: info.ModTime(), size: info.Size()}
	h.mutex.Unlock()
	return headings, true
}

// Invalidate drops the cached headings of a document.
func (h *HeadingIndex) Invalidate(logical string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.cache, logical)
}

// Stats returns cache counters.
func (h *HeadingIndex) Stats() map[string]interface{} {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return map[string]interface{}{
		"cached_documents": len(h.cache),
		"hits":             h.hits,
		"misses":           h.misses,
	}
}

// ParseHeadings extracts ATX and setext headings from markdown source, in
// document order with zero-based start lines.
func ParseHeadings(source []byte) ([]models.Heading, error) {
	lang := markdown.GetLanguage()
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(headingQuery), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to compile heading query: %w", err)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	headings := []models.Heading{}
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			if heading, ok := toHeading(capture.Node, source); ok {
				headings = append(headings, heading)
			}
		}
	}

	sort.SliceStable(headings, func(i, j int) bool { return headings[i].StartLine < headings[j].StartLine })
	return headings, nil
}

func toHeading(node *sitter.Node, source []byte) (models.Heading, bool) {
	heading := models.Heading{StartLine: int(node.StartPoint().Row)}

	switch node.Type() {
	case "atx_heading":
		if node.ChildCount() == 0 {
			return heading, false
		}
		level, ok := atxLevel(node.Child(0).Type())
		if !ok {
			return heading, false
		}
		heading.Level = level
		heading.Title = atxTitle(node.Content(source))
	case "setext_heading":
		heading.Level = 2
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "setext_h1_underline":
				heading.Level = 1
			case "paragraph":
				heading.Title = strings.Join(strings.Fields(child.Content(source)), " ")
			}
		}
	default:
		return heading, false
	}
	return heading, heading.Level >= 1 && heading.Level <= 6
}

// atxLevel reads the level from a marker node type such as "atx_h2_marker".
func atxLevel(marker string) (int, bool) {
	if !strings.HasPrefix(marker, "atx_h") || !strings.HasSuffix(marker, "_marker") {
		return 0, false
	}
	level, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(marker, "atx_h"), "_marker"))
	if err != nil {
		return 0, false
	}
	return level, true
}

// atxTitle strips the opening and optional closing '#' sequences.
func atxTitle(raw string) string {
	line := strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0])
	title := strings.TrimSpace(strings.TrimLeft(line, "#"))
	if trimmed := strings.TrimRight(title, "#"); trimmed != title {
		if trimmed == "" {
			return ""
		}
		if last := trimmed[len(trimmed)-1]; last == ' ' || last == '\t' {
			return strings.TrimSpace(trimmed)
		}
	}
	return title
}
