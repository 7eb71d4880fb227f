package snapshot_sync

import (
	"unicode/utf8"

	"github.com/meysamhadeli/focussync/snapshot_sync/contracts"
	"github.com/meysamhadeli/focussync/snapshot_sync/models"
)

const DefaultMaxSelectionLength = 8000

// updatedAtLayout is ISO-8601 with millisecond precision.
const updatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// ResolutionCache holds the breadcrumb and tree of the last resolved folder.
// FolderPath is nil until a folder has been resolved.
type ResolutionCache struct {
	FolderPath *string
	Breadcrumb []models.BreadcrumbEntry
	FolderTree *models.FolderTreeNode
}

// Host groups the host collaborators the assembler reads from.
type Host struct {
	Vault     contracts.IVault
	Workspace contracts.IWorkspace
	Metadata  contracts.IMetadataIndex
	Storage   contracts.IStorageAdapter
}

// Assembler turns current host state into a Snapshot.
type Assembler struct {
	host               Host
	clock              Clock
	limits             models.TreeLimits
	maxSelectionLength int

	// BuildTree and BuildBreadcrumb are replaceable so callers can observe
	// when recomputation happens.
	BuildTree       func(root *models.Entry, entries []*models.Entry, limits models.TreeLimits) *models.FolderTreeNode
	BuildBreadcrumb func(folder *models.Entry) []models.BreadcrumbEntry
}

// NewAssembler creates an assembler over host.
func NewAssembler(host Host, clock Clock, limits models.TreeLimits, maxSelectionLength int) *Assembler {
	if clock == nil {
		clock = RealClock{}
	}
	if maxSelectionLength <= 0 {
		maxSelectionLength = DefaultMaxSelectionLength
	}
	return &Assembler{
		host:               host,
		clock:              clock,
		limits:             limits,
		maxSelectionLength: maxSelectionLength,
		BuildTree:          BuildFolderTree,
		BuildBreadcrumb:    BuildBreadcrumb,
	}
}

// Assemble builds a snapshot from current host state. It returns a nil
// snapshot and the unchanged cache when neither a document nor a folder is
// active. Otherwise the returned cache reflects the resolved folder.
func (a *Assembler) Assemble(cache ResolutionCache) (*models.Snapshot, ResolutionCache, bool) {
	var (
		activeEditor contracts.IActiveEditor
		document     *models.Entry
		editor       contracts.IEditor
	)
	if a.host.Workspace != nil {
		activeEditor = a.host.Workspace.ActiveEditor()
	}
	if activeEditor != nil {
		document = activeEditor.Document()
		editor = activeEditor.Editor()
	}
	if document == nil && a.host.Workspace != nil {
		document = a.host.Workspace.ActiveDocument()
	}

	var folder *models.Entry
	if document != nil {
		folder = document.Parent
	} else {
		folder = a.explorerFolder()
	}
	if document == nil && folder == nil {
		return nil, cache, false
	}

	var cursor *models.Position
	if editor != nil {
		pos := editor.Cursor()
		cursor = &pos
	}

	snapshot := &models.Snapshot{
		ActiveDocumentPath:         entryPath(document),
		ActiveFolderPath:           entryPath(folder),
		ActiveDocumentAbsolutePath: a.fullPath(document),
		ActiveFolderAbsolutePath:   a.fullPath(folder),
		UpdatedAt:                  a.clock.Now().UTC().Format(updatedAtLayout),
		Breadcrumb:                 []models.BreadcrumbEntry{},
		HeadingPath:                a.headingPath(document, cursor),
	}
	if cursor != nil {
		line, column := cursor.Line, cursor.Column
		snapshot.CursorLine = &line
		snapshot.CursorColumn = &column
	}
	if editor != nil {
		snapshot.SelectionText = a.selection(editor)
	}

	next := ResolutionCache{}
	if folder != nil {
		path := folder.Path
		next.FolderPath = &path
		if cache.FolderPath != nil && *cache.FolderPath == path {
			// Same folder: reuse even if entries changed underneath it.
			next.Breadcrumb = cache.Breadcrumb
			next.FolderTree = cache.FolderTree
		} else {
			var entries []*models.Entry
			if a.host.Vault != nil {
				entries = a.host.Vault.AllEntries()
			}
			next.Breadcrumb = a.BuildBreadcrumb(folder)
			next.FolderTree = a.BuildTree(folder, entries, a.limits)
		}
		snapshot.Breadcrumb = next.Breadcrumb
		snapshot.FolderTree = next.FolderTree
	}
	if snapshot.Breadcrumb == nil {
		snapshot.Breadcrumb = []models.BreadcrumbEntry{}
	}
	return snapshot, next, true
}

// explorerFolder resolves the folder selected in the file browser, preferring
// a selected folder over the parent of a selected document.
func (a *Assembler) explorerFolder() *models.Entry {
	if a.host.Workspace == nil {
		return nil
	}
	selection := a.host.Workspace.ExplorerSelection()
	for _, item := range selection {
		if item.IsFolder() {
			return item
		}
	}
	for _, item := range selection {
		if item != nil && !item.IsFolder() {
			return item.Parent
		}
	}
	return nil
}

func (a *Assembler) headingPath(document *models.Entry, cursor *models.Position) []string {
	if document == nil || cursor == nil {
		return nil
	}
	if a.host.Metadata == nil {
		return []string{}
	}
	headings, ok := a.host.Metadata.Headings(document)
	if !ok {
		return []string{}
	}
	return ResolveHeadingPath(headings, cursor.Line)
}

func (a *Assembler) selection(editor contracts.IEditor) string {
	if !editor.SomethingSelected() {
		return ""
	}
	return ClipSelection(editor.Selection(), a.maxSelectionLength)
}

func (a *Assembler) fullPath(entry *models.Entry) *string {
	if entry == nil {
		return nil
	}
	resolver, ok := a.host.Storage.(contracts.IFullPathResolver)
	if !ok {
		return nil
	}
	full, ok := resolver.FullPath(entry.Path)
	if !ok {
		return nil
	}
	return &full
}

// ClipSelection truncates text to at most max characters without splitting a
// multi-byte character.
func ClipSelection(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}

func entryPath(entry *models.Entry) *string {
	if entry == nil {
		return nil
	}
	path := entry.Path
	return &path
}
