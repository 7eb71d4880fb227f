package models

// EntryKind distinguishes documents from folders.
type EntryKind string

const (
	KindFile   EntryKind = "file"
	KindFolder EntryKind = "folder"
)

// RootPath is the logical path of the hierarchy root.
const RootPath = "/"

// Entry is a document or folder of the managed hierarchy. Parent is nil only
// for the root.
type Entry struct {
	Path   string
	Name   string
	Kind   EntryKind
	Parent *Entry
}

// IsFolder reports whether the entry is a folder.
func (e *Entry) IsFolder() bool {
	return e != nil && e.Kind == KindFolder
}

// IsRoot reports whether the entry is the hierarchy root.
func (e *Entry) IsRoot() bool {
	return e != nil && e.Parent == nil
}

// EventKind names a host event the synchronizer reacts to.
type EventKind string

const (
	EventDocumentOpened      EventKind = "document-opened"
	EventActiveViewChanged   EventKind = "active-view-changed"
	EventEditorContentChange EventKind = "editor-content-changed"
	EventEntryCreated        EventKind = "entry-created"
)

// SyncEvents are the host events that schedule a snapshot refresh.
var SyncEvents = []EventKind{
	EventDocumentOpened,
	EventActiveViewChanged,
	EventEditorContentChange,
	EventEntryCreated,
}
