package contracts

import "github.com/meysamhadeli/focussync/snapshot_sync/models"

// IVault lists every loaded entry of the managed hierarchy.
type IVault interface {
	AllEntries() []*models.Entry
}

// IEditor exposes the cursor and selection of an attached editor.
type IEditor interface {
	Cursor() models.Position
	SomethingSelected() bool
	Selection() string
}

// IActiveEditor is the focused editor view. Document and Editor may each be nil.
type IActiveEditor interface {
	Document() *models.Entry
	Editor() IEditor
}

// IWorkspace answers which document, editor and browser selection are active.
type IWorkspace interface {
	ActiveEditor() IActiveEditor
	ActiveDocument() *models.Entry
	ExplorerSelection() []*models.Entry
}

// IMetadataIndex returns the headings of a document. ok is false when the
// index has no metadata for the document.
type IMetadataIndex interface {
	Headings(doc *models.Entry) (headings []models.Heading, ok bool)
}

// IStorageAdapter reads and writes by logical path.
type IStorageAdapter interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	Remove(path string) error
}

// IRenamer is implemented by storage adapters that can rename atomically.
type IRenamer interface {
	Rename(from, to string) error
}

// IFullPathResolver is implemented by storage adapters backed by a real
// filesystem. ok is false when the path has no host filesystem location.
type IFullPathResolver interface {
	FullPath(path string) (fullPath string, ok bool)
}

// IEventSource delivers host events. The returned function unsubscribes.
type IEventSource interface {
	On(kind models.EventKind, handler func()) (unsubscribe func())
}

// ICleanupRegistry runs registered callbacks on teardown.
type ICleanupRegistry interface {
	Register(cleanup func())
}
