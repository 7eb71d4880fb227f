package vault

import (
	"fmt"
	"sync"

	"github.com/meysamhadeli/focussync/snapshot_sync/contracts"
	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/pterm/pterm"
)

// Editor holds the cursor and selection of the open document.
type Editor struct {
	mutex     sync.RWMutex
	cursor    models.Position
	selection string
}

func (e *Editor) Cursor() models.Position {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.cursor
}

func (e *Editor) SomethingSelected() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.selection != ""
}

func (e *Editor) Selection() string {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.selection
}

type activeView struct {
	document *models.Entry
	editor   *Editor
}

func (a activeView) Document() *models.Entry { return a.document }

func (a activeView) Editor() contracts.IEditor {
	if a.editor == nil {
		return nil
	}
	return a.editor
}

// Workspace tracks which document is open, the editor state and the file
// browser selection. It also dispatches host events and runs registered
// cleanups on shutdown.
type Workspace struct {
	vault  *Vault
	logger *pterm.Logger

	mutex     sync.RWMutex
	document  *models.Entry
	editor    *Editor
	selection []*models.Entry

	handlersMutex sync.Mutex
	handlers      map[models.EventKind]map[int]func()
	nextHandler   int

	cleanupMutex sync.Mutex
	cleanups     []func()
	closed       bool
}

// NewWorkspace creates an empty workspace over vault.
func NewWorkspace(vault *Vault, logger *pterm.Logger) *Workspace {
	return &Workspace{
		vault:    vault,
		logger:   utils.OrDiscard(logger),
		handlers: make(map[models.EventKind]map[int]func()),
	}
}

func (w *Workspace) ActiveEditor() contracts.IActiveEditor {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	if w.document == nil {
		return nil
	}
	return activeView{document: w.document, editor: w.editor}
}

func (w *Workspace) ActiveDocument() *models.Entry {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.document
}

func (w *Workspace) ExplorerSelection() []*models.Entry {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return append([]*models.Entry(nil), w.selection...)
}

// Editor returns the editor of the open document, or nil.
func (w *Workspace) Editor() *Editor {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.editor
}

// Open makes the document at logical the active one with a fresh editor.
func (w *Workspace) Open(logical string) (*models.Entry, error) {
	entry := w.vault.Entry(logical)
	if entry == nil {
		return nil, fmt.Errorf("document %q not found in vault", logical)
	}
	if entry.IsFolder() {
		return nil, fmt.Errorf("%q is a folder", logical)
	}

	w.mutex.Lock()
	w.document = entry
	w.editor = &Editor{}
	w.mutex.Unlock()

	w.logger.Debug("document opened", w.logger.Args("path", entry.Path))
	w.Emit(models.EventDocumentOpened)
	w.Emit(models.EventActiveViewChanged)
	return entry, nil
}

// CloseDocument clears the active document.
func (w *Workspace) CloseDocument() {
	w.mutex.Lock()
	w.document = nil
	w.editor = nil
	w.mutex.Unlock()
	w.Emit(models.EventActiveViewChanged)
}

// MoveCursor places the cursor of the open editor.
func (w *Workspace) MoveCursor(line, column int) error {
	editor := w.Editor()
	if editor == nil {
		return fmt.Errorf("no document is open")
	}
	editor.mutex.Lock()
	editor.cursor = models.Position{Line: line, Column: column}
	editor.mutex.Unlock()
	w.Emit(models.EventEditorContentChange)
	return nil
}

// Select sets the selected text of the open editor. Empty text clears it.
func (w *Workspace) Select(text string) error {
	editor := w.Editor()
	if editor == nil {
		return fmt.Errorf("no document is open")
	}
	editor.mutex.Lock()
	editor.selection = text
	editor.mutex.Unlock()
	w.Emit(models.EventEditorContentChange)
	return nil
}

// SelectInExplorer replaces the file browser selection.
func (w *Workspace) SelectInExplorer(paths ...string) error {
	selection := make([]*models.Entry, 0, len(paths))
	for _, p := range paths {
		entry := w.vault.Entry(p)
		if entry == nil {
			return fmt.Errorf("entry %q not found in vault", p)
		}
		selection = append(selection, entry)
	}
	w.mutex.Lock()
	w.selection = selection
	w.mutex.Unlock()
	w.Emit(models.EventActiveViewChanged)
	return nil
}

// On subscribes handler to kind. The returned function unsubscribes.
func (w *Workspace) On(kind models.EventKind, handler func()) func() {
	w.handlersMutex.Lock()
	defer w.handlersMutex.Unlock()
	if w.handlers[kind] == nil {
		w.handlers[kind] = make(map[int]func())
	}
	id := w.nextHandler
	w.nextHandler++
	w.handlers[kind][id] = handler

	return func() {
		w.handlersMutex.Lock()
		defer w.handlersMutex.Unlock()
		delete(w.handlers[kind], id)
	}
}

// Emit calls every handler subscribed to kind.
func (w *Workspace) Emit(kind models.EventKind) {
	w.handlersMutex.Lock()
	handlers := make([]func(), 0, len(w.handlers[kind]))
	for _, handler := range w.handlers[kind] {
		handlers = append(handlers, handler)
	}
	w.handlersMutex.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

// Register adds a cleanup run by Shutdown. Cleanups registered after
// shutdown run immediately.
func (w *Workspace) Register(cleanup func()) {
	w.cleanupMutex.Lock()
	if w.closed {
		w.cleanupMutex.Unlock()
		cleanup()
		return
	}
	w.cleanups = append(w.cleanups, cleanup)
	w.cleanupMutex.Unlock()
}

// Shutdown runs registered cleanups in reverse order, once.
func (w *Workspace) Shutdown() {
	w.cleanupMutex.Lock()
	if w.closed {
		w.cleanupMutex.Unlock()
		return
	}
	w.closed = true
	cleanups := w.cleanups
	w.cleanups = nil
	w.cleanupMutex.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	w.logger.Debug("workspace shut down", w.logger.Args("cleanups", len(cleanups)))
}
