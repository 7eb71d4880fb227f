package snapshot_sync

import (
	"errors"
	"io/fs"
	"strings"
	"sync"

	"github.com/meysamhadeli/focussync/snapshot_sync/contracts"
	"github.com/meysamhadeli/focussync/snapshot_sync/models"
)

// testVault builds an entry hierarchy from slash separated paths. Folders are
// created for every intermediate segment; paths ending in "/" are folders.
type testVault struct {
	root    *models.Entry
	entries []*models.Entry
	byPath  map[string]*models.Entry
}

func newTestVault(paths ...string) *testVault {
	root := &models.Entry{Path: models.RootPath, Name: "", Kind: models.KindFolder}
	v := &testVault{root: root, byPath: map[string]*models.Entry{models.RootPath: root}}
	for _, p := range paths {
		v.add(p)
	}
	return v
}

func (v *testVault) add(p string) *models.Entry {
	folder := strings.HasSuffix(p, "/")
	segments := strings.Split(strings.Trim(p, "/"), "/")
	parent := v.root
	for i, segment := range segments {
		path := strings.Join(segments[:i+1], "/")
		if existing, ok := v.byPath[path]; ok {
			parent = existing
			continue
		}
		kind := models.KindFolder
		if i == len(segments)-1 && !folder {
			kind = models.KindFile
		}
		entry := &models.Entry{Path: path, Name: segment, Kind: kind, Parent: parent}
		v.byPath[path] = entry
		v.entries = append(v.entries, entry)
		parent = entry
	}
	return parent
}

func (v *testVault) get(path string) *models.Entry { return v.byPath[path] }

func (v *testVault) AllEntries() []*models.Entry {
	out := make([]*models.Entry, 0, len(v.entries)+1)
	out = append(out, v.root)
	return append(out, v.entries...)
}

type testEditor struct {
	cursor    models.Position
	selection string
}

func (e *testEditor) Cursor() models.Position { return e.cursor }
func (e *testEditor) SomethingSelected() bool { return e.selection != "" }
func (e *testEditor) Selection() string { return e.selection }

type testActiveEditor struct {
	document *models.Entry
	editor   contracts.IEditor
}

func (a *testActiveEditor) Document() *models.Entry { return a.document }
func (a *testActiveEditor) Editor() contracts.IEditor { return a.editor }

type testWorkspace struct {
	mu        sync.Mutex
	active    *testActiveEditor
	document  *models.Entry
	selection []*models.Entry
	panicMsg  string
}

func (w *testWorkspace) ActiveEditor() contracts.IActiveEditor {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.panicMsg != "" {
		panic(w.panicMsg)
	}
	if w.active == nil {
		return nil
	}
	return w.active
}

func (w *testWorkspace) ActiveDocument() *models.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.document
}

func (w *testWorkspace) ExplorerSelection() []*models.Entry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection
}

func (w *testWorkspace) open(doc *models.Entry, editor *testEditor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if editor == nil {
		w.active = &testActiveEditor{document: doc}
	} else {
		w.active = &testActiveEditor{document: doc, editor: editor}
	}
	w.document = doc
}

type testMetadata map[string][]models.Heading

func (m testMetadata) Headings(doc *models.Entry) ([]models.Heading, bool) {
	headings, ok := m[doc.Path]
	return headings, ok
}

// memStorage is an in-memory adapter without rename support.
type memStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	writes   map[string]int
	failNext map[string]error
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}, writes: map[string]int{}, failNext: map[string]error{}}
}

func (s *memStorage) Read(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (s *memStorage) Write(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failNext[path]; ok {
		delete(s.failNext, path)
		return err
	}
	s.writes[path]++
	s.files[path] = append([]byte(nil), data...)
	return nil
}

func (s *memStorage) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return fs.ErrNotExist
	}
	delete(s.files, path)
	return nil
}

func (s *memStorage) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok
}

func (s *memStorage) writeCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[path]
}

func (s *memStorage) failWrite(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[path] = err
}

// renamingStorage adds rename support and a host filesystem location.
type renamingStorage struct {
	*memStorage
	renameErr   error
	renamePanic string
	renames     int
	base        string
}

func newRenamingStorage() *renamingStorage {
	return &renamingStorage{memStorage: newMemStorage(), base: "/home/user/vault"}
}

func (s *renamingStorage) Rename(from, to string) error {
	if s.renamePanic != "" {
		panic(s.renamePanic)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.renameErr != nil {
		return s.renameErr
	}
	data, ok := s.files[from]
	if !ok {
		return fs.ErrNotExist
	}
	if _, exists := s.files[to]; exists {
		return errors.New("destination exists")
	}
	s.files[to] = data
	delete(s.files, from)
	s.renames++
	return nil
}

func (s *renamingStorage) FullPath(path string) (string, bool) {
	if path == models.RootPath {
		return s.base, true
	}
	return s.base + "/" + path, true
}

type testEvents struct {
	mu       sync.Mutex
	handlers map[models.EventKind][]func()
}

func newTestEvents() *testEvents {
	return &testEvents{handlers: map[models.EventKind][]func(){}}
}

func (e *testEvents) On(kind models.EventKind, handler func()) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[kind] = append(e.handlers[kind], handler)
	idx := len(e.handlers[kind]) - 1
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.handlers[kind][idx] = nil
	}
}

func (e *testEvents) emit(kind models.EventKind) {
	e.mu.Lock()
	handlers := append([]func(){}, e.handlers[kind]...)
	e.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			h()
		}
	}
}

func (e *testEvents) live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, hs := range e.handlers {
		for _, h := range hs {
			if h != nil {
				n++
			}
		}
	}
	return n
}

type testCleanup struct {
	fns []func()
}

func (c *testCleanup) Register(fn func()) { c.fns = append(c.fns, fn) }

func (c *testCleanup) run() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
}
