package vault

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/meysamhadeli/focussync/snapshot_sync/models"
	"github.com/meysamhadeli/focussync/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
)

// Watcher keeps a vault on the operating system filesystem in step with disk
// and turns filesystem changes into workspace events.
type Watcher struct {
	watcher   *fsnotify.Watcher
	vault     *Vault
	workspace *Workspace
	headings  *HeadingIndex
	logger    *pterm.Logger
	skip      map[string]struct{}
	follow    bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher. Changes to the logical paths in skip, such as
// the snapshot artifact itself, are ignored.
func NewWatcher(vault *Vault, workspace *Workspace, headings *HeadingIndex, logger *pterm.Logger, skip ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[normalize(p)] = struct{}{}
	}
	return &Watcher{
		watcher:   w,
		vault:     vault,
		workspace: workspace,
		headings:  headings,
		logger:    utils.OrDiscard(logger),
		skip:      skipped,
		done:      make(chan struct{}),
	}, nil
}

// FollowWrites makes a write to a markdown document open it as the active
// document, so editing a file in any editor moves the focus to it.
func (w *Watcher) FollowWrites(follow bool) {
	w.follow = follow
}

// Start watches every loaded folder and processes events in a goroutine.
func (w *Watcher) Start() error {
	if err := w.watchTree(w.vault.Base(), false); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop()
	w.logger.Debug("vault watcher started", w.logger.Args("base", w.vault.Base()))
	return nil
}

// Stop ends event processing and releases the watcher.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
		w.logger.Debug("vault watcher stopped")
	})
	return err
}

// watchTree adds dir and every non-ignored folder below it. fsnotify does
// not watch recursively. With register set, everything found is also added
// to the vault, covering files created before the watch was in place.
func (w *Watcher) watchTree(dir string, register bool) error {
	return afero.Walk(afero.NewOsFs(), dir, func(hostPath string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		logical, ok := w.vault.Logical(hostPath)
		if !ok {
			return nil
		}
		if logical != models.RootPath && w.vault.Ignored(logical) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if register {
			w.vault.AddPath(logical, info.IsDir())
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.watcher.Add(hostPath); err != nil {
			w.logger.Error("failed to watch directory", w.logger.Args("path", hostPath, "error", err))
			return err
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("vault watcher error", w.logger.Args("error", err))
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	logical, ok := w.vault.Logical(event.Name)
	if !ok || logical == models.RootPath {
		return
	}
	if _, skipped := w.skip[logical]; skipped || w.vault.Ignored(logical) {
		return
	}
	w.logger.Trace("vault change", w.logger.Args("path", logical, "op", event.Op.String()))

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.watchTree(event.Name, true); err != nil {
				w.logger.Warn("new folder is not watched", w.logger.Args("path", logical, "error", err))
			}
		} else {
			w.vault.AddPath(logical, false)
		}
		w.workspace.Emit(models.EventEntryCreated)
	case event.Has(fsnotify.Write):
		w.headings.Invalidate(logical)
		active := w.workspace.ActiveDocument()
		if active != nil && active.Path == logical {
			w.workspace.Emit(models.EventEditorContentChange)
			return
		}
		if w.follow && IsMarkdown(logical) {
			if _, err := w.workspace.Open(logical); err != nil {
				w.logger.Debug("cannot follow write", w.logger.Args("path", logical, "error", err))
			}
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.headings.Invalidate(logical)
		w.vault.RemovePath(logical)
		if active := w.workspace.ActiveDocument(); active != nil &&
			(active.Path == logical || strings.HasPrefix(active.Path, logical+"/")) {
			w.workspace.CloseDocument()
		}
	}
}
