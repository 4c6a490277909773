// Package watch keeps a case folder in sync with the chunk store by
// ingesting documents as they are created or rewritten.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/domain"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/logging"
	"github.com/lakshmanachimata/legal-mcp-platform/internal/walker"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
)

// Change is a document that needs ingesting.
type Change struct {
	Path string
	Type ChangeType
}

// IngestFunc ingests one document. Errors are logged and the file is
// retried on its next write.
type IngestFunc func(ctx context.Context, path string) error

type Options struct {
	Debounce  time.Duration
	Recursive bool
	Exclude   []string
	Logger    *slog.Logger
}

// Watcher is single use: call Run once.
type Watcher struct {
	dir       string
	ingest    IngestFunc
	debounce  time.Duration
	recursive bool
	exclude   []string
	log       *slog.Logger

	// hashes is owned by the Run goroutine.
	hashes map[string]string
	ready  chan struct{}
}

func New(dir string, fn IngestFunc, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Watcher{
		dir:       dir,
		ingest:    fn,
		debounce:  opts.Debounce,
		recursive: opts.Recursive,
		exclude:   opts.Exclude,
		log:       logging.OrDefault(opts.Logger),
		hashes:    make(map[string]string),
		ready:     make(chan struct{}),
	}
}

// Ready is closed once the watches are in place.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is cancelled. Only files created or written
// after Run starts are ingested; existing files are left to a folder
// ingest. A rewrite with identical content is skipped.
func (w *Watcher) Run(ctx context.Context) error {
	st, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("%w: folder %s: %w", domain.ErrNotFound, w.dir, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addDirs(fw, w.dir); err != nil {
		return err
	}
	close(w.ready)
	w.log.Info("watching folder", "dir", w.dir, "recursive", w.recursive)

	interval := w.debounce / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && w.recursive {
				w.maybeAddDir(fw, ev.Name)
			}
			if c := w.handleEvent(ev); c != nil {
				w.log.Debug("change detected", "path", c.Path, "type", c.Type)
				pending[c.Path] = time.Now()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case now := <-tick.C:
			for path, at := range pending {
				if now.Sub(at) < w.debounce {
					continue
				}
				delete(pending, path)
				w.flush(ctx, path)
			}
		}
	}
}

// handleEvent maps a filesystem event to a Change, or nil when the event
// does not call for ingesting anything. Deletes are ignored: chunks of a
// removed document stay in the store.
func (w *Watcher) handleEvent(ev fsnotify.Event) *Change {
	name := filepath.Base(ev.Name)
	if walker.IsHidden(name) || !walker.IsSupported(name) || w.excluded(ev.Name) {
		return nil
	}

	var typ ChangeType
	switch {
	case ev.Has(fsnotify.Create):
		typ = ChangeCreated
	case ev.Has(fsnotify.Write):
		typ = ChangeUpdated
	default:
		return nil
	}

	st, err := os.Stat(ev.Name)
	if err != nil || !st.Mode().IsRegular() {
		return nil
	}
	return &Change{Path: ev.Name, Type: typ}
}

func (w *Watcher) excluded(path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return false
	}
	return walker.MatchesExclude(filepath.ToSlash(rel), w.exclude)
}

func (w *Watcher) flush(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.log.Warn("reading changed file", "path", path, "error", err)
		}
		return
	}
	sum := walker.HashBytes(data)
	if w.hashes[path] == sum {
		w.log.Debug("content unchanged", "path", path)
		return
	}
	if err := w.ingest(ctx, path); err != nil {
		w.log.Warn("ingest failed", "path", path, "error", err)
		return
	}
	w.hashes[path] = sum
}

func (w *Watcher) addDirs(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			name := d.Name()
			if !w.recursive || walker.ShouldExcludeDir(name) || walker.IsHidden(name) {
				return filepath.SkipDir
			}
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) maybeAddDir(fw *fsnotify.Watcher, path string) {
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return
	}
	name := filepath.Base(path)
	if walker.ShouldExcludeDir(name) || walker.IsHidden(name) {
		return
	}
	if err := w.addDirs(fw, path); err != nil {
		w.log.Warn("watching new directory", "path", path, "error", err)
	}
}
