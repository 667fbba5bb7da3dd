package app

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/example/warden/internal/ports/primary"
)

// settleDelay is how long a scan file must stay quiet before it is
// imported. The scanner writes CSVs incrementally, so importing on the
// first write event would read a truncated file.
const settleDelay = 2 * time.Second

// ScanWatcher imports scan CSVs as the scanner drops them into the
// watched folder. Imports are idempotent, so a file that fires several
// events only ever produces one snapshot.
type ScanWatcher struct {
	importer primary.ImportService
	dir      string
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewScanWatcher creates a watcher over dir.
func NewScanWatcher(importer primary.ImportService, dir string, logger *zap.Logger) *ScanWatcher {
	return &ScanWatcher{
		importer: importer,
		dir:      dir,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled. Files already present at
// startup are picked up by an initial folder import, so a crash never
// loses scans dropped while the server was down.
func (w *ScanWatcher) Run(ctx context.Context) error {
	if _, err := w.importer.ImportFolder(ctx, w.dir, 0); err != nil {
		w.logger.Warn("initial folder import failed", zap.Error(err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching scan folder", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// schedule (re)arms the settle timer for a file. Every new event on
// the file pushes the import back by settleDelay.
func (w *ScanWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		result := w.importer.ImportFile(ctx, path, 0)
		w.logger.Info("watched file processed",
			zap.String("file", result.File),
			zap.String("outcome", string(result.Outcome)),
			zap.String("message", result.Message))
	})
}
