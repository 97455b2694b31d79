package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 100 * time.Millisecond

// FileWatcher reloads a snapshot file into a store whenever it changes.
//
// The parent directory is watched rather than the file itself so that
// editors and tools that replace the file by rename are followed. Bursts of
// events are debounced into a single reload.
type FileWatcher struct {
	path     string
	store    *Store
	debounce time.Duration
	watcher  *fsnotify.Watcher
	log      zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFileWatcher loads the file once (when it exists) and starts watching.
func NewFileWatcher(path string, debounce time.Duration, store *Store, logger zerolog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		path:     abs,
		store:    store,
		debounce: debounce,
		watcher:  watcher,
		log:      logger.With().Str("component", "file-watcher").Str("path", abs).Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}

	if _, err := os.Stat(abs); err == nil {
		fw.reload()
	}

	fw.wg.Add(1)
	go fw.run()
	return fw, nil
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	fw.cancel()

	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

func (fw *FileWatcher) run() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != fw.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.reload)
}

func (fw *FileWatcher) reload() {
	if fw.ctx.Err() != nil {
		return
	}
	snap, err := LoadFile(fw.path)
	if err != nil {
		fw.log.Warn().Err(err).Msg("snapshot reload failed")
		return
	}
	v := fw.store.Replace(snap, "file")
	fw.log.Info().Uint64("version", v).Int("items", len(snap.Items)).Msg("snapshot reloaded")
}
