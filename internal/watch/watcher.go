// Package watch reports changes to description files so generation can be
// rerun.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/okra-platform/movegen/internal/errors"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reporting it.
const DefaultDebounce = 150 * time.Millisecond

// FileWatcher watches files for changes based on patterns
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	patterns []string
	exclude  []string
	debounce time.Duration
	onChange func(paths []string)
	logger   zerolog.Logger
	// files reported regardless of patterns and exclusions
	tracked  map[string]bool

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// NewFileWatcher creates a watcher. onChange receives the sorted set of
// changed paths once events have been quiet for the debounce interval.
func NewFileWatcher(patterns, exclude []string, onChange func(paths []string), logger zerolog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}

	return &FileWatcher{
		watcher:  watcher,
		patterns: patterns,
		exclude:  exclude,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   logger.With().Str("component", "watch").Logger(),
		pending:  make(map[string]bool),
		tracked:  make(map[string]bool),
	}, nil
}

// SetDebounce changes the quiet interval.
func (fw *FileWatcher) SetDebounce(d time.Duration) {
	fw.debounce = d
}

// AddDirectory recursively adds a directory to the watcher
func (fw *FileWatcher) AddDirectory(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fw.excluded(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if err := fw.watcher.Add(path); err != nil {
				return errors.Wrapf(err, "failed to watch directory %s", path)
			}
		}
		return nil
	})
}

// AddFile watches the directory holding path. Editors often replace files
// on save, so the directory is watched rather than the file.
func (fw *FileWatcher) AddFile(path string) error {
	dir := filepath.Dir(path)
	if err := fw.watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch directory %s", dir)
	}
	return nil
}

// Track watches path and reports its changes even when it does not match the
// patterns or is excluded.
func (fw *FileWatcher) Track(path string) error {
	fw.tracked[filepath.Clean(path)] = true
	return fw.AddFile(path)
}

// Start begins watching for file changes and blocks until ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			fw.stopTimer()
			return ctx.Err()
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return errors.New("watcher channel closed")
			}
			fw.handle(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			if err != nil {
				fw.logger.Warn().Err(err).Msg("watcher error")
			}
		}
	}
}

func (fw *FileWatcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !fw.excluded(event.Name) {
			if err := fw.AddDirectory(event.Name); err != nil {
				fw.logger.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
			}
			return
		}
	}
	if event.Op == fsnotify.Chmod || !fw.ShouldWatch(event.Name) {
		return
	}
	fw.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change")

	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.pending[event.Name] = true
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.flush)
}

func (fw *FileWatcher) flush() {
	fw.mu.Lock()
	paths := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		paths = append(paths, p)
	}
	fw.pending = make(map[string]bool)
	fw.timer = nil
	fw.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	fw.onChange(paths)
}

func (fw *FileWatcher) stopTimer() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
}

// ShouldWatch checks if a file should trigger a change based on patterns.
// Patterns match the base name; a "**/" prefix is accepted and ignored.
// Tracked files always trigger.
func (fw *FileWatcher) ShouldWatch(path string) bool {
	if fw.tracked[filepath.Clean(path)] {
		return true
	}
	if fw.excluded(path) {
		return false
	}
	base := filepath.Base(path)
	for _, pattern := range fw.patterns {
		pattern = strings.TrimPrefix(pattern, "**/")
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func (fw *FileWatcher) excluded(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range fw.exclude {
		if matched, _ := filepath.Match(strings.TrimSuffix(pattern, "/"), base); matched {
			return true
		}
	}
	return false
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	fw.stopTimer()
	return fw.watcher.Close()
}
