package commands

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/okra-platform/movegen/internal/errors"
	"github.com/okra-platform/movegen/internal/watch"
)

// WatchCommand regenerates whenever a description file changes
type WatchCommand struct {
	deps     Dependencies
	signals  SignalNotifier
	debounce func(*watch.FileWatcher)

	mu sync.Mutex
}

func NewWatchCommand(deps Dependencies) *WatchCommand {
	return &WatchCommand{deps: deps, signals: defaultSignalNotifier{}}
}

// WithSignalNotifier allows injecting a custom notifier for testing
func (wc *WatchCommand) WithSignalNotifier(n SignalNotifier) *WatchCommand {
	wc.signals = n
	return wc
}

// Execute generates once and then on every change until interrupted. A
// change to the config file restarts the session with the new settings.
func (wc *WatchCommand) Execute(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	wc.signals.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer wc.signals.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			wc.deps.Output.Println("\nstopping watch")
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		reload, err := wc.session(ctx)
		if err != nil || !reload || ctx.Err() != nil {
			return err
		}
		wc.deps.Output.Println("config changed, restarting watch")
	}
}

// session generates and watches with the settings of the current config. It
// returns with reload set when the config file changed to a valid config.
func (wc *WatchCommand) session(ctx context.Context) (bool, error) {
	cfg, root, err := wc.deps.ConfigLoader.LoadConfig()
	if err != nil {
		return false, errors.Wrap(err, "failed to load project config")
	}
	configFile := wc.deps.ConfigLoader.ConfigFile(root)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	wc.regenerate(ctx, nil)

	var reload atomic.Bool
	fw, err := watch.NewFileWatcher(cfg.Watch, cfg.Exclude, func(paths []string) {
		if configFile != "" && slices.Contains(paths, configFile) {
			if _, _, err := wc.deps.ConfigLoader.LoadConfig(); err != nil {
				wc.deps.Output.Printf("config is invalid, keeping the previous one: %v\n", err)
				return
			}
			reload.Store(true)
			stop()
			return
		}
		wc.regenerate(ctx, paths)
	}, wc.deps.Logger)
	if err != nil {
		return false, err
	}
	defer fw.Close()
	if wc.debounce != nil {
		wc.debounce(fw)
	}

	if err := fw.AddDirectory(root); err != nil {
		return false, errors.Wrap(err, "failed to watch project directory")
	}
	if configFile != "" {
		if err := fw.Track(configFile); err != nil {
			return false, err
		}
	}
	for _, path := range cfg.InputFiles(root) {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			continue
		}
		if err := fw.AddFile(path); err != nil {
			return false, err
		}
	}

	wc.deps.Output.Printf("watching %s for changes\n", root)
	if err := fw.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return false, err
	}
	return reload.Load(), nil
}

// regenerate runs one generation. Failures are reported and watching
// continues.
func (wc *WatchCommand) regenerate(ctx context.Context, changed []string) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	if len(changed) > 0 {
		wc.deps.Logger.Info().Strs("paths", changed).Msg("descriptions changed")
	}
	if err := NewGenerateCommand(wc.deps).Execute(ctx); err != nil {
		wc.deps.Output.Printf("generation failed: %v\n", err)
	}
}
