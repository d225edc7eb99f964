// Package reload watches the daemon configuration file for changes.
package reload

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iamcalledrob/netutil/internal/logger"
)

// ConfigWatcher watches a configuration file and emits debounced change
// events.
type ConfigWatcher struct {
	configPath       string
	debounceInterval time.Duration
	watcher          *fsnotify.Watcher
	changeCh         chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewConfigWatcher creates a watcher for configPath.
func NewConfigWatcher(configPath string, debounceInterval time.Duration) (*ConfigWatcher, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	if debounceInterval <= 0 {
		debounceInterval = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &ConfigWatcher{
		configPath:       configPath,
		debounceInterval: debounceInterval,
		watcher:          w,
		changeCh:         make(chan struct{}, 1),
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives one value per burst
// of writes and is closed by Stop.
func (cw *ConfigWatcher) Start(ctx context.Context) (<-chan struct{}, error) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return nil, fmt.Errorf("watcher already running")
	}

	// Watch the directory, not the file: editors and config management
	// replace files by renaming over them.
	dir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	cw.running = true
	go cw.processEvents(ctx)

	return cw.changeCh, nil
}

// Stop stops watching and closes the change channel.
func (cw *ConfigWatcher) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		_ = cw.watcher.Close()
		return
	}

	close(cw.stopCh)
	<-cw.doneCh
	_ = cw.watcher.Close()
	close(cw.changeCh)
	cw.running = false
}

func (cw *ConfigWatcher) processEvents(ctx context.Context) {
	defer close(cw.doneCh)

	var (
		debounceTimer *time.Timer
		timerCh       <-chan time.Time
	)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopCh:
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.isConfigFileEvent(event) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.NewTimer(cw.debounceInterval)
				timerCh = debounceTimer.C
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("config watcher error")

		case <-timerCh:
			select {
			case cw.changeCh <- struct{}{}:
			default:
				// Already pending.
			}
			timerCh = nil
		}
	}
}

func (cw *ConfigWatcher) isConfigFileEvent(event fsnotify.Event) bool {
	eventPath := filepath.Clean(event.Name)
	configPath := filepath.Clean(cw.configPath)
	if eventPath == configPath {
		return true
	}
	// Kubernetes ConfigMap mounts swap a ..data symlink.
	return filepath.Base(eventPath) == "..data" && filepath.Dir(eventPath) == filepath.Dir(configPath)
}
