package device

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const defaultDebounce = 200 * time.Millisecond

// FileSource reads signals from a YAML file and redelivers them whenever the file changes.
// Fields missing from the file keep their DefaultSignals values.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewFileSource creates a FileSource for path
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{
		path:     path,
		debounce: defaultDebounce,
		logger:   logger.With("signals_path", path),
	}
}

// ReadSignals parses the signals file at path
func ReadSignals(path string) (Signals, error) {
	signals := DefaultSignals()
	data, err := os.ReadFile(path)
	if err != nil {
		return signals, fmt.Errorf("failed to read signals file: %w", err)
	}
	if err := yaml.Unmarshal(data, &signals); err != nil {
		return DefaultSignals(), fmt.Errorf("failed to parse signals file: %w", err)
	}
	return signals, nil
}

// Start implements Source. The parent directory is watched so that files replaced by
// rename are picked up.
func (s *FileSource) Start(ctx context.Context, onChange func(Signals)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return errors.New("signals source already started")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	s.deliver(onChange)

	runCtx, cancel := context.WithCancel(ctx)
	s.watcher = w
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.watch(runCtx, w, onChange, s.done)

	s.logger.Debug("Watching signals file")
	return nil
}

// Stop implements Source
func (s *FileSource) Stop() {
	s.mu.Lock()
	w, cancel, done := s.watcher, s.cancel, s.done
	s.watcher, s.cancel, s.done = nil, nil, nil
	s.mu.Unlock()

	if w == nil {
		return
	}
	cancel()
	<-done
	_ = w.Close()
}

func (s *FileSource) deliver(onChange func(Signals)) {
	signals, err := ReadSignals(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Signals file missing, using defaults")
		} else {
			s.logger.Warn("Failed to load signals", "error", err)
		}
	}
	onChange(signals)
}

func (s *FileSource) watch(ctx context.Context, w *fsnotify.Watcher, onChange func(Signals), done chan struct{}) {
	defer close(done)

	target := filepath.Clean(s.path)
	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(s.debounce)

		case <-timer.C:
			s.deliver(onChange)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Signals watcher error", "error", err)
		}
	}
}
