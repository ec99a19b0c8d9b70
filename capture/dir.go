// Package capture provides frame sources for the pipeline. DirSource
// watches a directory into which an external capture process drops
// frame images and emits each new file as a pipeline frame.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bosley/huddle/pipeline"
)

// DirSource implements pipeline.CaptureSource over a watched directory.
type DirSource struct {
	dir string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	frames  chan pipeline.Frame
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Start begins watching the frames directory. The returned channel is
// closed when the source stops or the context is cancelled.
func (s *DirSource) Start(ctx context.Context) (<-chan pipeline.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil, fmt.Errorf("capture source already started")
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create frames directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch frames directory: %w", err)
	}

	frames := make(chan pipeline.Frame, 16)
	s.watcher = watcher
	s.frames = frames

	slog.Info("Started watching frames directory", "path", s.dir)
	go s.watchFrames(ctx, watcher, frames)

	return frames, nil
}

func (s *DirSource) watchFrames(ctx context.Context, watcher *fsnotify.Watcher, frames chan pipeline.Frame) {
	defer close(frames)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if err := s.handleFSEvent(ctx, event, frames); err != nil {
				slog.Error("Failed to handle frame event",
					"error", err,
					"event", event)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Frame watcher error", "error", err)
		}
	}
}

func (s *DirSource) handleFSEvent(ctx context.Context, event fsnotify.Event, frames chan pipeline.Frame) error {
	// Skip temporary files and non-create events.
	if strings.HasSuffix(event.Name, ".tmp") || !event.Has(fsnotify.Create) {
		return nil
	}
	if !isFrameFile(event.Name) {
		return nil
	}

	data, err := os.ReadFile(event.Name)
	if err != nil {
		return fmt.Errorf("read frame file: %w", err)
	}

	frame := pipeline.Frame{Timestamp: time.Now(), Data: data}
	select {
	case frames <- frame:
	case <-ctx.Done():
	default:
		slog.Warn("Frame channel full, dropping frame", "file", event.Name)
	}
	return nil
}

func isFrameFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".png")
}

// Stop closes the watcher, which ends the frame channel.
func (s *DirSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
