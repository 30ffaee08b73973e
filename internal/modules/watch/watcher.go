package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/KaustubhAChavan/watermark-app/internal/shared/metrics"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Op tags the kind of filesystem event that produced a candidate path.
type Op string

const (
	OpCreated Op = "created"
	OpMoved   Op = "moved"
)

// Event is one observed arrival in a watched directory.
type Event struct {
	Path string
	Op   Op
}

// Watcher adapts fsnotify into a channel of tagged events. It watches
// directories non-recursively and drops events for directories; everything
// else is forwarded and left to the pipeline to accept or skip.
type Watcher struct {
	fs      *fsnotify.Watcher
	events  chan Event
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a watcher. metrics may be nil.
func New(logger *zap.Logger, m *metrics.Metrics) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start filesystem watcher: %w", err)
	}
	return &Watcher{
		fs:      fs,
		events:  make(chan Event, 64),
		logger:  logger,
		metrics: m,
	}, nil
}

// Add subscribes a directory.
func (w *Watcher) Add(dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Watching directory", zap.String("dir", dir))
	return nil
}

// Events returns the outbound event channel. Closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run translates fsnotify events until the context is cancelled. A file
// moved into a watched directory surfaces as a create on most platforms;
// renames are forwarded as moves and the pipeline's own existence check
// weeds out files that were moved away rather than in.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}

			var op Op
			switch {
			case event.Op.Has(fsnotify.Create):
				op = OpCreated
			case event.Op.Has(fsnotify.Rename):
				op = OpMoved
			default:
				continue
			}

			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				continue
			}

			if w.metrics != nil {
				w.metrics.RecordWatcherEvent(string(op))
			}
			select {
			case w.events <- Event{Path: event.Name, Op: op}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

// ProcessFunc is the pipeline entry point the dispatcher drives.
type ProcessFunc func(ctx context.Context, path string)

// Dispatcher consumes watcher events one at a time, waits out the settle
// delay so the producing process can finish writing, then hands the path to
// the pipeline. A single dispatcher goroutine serializes dispatch; the
// pipeline's own lock serializes rendering.
type Dispatcher struct {
	events  <-chan Event
	settle  time.Duration
	process ProcessFunc
	logger  *zap.Logger
}

// NewDispatcher wires an event stream to a process function.
func NewDispatcher(events <-chan Event, settle time.Duration, process ProcessFunc, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		events:  events,
		settle:  settle,
		process: process,
		logger:  logger,
	}
}

// Run blocks until the context is cancelled or the event channel closes.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.events:
			if !ok {
				return
			}
			d.logger.Debug("File event",
				zap.String("path", event.Path),
				zap.String("op", string(event.Op)),
			)

			if d.settle > 0 {
				timer := time.NewTimer(d.settle)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return
				}
			}
			d.process(ctx, event.Path)
		}
	}
}
