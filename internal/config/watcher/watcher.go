// Package watcher reports changes to the configuration file for live
// reload.
//
// The directory holding the file is watched rather than the file itself,
// so editors that save by writing a temporary file and renaming it over
// the original are still noticed. Bursts of events are coalesced and the
// handler runs once the file has been quiet for the debounce interval.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("watcher closed")

// Operation is the kind of change observed.
type Operation int

const (
	// OpWrite indicates the file was modified or replaced.
	OpWrite Operation = iota
	// OpCreate indicates the file appeared.
	OpCreate
	// OpRemove indicates the file was deleted or renamed away.
	OpRemove
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a change to the watched file.
type Event struct {
	Path string
	Op   Operation
	Time time.Time
}

// Handler is called from the watcher goroutine for each coalesced change.
type Handler func(Event)

// ErrorHandler receives errors reported by the file system watcher.
type ErrorHandler func(error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must be quiet before the handler
// runs. Zero delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler sets the error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *Watcher) { w.onError = h }
}

// Watcher watches a single file.
type Watcher struct {
	path     string
	handler  Handler
	onError  ErrorHandler
	debounce time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New starts watching path. The file need not exist yet, but its
// directory must.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		handler:  handler,
		debounce: 100 * time.Millisecond,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher and waits for its goroutine to exit. Pending
// events are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	var (
		pending *Event
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			event, ok := w.convert(ev)
			if !ok {
				continue
			}
			if w.debounce == 0 {
				w.emit(event)
				continue
			}
			pending = coalesce(pending, event)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if pending != nil {
				w.emit(*pending)
				pending = nil
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// convert maps an fsnotify event to an Event for the watched file.
func (w *Watcher) convert(ev fsnotify.Event) (Event, bool) {
	if filepath.Clean(ev.Name) != w.path {
		return Event{}, false
	}

	event := Event{Path: w.path, Time: time.Now()}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		event.Op = OpRemove
	case ev.Has(fsnotify.Create):
		event.Op = OpCreate
	case ev.Has(fsnotify.Write):
		event.Op = OpWrite
	default:
		return Event{}, false
	}
	return event, true
}

// coalesce merges a new event into the pending one. The latest state of
// the file wins, except that a write after a create stays a create.
func coalesce(pending *Event, event Event) *Event {
	if pending != nil && pending.Op == OpCreate && event.Op == OpWrite {
		event.Op = OpCreate
	}
	return &event
}

func (w *Watcher) emit(event Event) {
	defer func() {
		// A panicking handler must not stop the watcher.
		_ = recover()
	}()
	w.handler(event)
}
