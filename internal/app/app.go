// Package app wires the calculator together and runs it on a terminal.
//
// The Application owns the configuration, the evaluation stack, the
// persisted history and the controller, and drives them from a single
// event loop: terminal keys, pastes, resizes and configuration reloads
// all arrive as backend events, so the controller and renderer are only
// ever touched from one goroutine.
package app

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/keycalc/internal/calc/history"
	"github.com/dshills/keycalc/internal/calc/logic"
	"github.com/dshills/keycalc/internal/calc/persist"
	"github.com/dshills/keycalc/internal/config"
	"github.com/dshills/keycalc/internal/config/watcher"
	"github.com/dshills/keycalc/internal/renderer"
	"github.com/dshills/keycalc/internal/renderer/backend"
)

// DefaultReloadDebounce is the default delay before a changed config
// file is reloaded.
const DefaultReloadDebounce = 200 * time.Millisecond

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. It is watched for changes
	// when WatchConfig is set.
	ConfigPath string

	// WatchConfig enables live reload of ConfigPath.
	WatchConfig bool

	// ReloadDebounce delays reloads after a change. Zero means
	// DefaultReloadDebounce.
	ReloadDebounce time.Duration

	// Override is applied to every configuration, including reloaded
	// ones. Command-line flags use it to keep precedence over the file.
	Override func(*config.Config)

	// Logger receives application logs. Defaults to NullLogger.
	Logger *Logger
}

// Application is the running calculator.
type Application struct {
	opts      Options
	cfg       *config.Config
	logger    *Logger
	stats     *Stats
	sessionID string

	calc    *Calculator
	store   *persist.Store
	history *history.History

	// savedMode is the delete mode the controller starts in.
	savedMode logic.DeleteMode

	backend  backend.Backend
	renderer *renderer.Renderer
	logic    *logic.Logic
	watcher  *watcher.Watcher

	// dirty is set when the history or delete mode changed since the
	// last save. Only touched by the event loop.
	dirty bool

	running atomic.Bool
}

// reloadEvent carries a reloaded configuration into the event loop.
type reloadEvent struct {
	cfg *config.Config
	err error
}

// quitEvent asks the event loop to stop.
type quitEvent struct{}

// New loads the saved state and builds the evaluation stack for cfg.
func New(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Override != nil {
		opts.Override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	if opts.Logger == nil {
		opts.Logger = NullLogger
	}
	if opts.ReloadDebounce <= 0 {
		opts.ReloadDebounce = DefaultReloadDebounce
	}

	app := &Application{
		opts:      opts,
		cfg:       cfg,
		stats:     NewStats(),
		sessionID: uuid.NewString(),
	}
	app.logger = opts.Logger.WithField("session", app.sessionID)
	app.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))

	calc, err := NewCalculator(cfg, app.logger.WithComponent("calc"))
	if err != nil {
		return nil, err
	}
	app.calc = calc

	app.store = persist.NewStore(cfg.HistoryPath(),
		persist.WithLogger(app.logger.WithComponent("persist").Zap()),
		persist.WithMaxEntries(cfg.History.MaxEntries),
	)
	state := app.store.Load()
	app.history = state.History
	app.savedMode = initialDeleteMode(cfg, state)
	app.history.SetObserver(history.ObserverFunc(func() { app.dirty = true }))

	app.logger.Info("application initialized",
		zap.String("history", app.store.Path()),
		zap.Int("entries", app.history.Len()-1),
		zap.Stringer("delete_mode", app.savedMode),
	)
	return app, nil
}

// initialDeleteMode prefers the saved mode over the configured default.
func initialDeleteMode(cfg *config.Config, state persist.State) logic.DeleteMode {
	if state.Restored {
		if state.DeleteMode == int(logic.DeleteModeClear) {
			return logic.DeleteModeClear
		}
		return logic.DeleteModeBackspace
	}
	if cfg.Calculator.DeleteMode == config.DeleteModeClear {
		return logic.DeleteModeClear
	}
	return logic.DeleteModeBackspace
}

// SetBackend attaches the terminal and builds the display and controller
// on it. Must be called before Run.
func (app *Application) SetBackend(b backend.Backend) error {
	if app.running.Load() {
		return ErrAlreadyRunning
	}

	app.backend = b
	app.renderer = renderer.New(b)
	app.logic = logic.New(app.history, app.calc.Evaluator, app.calc.Policy, app.renderer,
		logic.WithListener(logic.ListenerFunc(app.deleteModeChanged)),
		logic.WithLogger(app.logger.WithComponent("logic").Zap()),
		logic.WithDeleteMode(app.savedMode),
	)
	app.renderer.SetItemSource(app.logic)
	app.renderer.DeleteModeChanged(app.savedMode)
	app.updateStatus()
	return nil
}

func (app *Application) deleteModeChanged(m logic.DeleteMode) {
	app.renderer.DeleteModeChanged(m)
	app.dirty = true
}

// Run initializes the backend and processes events until the user quits
// or Shutdown is called. The state is saved before Run returns.
func (app *Application) Run() error {
	if app.backend == nil {
		return ErrNoBackend
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.backend.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	defer app.backend.Shutdown()

	if app.opts.WatchConfig && app.opts.ConfigPath != "" {
		app.startWatcher()
	}
	defer app.stopWatcher()

	app.logic.ResumeWithHistory()
	app.renderer.Render()

	err := app.eventLoop()

	app.save()
	app.logger.Info("session ended", app.stats.Snapshot().Fields()...)
	app.logger.Sync()

	if errors.Is(err, ErrQuit) {
		return nil
	}
	return err
}

// Shutdown asks a running event loop to stop. It is safe to call from any
// goroutine.
func (app *Application) Shutdown() {
	if !app.running.Load() {
		return
	}
	app.backend.PostEvent(backend.Event{Type: backend.EventInterrupt, Data: quitEvent{}})
}

// save writes the history and delete mode.
func (app *Application) save() {
	mode := app.savedMode
	if app.logic != nil {
		mode = app.logic.DeleteMode()
	}
	ok := app.store.Save(persist.State{
		Version:    persist.LatestVersion,
		DeleteMode: int(mode),
		History:    app.history,
	})
	app.stats.RecordSave(ok)
	app.dirty = false
}

func (app *Application) startWatcher() {
	w, err := config.Watch(app.opts.ConfigPath, func(cfg *config.Config, err error) {
		app.backend.PostEvent(backend.Event{
			Type: backend.EventInterrupt,
			Data: reloadEvent{cfg: cfg, err: err},
		})
	}, app.opts.ReloadDebounce)
	if err != nil {
		app.logger.Warn("config watch disabled",
			zap.String("path", app.opts.ConfigPath),
			zap.Error(err),
		)
		return
	}
	app.watcher = w
}

func (app *Application) stopWatcher() {
	if app.watcher == nil {
		return
	}
	if err := app.watcher.Close(); err != nil && !errors.Is(err, watcher.ErrWatcherClosed) {
		app.logger.Warn("closing config watcher", zap.Error(err))
	}
	app.watcher = nil
}

func (app *Application) updateStatus() {
	app.renderer.SetStatus(renderer.Status{
		Locale: app.cfg.Calculator.Locale,
		Policy: app.calc.Policy.Name(),
	})
}

// IsRunning reports whether the event loop is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Calculator returns the active evaluation stack.
func (app *Application) Calculator() *Calculator { return app.calc }

// History returns the history.
func (app *Application) History() *history.History { return app.history }

// Logic returns the controller, or nil before SetBackend.
func (app *Application) Logic() *logic.Logic { return app.logic }

// Renderer returns the display, or nil before SetBackend.
func (app *Application) Renderer() *renderer.Renderer { return app.renderer }

// Stats returns the session counters.
func (app *Application) Stats() *Stats { return app.stats }

// SessionID identifies this run in the logs.
func (app *Application) SessionID() string { return app.sessionID }

// Close releases the evaluation stack. Call it once Run has returned.
func (app *Application) Close() {
	app.calc.Close()
}
