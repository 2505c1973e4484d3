package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keycalc/internal/calc/history"
	"github.com/dshills/keycalc/internal/calc/logic"
	"github.com/dshills/keycalc/internal/calc/persist"
	"github.com/dshills/keycalc/internal/config"
	"github.com/dshills/keycalc/internal/renderer/backend"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Calculator.Locale = "en"
	cfg.Paths.DataDir = t.TempDir()
	cfg.Logging.File = "-"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts Options) (*Application, *backend.NullBackend) {
	t.Helper()
	app, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(app.Close)

	b := backend.NewNullBackend(40, 10)
	if err := app.SetBackend(b); err != nil {
		t.Fatalf("SetBackend() error = %v", err)
	}
	return app, b
}

func keys(b *backend.NullBackend, runes string) {
	for _, r := range runes {
		b.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r})
	}
}

func key(b *backend.NullBackend, k backend.Key) {
	b.PostEvent(backend.Event{Type: backend.EventKey, Key: k})
}

func entryBases(h *history.History) []string {
	var out []string
	for _, e := range h.Entries() {
		out = append(out, e.Base)
	}
	return out
}

func TestRunSessionSavesState(t *testing.T) {
	cfg := testConfig(t)
	app, b := newTestApp(t, cfg, Options{})

	keys(b, "1+2")
	key(b, backend.KeyEnter)
	key(b, backend.KeyEscape)

	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if app.IsRunning() {
		t.Error("IsRunning() = true after Run returned")
	}

	if got := app.Logic().Text(); got != "3" {
		t.Errorf("Text() = %q, want %q", got, "3")
	}
	if got := b.Row(7); got != " 3" {
		t.Errorf("expression row = %q, want %q", got, " 3")
	}

	state := persist.NewStore(cfg.HistoryPath()).Load()
	if !state.Restored {
		t.Fatal("state file was not written")
	}
	if diff := cmp.Diff([]string{"1+2", ""}, entryBases(state.History)); diff != "" {
		t.Errorf("saved history mismatch (-want +got):\n%s", diff)
	}
	if state.DeleteMode != int(logic.DeleteModeClear) {
		t.Errorf("saved DeleteMode = %d, want clear", state.DeleteMode)
	}

	s := app.Stats().Snapshot()
	if s.Enters != 1 || s.Events != 5 || s.Saves == 0 || s.SaveFailures != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestRunRestoresState(t *testing.T) {
	cfg := testConfig(t)

	h := history.New(0)
	h.Enter("5")
	if !persist.NewStore(cfg.HistoryPath()).Save(persist.State{DeleteMode: int(logic.DeleteModeClear), History: h}) {
		t.Fatal("seeding state failed")
	}

	app, b := newTestApp(t, cfg, Options{})
	if app.Logic().DeleteMode() != logic.DeleteModeClear {
		t.Errorf("DeleteMode() = %v, want clear from saved state", app.Logic().DeleteMode())
	}

	key(b, backend.KeyUp)
	key(b, backend.KeyCtrlC)
	if err := app.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := app.Logic().Text(); got != "5" {
		t.Errorf("Text() after Up = %q, want %q", got, "5")
	}
}

func TestInitialDeleteModeFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calculator.DeleteMode = config.DeleteModeClear

	app, _ := newTestApp(t, cfg, Options{})
	if app.Logic().DeleteMode() != logic.DeleteModeClear {
		t.Errorf("DeleteMode() = %v, want clear", app.Logic().DeleteMode())
	}
}

func TestKeyMapping(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t), Options{})
	app.Logic().ResumeWithHistory()

	send := func(ev backend.Event) {
		t.Helper()
		if err := app.handleBackendEvent(ev); err != nil {
			t.Fatalf("handleBackendEvent(%+v) error = %v", ev, err)
		}
	}
	typeRunes := func(s string) {
		for _, r := range s {
			send(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r})
		}
	}

	typeRunes("6*7")
	if got := app.Logic().Text(); got != "6×7" {
		t.Errorf("Text() = %q, want keyboard * shown as ×", got)
	}

	send(backend.Event{Type: backend.EventKey, Key: backend.KeyHome})
	if app.Logic().Cursor() != 0 {
		t.Errorf("Cursor() after Home = %d", app.Logic().Cursor())
	}
	send(backend.Event{Type: backend.EventKey, Key: backend.KeyEnd})
	if app.Logic().Cursor() != 3 {
		t.Errorf("Cursor() after End = %d", app.Logic().Cursor())
	}
	send(backend.Event{Type: backend.EventKey, Key: backend.KeyLeft})
	if app.Logic().Cursor() != 2 {
		t.Errorf("Cursor() after Left = %d", app.Logic().Cursor())
	}

	typeRunes("=")
	if got := app.Logic().Text(); got != "42" {
		t.Errorf("Text() after = is %q, want 42", got)
	}

	send(backend.Event{Type: backend.EventKey, Key: backend.KeyDelete})
	if got := app.Logic().Text(); got != "" {
		t.Errorf("Text() after Delete = %q, want empty", got)
	}

	send(backend.Event{Type: backend.EventPaste, PasteText: " 2*3 "})
	if got := app.Logic().Text(); got != "2×3" {
		t.Errorf("Text() after paste = %q, want %q", got, "2×3")
	}

	send(backend.Event{Type: backend.EventKey, Key: backend.KeyBackspace})
	if got := app.Logic().Text(); got != "2×" {
		t.Errorf("Text() after Backspace = %q, want %q", got, "2×")
	}

	if err := app.handleBackendEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyEscape}); !errors.Is(err, ErrQuit) {
		t.Errorf("Escape error = %v, want ErrQuit", err)
	}
	if err := app.handleBackendEvent(backend.Event{Type: backend.EventInterrupt, Data: quitEvent{}}); !errors.Is(err, ErrQuit) {
		t.Errorf("quit interrupt error = %v, want ErrQuit", err)
	}
}

func TestReload(t *testing.T) {
	cfg := testConfig(t)
	app, _ := newTestApp(t, cfg, Options{
		Override: func(c *config.Config) { c.Calculator.FilterPolicy = config.PolicyEditable },
	})
	app.Logic().ResumeWithHistory()

	next := testConfig(t)
	next.Calculator.Locale = "de-DE"
	next.Calculator.FilterPolicy = config.PolicyBuilder

	if err := app.handleBackendEvent(backend.Event{Type: backend.EventInterrupt, Data: reloadEvent{cfg: next}}); err != nil {
		t.Fatalf("reload error = %v", err)
	}
	if got := app.Config().Calculator.Locale; got != "de-DE" {
		t.Errorf("Locale = %q, want de-DE", got)
	}
	if got := app.Calculator().Policy.Name(); got != config.PolicyEditable {
		t.Errorf("Policy = %q, want the override to win", got)
	}

	for _, r := range "1.5" {
		_ = app.handleBackendEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r})
	}
	if got := app.Logic().Text(); got != "1,5" {
		t.Errorf("Text() = %q, want the German decimal comma", got)
	}

	before := app.Calculator()
	bad := testConfig(t)
	bad.Calculator.Locale = "!!"
	_ = app.handleBackendEvent(backend.Event{Type: backend.EventInterrupt, Data: reloadEvent{cfg: bad}})
	_ = app.handleBackendEvent(backend.Event{Type: backend.EventInterrupt, Data: reloadEvent{err: errors.New("unreadable")}})
	if app.Calculator() != before {
		t.Error("a failed reload replaced the calculator")
	}

	s := app.Stats().Snapshot()
	if s.Reloads != 1 || s.ReloadErrors != 2 {
		t.Errorf("reloads = %d, errors = %d; want 1, 2", s.Reloads, s.ReloadErrors)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calculator.FilterPolicy = "sloppy"

	_, err := New(cfg, Options{})
	if !errors.Is(err, ErrInitialization) {
		t.Errorf("New() error = %v, want ErrInitialization", err)
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestRunWithoutBackend(t *testing.T) {
	app, err := New(testConfig(t), Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if err := app.Run(); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Run() error = %v, want ErrNoBackend", err)
	}
	app.Shutdown() // not running: no-op
}

func TestCalculatorFunctionScript(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "functions.lua")
	src := `keycalc.define("hyp", 2, function(a, b) return math.sqrt(a*a + b*b) end)`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Calculator.Functions = path

	calc, err := NewCalculator(cfg, nil)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	defer calc.Close()

	if calc.ScriptErr != nil {
		t.Fatalf("ScriptErr = %v", calc.ScriptErr)
	}
	if diff := cmp.Diff([]string{"hyp"}, calc.Functions); diff != "" {
		t.Errorf("Functions mismatch (-want +got):\n%s", diff)
	}
	if got := calc.Evaluate("hyp(3,4)"); got.Value != "5" {
		t.Errorf("Evaluate(hyp(3,4)) = %+v, want 5", got)
	}
}

func TestCalculatorBrokenScript(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calculator.Functions = filepath.Join(t.TempDir(), "missing.lua")

	calc, err := NewCalculator(cfg, nil)
	if err != nil {
		t.Fatalf("NewCalculator() error = %v", err)
	}
	defer calc.Close()

	var opErr *OperationError
	if !errors.As(calc.ScriptErr, &opErr) || opErr.Op != "load" {
		t.Errorf("ScriptErr = %v, want a load OperationError", calc.ScriptErr)
	}
	if got := calc.Evaluate("1+1"); got.Value != "2" {
		t.Errorf("Evaluate(1+1) = %+v, want 2", got)
	}
}
