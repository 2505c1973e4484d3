package app

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/keycalc/internal/renderer/backend"
)

// eventLoop polls the backend until a handler returns an error or the
// backend shuts down.
func (app *Application) eventLoop() error {
	for {
		ev := app.backend.PollEvent()
		if ev.Type == backend.EventNone {
			return nil
		}

		err := app.handleBackendEvent(ev)
		app.stats.RecordEvent()
		if app.dirty {
			app.save()
		}
		if err != nil {
			return err
		}
		app.renderer.Render()
	}
}

// handleBackendEvent processes a backend event and routes it appropriately.
// Returns ErrQuit if the application should exit.
func (app *Application) handleBackendEvent(ev backend.Event) error {
	switch ev.Type {
	case backend.EventKey:
		return app.handleKeyEvent(ev)
	case backend.EventPaste:
		app.logic.Paste(ev.PasteText)
	case backend.EventResize:
		app.logger.Debug("resized", zap.Int("width", ev.Width), zap.Int("height", ev.Height))
	case backend.EventInterrupt:
		return app.handleInterrupt(ev.Data)
	}
	return nil
}

// handleKeyEvent maps a key to a controller operation.
func (app *Application) handleKeyEvent(ev backend.Event) error {
	l := app.logic
	switch ev.Key {
	case backend.KeyRune:
		if ev.Rune == '=' {
			l.Enter()
			app.stats.RecordEnter()
			return nil
		}
		l.Insert(app.keyText(ev.Rune))
	case backend.KeyEnter:
		l.Enter()
		app.stats.RecordEnter()
	case backend.KeyBackspace:
		l.Delete()
	case backend.KeyDelete, backend.KeyCtrlU:
		l.Clear()
	case backend.KeyLeft:
		l.MoveCursor(true)
	case backend.KeyRight:
		l.MoveCursor(false)
	case backend.KeyHome:
		l.MoveCursorTo(0)
	case backend.KeyEnd:
		l.MoveCursorTo(utf8.RuneCountInString(l.Text()))
	case backend.KeyUp:
		l.Up()
	case backend.KeyDown:
		l.Down()
	case backend.KeyCtrlL:
		app.backend.Clear()
	case backend.KeyEscape, backend.KeyCtrlC, backend.KeyCtrlD:
		return ErrQuit
	}
	return nil
}

// keyText turns a typed rune into display text. Keyboard operators,
// digits and the decimal point are shown in the locale's glyphs.
func (app *Application) keyText(r rune) string {
	s := string(r)
	switch {
	case r >= '0' && r <= '9', r == '*', r == '/', r == '-', r == '.':
		return app.calc.Tokenizer.Localize(s)
	}
	return s
}

func (app *Application) handleInterrupt(data any) error {
	switch d := data.(type) {
	case quitEvent:
		return ErrQuit
	case reloadEvent:
		app.applyReload(d)
	}
	return nil
}
