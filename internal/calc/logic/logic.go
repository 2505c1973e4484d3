// Package logic is the calculator controller.
//
// Logic owns the expression buffer and the caret. Key and button input
// arrive as method calls; each edit goes through the active filter
// policy, every change is evaluated for a live preview, Enter commits the
// expression to the history and shows its result, and Up/Down walk the
// history. The display only receives what to draw.
package logic

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/keycalc/internal/calc/eval"
	"github.com/dshills/keycalc/internal/calc/filter"
	"github.com/dshills/keycalc/internal/calc/history"
)

// Logic is the calculator controller. It is not safe for concurrent use;
// all calls are expected from the event loop.
type Logic struct {
	history   *history.History
	evaluator *eval.Evaluator
	policy    filter.Policy
	display   Display
	listener  Listener
	logger    *zap.Logger

	text   string
	cursor int

	// result is the text last shown by Enter, or the error message when
	// isError is set.
	result     string
	isError    bool
	deleteMode DeleteMode
}

// Option configures a Logic.
type Option func(*Logic)

// WithListener sets the delete-mode listener.
func WithListener(l Listener) Option {
	return func(lg *Logic) { lg.listener = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(lg *Logic) {
		if l != nil {
			lg.logger = l
		}
	}
}

// WithDeleteMode sets the initial delete mode, usually the saved one.
func WithDeleteMode(m DeleteMode) Option {
	return func(lg *Logic) { lg.deleteMode = m }
}

// New creates a controller. Call ResumeWithHistory to show the current
// history entry.
func New(h *history.History, ev *eval.Evaluator, policy filter.Policy, d Display, opts ...Option) *Logic {
	l := &Logic{
		history:   h,
		evaluator: ev,
		policy:    policy,
		display:   d,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reconfigure swaps the evaluator and filter policy, as after a locale
// change, and re-renders the buffer.
func (l *Logic) Reconfigure(ev *eval.Evaluator, policy filter.Policy) {
	l.evaluator = ev
	l.policy = policy
	l.display.SetText(l.text, ScrollNone)
	l.display.SetCursor(l.cursor)
	l.preview()
}

// Text returns the buffer.
func (l *Logic) Text() string { return l.text }

// Cursor returns the caret as a rune offset.
func (l *Logic) Cursor() int { return l.cursor }

// IsError reports whether the buffer shows an error message.
func (l *Logic) IsError() bool { return l.isError }

// Result returns the last result shown by Enter.
func (l *Logic) Result() string { return l.result }

// History returns the history the controller commits to.
func (l *Logic) History() *history.History { return l.history }

// DeleteMode returns the current delete mode.
func (l *Logic) DeleteMode() DeleteMode { return l.deleteMode }

// SetDeleteMode changes the delete mode and notifies the listener.
func (l *Logic) SetDeleteMode(m DeleteMode) {
	if l.deleteMode == m {
		return
	}
	l.deleteMode = m
	if l.listener != nil {
		l.listener.DeleteModeChanged(m)
	}
}

// ResumeWithHistory shows the selected history entry, as at startup.
func (l *Logic) ResumeWithHistory() {
	l.clearWithHistory(ScrollNone)
}

// Insert inserts delta at the cursor through the filter policy. A
// multi-letter function name gets an opening parenthesis appended.
func (l *Logic) Insert(delta string) {
	if delta == "" || !accepted(delta) {
		return
	}
	if isFunctionName(delta) {
		delta = l.evaluator.Tokenizer().Localize(delta) + "("
	}
	l.apply(filter.Edit{Start: l.cursor, End: l.cursor, Text: delta})
	l.SetDeleteMode(DeleteModeBackspace)
}

// Paste inserts text from the clipboard. The text is brought into display
// form first and characters the keypad could not produce are dropped.
func (l *Logic) Paste(text string) {
	tok := l.evaluator.Tokenizer()
	text = tok.Localize(tok.Normalize(strings.TrimSpace(text)))
	text = strings.Map(func(r rune) rune {
		if acceptedRune(r) {
			return r
		}
		return -1
	}, text)
	if text == "" {
		return
	}
	l.apply(filter.Edit{Start: l.cursor, End: l.cursor, Text: text})
	l.SetDeleteMode(DeleteModeBackspace)
}

// Delete removes the character before the cursor, or clears the buffer
// when it shows a result or an error. The delete mode only reports which
// of the two the key will do; it does not decide it.
func (l *Logic) Delete() {
	if l.isError || l.ShowingResult() {
		l.clear(ScrollNone)
		l.SetDeleteMode(DeleteModeBackspace)
		return
	}
	if l.cursor == 0 {
		return
	}
	l.apply(filter.Edit{Start: l.cursor - 1, End: l.cursor})
	l.result = ""
}

// Clear empties the buffer.
func (l *Logic) Clear() {
	l.clear(ScrollNone)
	l.SetDeleteMode(DeleteModeBackspace)
}

// Enter commits the buffer to the history and shows its result. Enter on
// a shown result brings back the selected history text.
func (l *Logic) Enter() {
	text := l.text
	if text == l.result {
		l.clearWithHistory(ScrollNone)
		l.SetDeleteMode(DeleteModeBackspace)
		return
	}

	l.history.Enter(text)
	res := l.evaluator.Evaluate(text, l.display.LineLength())
	l.logger.Debug("evaluated",
		zap.String("expr", res.Expr),
		zap.Stringer("kind", res.Kind),
		zap.Error(res.Err),
	)

	switch {
	case res.IsError():
		l.isError = true
		l.result = res.Error
	case res.Kind == eval.KindEmpty && strings.TrimSpace(text) != "":
		// Only operators: nothing left to evaluate.
		l.isError = true
		l.result = l.evaluator.Tokenizer().Resources().ErrorSyntax
	default:
		l.result = res.Value
	}

	if text == l.result {
		// Nothing new to show.
		l.clearWithHistory(ScrollUp)
		return
	}
	l.setText(l.result, ScrollUp)
	if !l.isError {
		l.SetDeleteMode(DeleteModeClear)
	}
}

// Up recalls the older history entry. The buffer is stashed as the edit
// of the entry it came from unless it is the shown result.
func (l *Logic) Up() {
	l.stash()
	if l.history.MoveToPrevious() {
		l.recall(ScrollDown)
	}
}

// Down recalls the newer history entry.
func (l *Logic) Down() {
	l.stash()
	if l.history.MoveToNext() {
		l.recall(ScrollUp)
	}
}

// EatHorizontalMove reports whether a move left (or right) should be
// swallowed because the cursor is already at that end of the buffer.
func (l *Logic) EatHorizontalMove(toLeft bool) bool {
	if toLeft {
		return l.cursor == 0
	}
	return l.cursor >= utf8.RuneCountInString(l.text)
}

// MoveCursor moves the caret one rune left or right.
func (l *Logic) MoveCursor(toLeft bool) {
	if l.EatHorizontalMove(toLeft) {
		return
	}
	if toLeft {
		l.cursor--
	} else {
		l.cursor++
	}
	l.display.SetCursor(l.cursor)
}

// MoveCursorTo moves the caret to pos, clamped to the buffer.
func (l *Logic) MoveCursorTo(pos int) {
	l.cursor = min(max(pos, 0), utf8.RuneCountInString(l.text))
	l.display.SetCursor(l.cursor)
}

// AcceptInsert implements filter.Context. Input is refused while an
// error is shown, and a non-operator typed at the end of a shown result
// starts a new expression.
func (l *Logic) AcceptInsert(delta string) bool {
	if l.isError {
		return false
	}
	return l.text != l.result ||
		l.isOperator(delta) ||
		l.cursor != utf8.RuneCountInString(l.text)
}

// Cleared implements filter.Context.
func (l *Logic) Cleared() {
	l.result = ""
	l.isError = false
	l.history.Update(l.text)
}

// ShowingResult implements filter.Context.
func (l *Logic) ShowingResult() bool {
	return l.result != "" && l.text == l.result
}

func (l *Logic) apply(e filter.Edit) {
	res := l.policy.Apply(l.text, e, l)
	changed := res.Changed(l.text)
	l.text = res.Text
	l.cursor = res.Cursor
	if changed {
		l.display.SetText(l.text, ScrollNone)
		l.preview()
	}
	l.display.SetCursor(l.cursor)
}

func (l *Logic) setText(text string, scroll Scroll) {
	l.text = text
	l.cursor = utf8.RuneCountInString(text)
	l.display.SetText(text, scroll)
	l.display.SetCursor(l.cursor)
	l.preview()
}

func (l *Logic) clear(scroll Scroll) {
	l.setText("", scroll)
	l.Cleared()
}

func (l *Logic) clearWithHistory(scroll Scroll) {
	l.result = ""
	l.isError = false
	l.setText(l.history.Text(), scroll)
}

func (l *Logic) stash() {
	if l.text != l.result {
		l.history.Update(l.text)
	}
}

func (l *Logic) recall(scroll Scroll) {
	l.setText(l.history.Text(), scroll)
	l.SetDeleteMode(DeleteModeBackspace)
}

// preview publishes the live evaluation of the buffer. Nothing is shown
// for a result on display or when the value would repeat the buffer.
func (l *Logic) preview() {
	if l.ShowingResult() {
		l.display.SetPreview("", "")
		return
	}
	res := l.evaluator.Evaluate(l.text, l.display.LineLength())
	switch {
	case res.Kind == eval.KindEmpty:
		l.display.SetPreview("", "")
	case res.IsError():
		l.display.SetPreview("", res.Error)
	case res.Value == l.text:
		l.display.SetPreview("", "")
	default:
		l.display.SetPreview(res.Value, "")
	}
}

func (l *Logic) isOperator(delta string) bool {
	r, size := utf8.DecodeRuneInString(delta)
	if size == 0 || size != len(delta) {
		return false
	}
	return l.evaluator.Tokenizer().Glyphs().IsOperator(r)
}

// keypadRunes are the non-alphanumeric characters the keypad produces.
const keypadRunes = ".,;+-*/−×÷()!%^∞"

func acceptedRune(r rune) bool {
	return unicode.IsDigit(r) || unicode.IsLetter(r) || strings.ContainsRune(keypadRunes, r)
}

func accepted(s string) bool {
	for _, r := range s {
		if !acceptedRune(r) {
			return false
		}
	}
	return true
}

// isFunctionName reports whether s looks like a function button label:
// two or more letters and nothing else.
func isFunctionName(s string) bool {
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
