package logic

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/keycalc/internal/calc/arith"
	"github.com/dshills/keycalc/internal/calc/eval"
	"github.com/dshills/keycalc/internal/calc/filter"
	"github.com/dshills/keycalc/internal/calc/history"
	"github.com/dshills/keycalc/internal/calc/token"
	"github.com/dshills/keycalc/internal/locale"
)

type fakeDisplay struct {
	text       string
	scroll     Scroll
	cursor     int
	value      string
	errText    string
	lineLength int
}

func (d *fakeDisplay) SetText(text string, scroll Scroll) {
	d.text = text
	d.scroll = scroll
}

func (d *fakeDisplay) SetCursor(pos int) { d.cursor = pos }

func (d *fakeDisplay) SetPreview(value, errText string) {
	d.value = value
	d.errText = errText
}

func (d *fakeDisplay) LineLength() int { return d.lineLength }

type fixture struct {
	logic   *Logic
	display *fakeDisplay
	history *history.History
	modes   []DeleteMode
}

func newFixture(t *testing.T, policy string) *fixture {
	t.Helper()
	tok := token.New(locale.MustLoad("en", false))
	p, err := filter.New(policy, tok)
	if err != nil {
		t.Fatalf("filter.New error = %v", err)
	}

	f := &fixture{display: &fakeDisplay{}, history: history.New(0)}
	f.logic = New(f.history, eval.New(tok, arith.NewEnv()), p, f.display,
		WithListener(ListenerFunc(func(m DeleteMode) { f.modes = append(f.modes, m) })))
	f.logic.ResumeWithHistory()
	return f
}

func (f *fixture) typeText(keys ...string) {
	for _, k := range keys {
		f.logic.Insert(k)
	}
}

func TestInsertAndPreview(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("1", "+", "2")

	if f.logic.Text() != "1+2" || f.display.text != "1+2" {
		t.Fatalf("text = %q, display = %q", f.logic.Text(), f.display.text)
	}
	if f.display.cursor != 3 {
		t.Errorf("cursor = %d, want 3", f.display.cursor)
	}
	if f.display.value != "3" || f.display.errText != "" {
		t.Errorf("preview = %q/%q, want 3", f.display.value, f.display.errText)
	}

	f.typeText("+")
	if f.display.value != "3" {
		t.Errorf("preview with trailing operator = %q, want 3", f.display.value)
	}
}

func TestInsertFiltered(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("+", "1", ".", "5", ".", "#", "*", "-", "-", "2")

	if got, want := f.logic.Text(), "1.5×−2"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestInsertFunctionName(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("2", "sin")

	if got := f.logic.Text(); got != "2sin(" {
		t.Errorf("text = %q, want 2sin(", got)
	}
}

func TestEnter(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("1", "+", "2")
	f.logic.Enter()

	if f.logic.Text() != "3" || f.display.scroll != ScrollUp {
		t.Errorf("after Enter text=%q scroll=%v", f.logic.Text(), f.display.scroll)
	}
	if f.logic.Result() != "3" || f.logic.IsError() {
		t.Errorf("result=%q isError=%v", f.logic.Result(), f.logic.IsError())
	}
	if f.logic.DeleteMode() != DeleteModeClear {
		t.Errorf("DeleteMode = %v, want clear", f.logic.DeleteMode())
	}
	if f.display.value != "" {
		t.Errorf("preview while showing result = %q, want empty", f.display.value)
	}

	want := []history.Entry{history.NewEntry("1+2"), history.NewEntry("")}
	if diff := cmp.Diff(want, f.history.Entries()); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
}

func TestEnterOnResultRecallsHistoryText(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("2", "×", "2")
	f.logic.Enter()
	f.logic.Enter()

	if f.logic.Text() != "" || f.logic.Result() != "" {
		t.Errorf("text=%q result=%q, want both empty", f.logic.Text(), f.logic.Result())
	}
	if f.logic.DeleteMode() != DeleteModeBackspace {
		t.Errorf("DeleteMode = %v, want backspace", f.logic.DeleteMode())
	}
}

func TestEnterLiteral(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("5")
	f.logic.Enter()

	if f.logic.Text() != "" || f.display.scroll != ScrollUp {
		t.Errorf("text=%q scroll=%v, want empty and up", f.logic.Text(), f.display.scroll)
	}
	if f.history.Entries()[0].Base != "5" {
		t.Errorf("history = %+v", f.history.Entries())
	}
}

func TestEnterErrors(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"nan", []string{"0", "÷", "0"}, "Not a number"},
		{"syntax", []string{"(", "1", "+", "(", "2"}, "Error"},
		{"only minus", []string{"−"}, "Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, filter.PolicyEditable)
			f.typeText(tt.keys...)
			f.logic.Enter()

			if f.logic.Text() != tt.want || !f.logic.IsError() {
				t.Errorf("text=%q isError=%v, want %q", f.logic.Text(), f.logic.IsError(), tt.want)
			}
			if f.logic.DeleteMode() != DeleteModeBackspace {
				t.Errorf("DeleteMode after error = %v, want backspace", f.logic.DeleteMode())
			}

			// Typing after an error starts over.
			f.typeText("7")
			if f.logic.Text() != "7" || f.logic.IsError() {
				t.Errorf("after typing: text=%q isError=%v", f.logic.Text(), f.logic.IsError())
			}
		})
	}
}

func TestInsertAfterResult(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("1", "+", "2")
	f.logic.Enter()

	f.typeText("×")
	if f.logic.Text() != "3×" {
		t.Errorf("operator after result: text = %q, want 3×", f.logic.Text())
	}
	if f.logic.DeleteMode() != DeleteModeBackspace {
		t.Errorf("DeleteMode = %v, want backspace", f.logic.DeleteMode())
	}

	f.logic.Clear()
	f.typeText("4", "+", "4")
	f.logic.Enter()
	f.typeText("9")
	if f.logic.Text() != "9" {
		t.Errorf("digit after result: text = %q, want 9", f.logic.Text())
	}

	if diff := cmp.Diff([]DeleteMode{DeleteModeClear, DeleteModeBackspace, DeleteModeClear, DeleteModeBackspace}, f.modes); diff != "" {
		t.Errorf("mode changes (-want +got):\n%s", diff)
	}
}

func TestInsertAfterResultBuilder(t *testing.T) {
	f := newFixture(t, filter.PolicyBuilder)
	f.typeText("6", "÷", "2")
	f.logic.Enter()

	f.typeText("−")
	if f.logic.Text() != "3−" {
		t.Errorf("operator after result: text = %q, want 3−", f.logic.Text())
	}

	f.logic.Clear()
	f.typeText("6", "÷", "3")
	f.logic.Enter()
	f.typeText("1")
	if f.logic.Text() != "1" {
		t.Errorf("digit after result: text = %q, want 1", f.logic.Text())
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("1", "2", "3")

	f.logic.Delete()
	if f.logic.Text() != "12" || f.logic.Cursor() != 2 {
		t.Errorf("backspace: text=%q cursor=%d", f.logic.Text(), f.logic.Cursor())
	}

	f.logic.MoveCursorTo(0)
	f.logic.Delete()
	if f.logic.Text() != "12" {
		t.Errorf("backspace at start changed text to %q", f.logic.Text())
	}

	f.logic.MoveCursorTo(2)
	f.typeText("+", "1")
	f.logic.Enter()
	f.logic.Delete()
	if f.logic.Text() != "" || f.logic.Result() != "" {
		t.Errorf("delete on result: text=%q result=%q", f.logic.Text(), f.logic.Result())
	}
	if f.logic.DeleteMode() != DeleteModeBackspace {
		t.Errorf("DeleteMode = %v, want backspace", f.logic.DeleteMode())
	}
}

func TestDeleteModeFromSavedState(t *testing.T) {
	tok := token.New(locale.MustLoad("en", false))
	h := history.New(0)
	h.Enter("82")
	h.MoveToPrevious()

	d := &fakeDisplay{}
	l := New(h, eval.New(tok, arith.NewEnv()), filter.NewEditable(tok), d, WithDeleteMode(DeleteModeClear))
	l.ResumeWithHistory()

	if l.Text() != "82" {
		t.Fatalf("ResumeWithHistory text = %q, want 82", l.Text())
	}
	if l.DeleteMode() != DeleteModeClear {
		t.Errorf("DeleteMode = %v, want saved clear mode", l.DeleteMode())
	}
	l.Delete()
	if l.Text() != "8" {
		t.Errorf("Delete on a recalled expression left %q, want 8", l.Text())
	}
}

func TestInsertLocalizedFunction(t *testing.T) {
	tok := token.New(locale.MustLoad("de", false))
	d := &fakeDisplay{}
	l := New(history.New(0), eval.New(tok, arith.NewEnv()), filter.NewEditable(tok), d)
	l.ResumeWithHistory()

	l.Insert("log")
	for _, k := range []string{"1", "0", "0", ")", "+"} {
		l.Insert(k)
	}
	l.Insert("max")
	for _, k := range []string{"1", ";", "2", ",", "5", ")"} {
		l.Insert(k)
	}

	if got, want := l.Text(), "lg(100)+max(1;2,5)"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	if got := tok.Localize(tok.Normalize(l.Text())); got != l.Text() {
		t.Errorf("round trip changed %q to %q", l.Text(), got)
	}
	if d.value != "4,5" {
		t.Errorf("preview = %q, want 4,5", d.value)
	}
}

func TestDeleteAfterRecall(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("2", "+", "3")
	f.logic.Enter()
	if f.logic.DeleteMode() != DeleteModeClear {
		t.Fatalf("DeleteMode after Enter = %v, want clear", f.logic.DeleteMode())
	}

	f.logic.Up()
	if f.logic.Text() != "2+3" {
		t.Fatalf("Up: text = %q, want 2+3", f.logic.Text())
	}
	if f.logic.DeleteMode() != DeleteModeBackspace {
		t.Errorf("DeleteMode after Up = %v, want backspace", f.logic.DeleteMode())
	}

	f.logic.Delete()
	if f.logic.Text() != "2+" {
		t.Errorf("Delete after Up: text = %q, want 2+", f.logic.Text())
	}
}

func TestUpDown(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.typeText("1", "+", "1")
	f.logic.Enter()

	f.logic.Up()
	if f.logic.Text() != "1+1" || f.display.scroll != ScrollDown {
		t.Fatalf("Up: text=%q scroll=%v", f.logic.Text(), f.display.scroll)
	}

	f.typeText("0")
	f.logic.Down()
	if f.logic.Text() != "" || f.display.scroll != ScrollUp {
		t.Errorf("Down: text=%q scroll=%v", f.logic.Text(), f.display.scroll)
	}

	f.logic.Up()
	if f.logic.Text() != "1+10" {
		t.Errorf("Up after edit: text=%q, want 1+10", f.logic.Text())
	}
	if f.history.Base() != "1+1" {
		t.Errorf("base changed to %q", f.history.Base())
	}

	f.logic.Up()
	if f.logic.Text() != "1+10" {
		t.Errorf("Up at oldest entry changed text to %q", f.logic.Text())
	}
}

func TestEatHorizontalMove(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	if !f.logic.EatHorizontalMove(true) || !f.logic.EatHorizontalMove(false) {
		t.Error("empty buffer should eat moves both ways")
	}

	f.typeText("1", "2")
	if f.logic.EatHorizontalMove(true) || !f.logic.EatHorizontalMove(false) {
		t.Error("cursor at end: left allowed, right eaten")
	}

	f.logic.MoveCursor(true)
	f.logic.MoveCursor(true)
	f.logic.MoveCursor(true)
	if f.logic.Cursor() != 0 || f.display.cursor != 0 {
		t.Errorf("cursor = %d, want 0", f.logic.Cursor())
	}

	f.typeText("3")
	if f.logic.Text() != "312" {
		t.Errorf("insert at start: text = %q, want 312", f.logic.Text())
	}
}

func TestPaste(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	f.logic.Paste(" 2*3-1 \n")

	if got, want := f.logic.Text(), "2×3−1"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	if f.display.value != "5" {
		t.Errorf("preview = %q, want 5", f.display.value)
	}

	f.logic.Clear()
	f.logic.Paste("$$")
	if f.logic.Text() != "" {
		t.Errorf("paste of rejected text gave %q", f.logic.Text())
	}
}

func TestHistoryItems(t *testing.T) {
	f := newFixture(t, filter.PolicyEditable)
	if items := f.logic.HistoryItems(); items != nil {
		t.Errorf("HistoryItems on empty history = %v", items)
	}

	f.typeText("2", "×", "3")
	f.logic.Enter()
	f.typeText("0", "÷", "0")
	f.logic.Enter()
	f.logic.Clear()
	f.typeText("(", "1")
	f.logic.Enter()
	f.logic.Up()

	want := []Item{
		{Expr: "2×3", Result: "6"},
		{Expr: "0÷0", Result: "Not a number"},
		{Expr: "(1", Result: "", Selected: true},
	}
	if diff := cmp.Diff(want, f.logic.HistoryItems()); diff != "" {
		t.Errorf("HistoryItems (-want +got):\n%s", diff)
	}
}
