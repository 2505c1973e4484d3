// Package renderer draws the calculator on a terminal backend.
//
// The screen is split, top to bottom, into the history panel, a
// separator, the expression line, the preview line and the status line.
// Renderer implements logic.Display and logic.Listener; it only records
// what it is told and paints everything on Render.
package renderer

import (
	"strings"
	"sync"

	"github.com/dshills/keycalc/internal/calc/logic"
	"github.com/dshills/keycalc/internal/renderer/backend"
	"github.com/dshills/keycalc/internal/renderer/core"
)

// ItemSource lists the history panel rows.
type ItemSource interface {
	HistoryItems() []logic.Item
}

// Status is the fixed part of the status line.
type Status struct {
	Locale string
	Policy string
}

// margin is the blank column kept at both ends of a line.
const margin = 1

// Renderer paints the calculator screen.
type Renderer struct {
	mu sync.Mutex

	backend backend.Backend
	theme   Theme
	items   ItemSource

	text    string
	cursor  int
	scroll  logic.Scroll
	value   string
	errText string

	status     Status
	deleteMode logic.DeleteMode
	message    string

	// first history item shown in the panel
	offset int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme sets the theme.
func WithTheme(t Theme) Option {
	return func(r *Renderer) { r.theme = t }
}

// New creates a renderer on b.
func New(b backend.Backend, opts ...Option) *Renderer {
	r := &Renderer{
		backend: b,
		theme:   DefaultTheme(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetItemSource sets where history panel rows come from.
func (r *Renderer) SetItemSource(s ItemSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = s
}

// SetStatus sets the status line contents.
func (r *Renderer) SetStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

// SetMessage shows a transient message in the status line until the next
// expression change. An empty message clears it.
func (r *Renderer) SetMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.message = msg
}

// SetText implements logic.Display.
func (r *Renderer) SetText(text string, scroll logic.Scroll) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.text = text
	r.scroll = scroll
	r.message = ""
}

// SetCursor implements logic.Display.
func (r *Renderer) SetCursor(pos int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = pos
}

// SetPreview implements logic.Display.
func (r *Renderer) SetPreview(value, errText string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value = value
	r.errText = errText
}

// LineLength implements logic.Display. It is the expression line width
// less the margins.
func (r *Renderer) LineLength() int {
	w, _ := r.backend.Size()
	if w <= 0 {
		return 0
	}
	return max(w-2*margin, 1)
}

// DeleteModeChanged implements logic.Listener.
func (r *Renderer) DeleteModeChanged(m logic.DeleteMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteMode = m
}

// LastScroll returns the hint given with the last SetText.
func (r *Renderer) LastScroll() logic.Scroll {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scroll
}

// layout is the row of each screen part; -1 means not shown.
type layout struct {
	history   int // rows [0, history)
	separator int
	expr      int
	preview   int
	status    int
}

func computeLayout(height int) layout {
	if height >= 5 {
		return layout{
			history:   height - 4,
			separator: height - 4,
			expr:      height - 3,
			preview:   height - 2,
			status:    height - 1,
		}
	}
	// Too short for the panel: keep the expression first.
	l := layout{separator: -1, expr: -1, preview: -1, status: -1}
	rows := []*int{&l.expr, &l.preview, &l.status}
	for i := 0; i < height && i < len(rows); i++ {
		*rows[i] = i
	}
	return l
}

// Render paints the whole screen and flushes it.
func (r *Renderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.backend.Size()
	r.backend.Clear()
	if w <= 0 || h <= 0 {
		r.backend.Show()
		return
	}

	l := computeLayout(h)
	if l.history > 0 && r.items != nil {
		r.drawHistory(w, l.history)
	}
	if l.separator >= 0 {
		r.backend.Fill(core.RectFromSize(l.separator, 0, 1, w), core.NewStyledCell('─', r.theme.Separator))
	}
	if l.expr >= 0 {
		r.drawExpression(w, l.expr)
	} else {
		r.backend.HideCursor()
	}
	if l.preview >= 0 {
		r.drawPreview(w, l.preview)
	}
	if l.status >= 0 {
		r.drawStatus(w, l.status)
	}
	r.backend.Show()
}

func (r *Renderer) drawHistory(w, rows int) {
	items := r.items.HistoryItems()
	if len(items) == 0 {
		r.offset = 0
		return
	}

	selected := -1
	for i, it := range items {
		if it.Selected {
			selected = i
			break
		}
	}

	// Follow the selection; with none, stay pinned to the newest entry.
	switch {
	case selected < 0:
		r.offset = max(len(items)-rows, 0)
	case selected < r.offset:
		r.offset = selected
	case selected >= r.offset+rows:
		r.offset = selected - rows + 1
	}
	r.offset = min(r.offset, max(len(items)-rows, 0))

	// Newest entries sit right above the separator.
	top := max(rows-(len(items)-r.offset), 0)
	for i := r.offset; i < len(items) && top+(i-r.offset) < rows; i++ {
		y := top + (i - r.offset)
		it := items[i]

		exprStyle, resStyle := r.theme.History, r.theme.Result
		if it.Selected {
			exprStyle, resStyle = r.theme.Selected, r.theme.Selected
			r.backend.Fill(core.RectFromSize(y, 0, 1, w), core.NewStyledCell(' ', r.theme.Selected))
		}

		right := w - margin
		if it.Result != "" {
			res := "= " + it.Result
			x := max(right-core.StringWidth(res), margin)
			r.drawText(x, y, res, resStyle, right)
			right = x - 1
		}
		r.drawText(margin, y, it.Expr, exprStyle, right)
	}
}

func (r *Renderer) drawExpression(w, y int) {
	runes := []rune(r.text)
	cursor := min(max(r.cursor, 0), len(runes))
	avail := max(w-2*margin, 1)

	// Scroll the line so the caret stays visible.
	start := 0
	for start < cursor && widthOf(runes[start:cursor]) > avail-1 {
		start++
	}

	r.drawText(margin, y, string(runes[start:]), r.theme.Expression, w-margin)
	r.backend.ShowCursor(margin+widthOf(runes[start:cursor]), y)
}

func (r *Renderer) drawPreview(w, y int) {
	text, style := r.value, r.theme.Preview
	if r.errText != "" {
		text, style = r.errText, r.theme.Error
	}
	if text == "" {
		return
	}
	x := max(w-margin-core.StringWidth(text), margin)
	r.drawText(x, y, text, style, w-margin)
}

func (r *Renderer) drawStatus(w, y int) {
	r.backend.Fill(core.RectFromSize(y, 0, 1, w), core.NewStyledCell(' ', r.theme.Status))

	mode := "DEL"
	if r.deleteMode == logic.DeleteModeClear {
		mode = "CLR"
	}
	parts := []string{mode}
	if r.status.Locale != "" {
		parts = append(parts, r.status.Locale)
	}
	if r.status.Policy != "" {
		parts = append(parts, r.status.Policy)
	}
	left := strings.Join(parts, " │ ")
	next := r.drawText(margin, y, left, r.theme.Status, w-margin)

	if r.message != "" {
		x := max(w-margin-core.StringWidth(r.message), next+1)
		r.drawText(x, y, r.message, r.theme.Message, w-margin)
	}
}

// drawText writes s from column x, stopping before column limit. It
// returns the column after the last rune written.
func (r *Renderer) drawText(x, y int, s string, style core.Style, limit int) int {
	for _, ch := range s {
		cw := core.RuneWidth(ch)
		if cw == 0 {
			continue
		}
		if x+cw > limit {
			break
		}
		r.backend.SetCell(x, y, core.Cell{Rune: ch, Width: cw, Style: style})
		if cw == 2 {
			r.backend.SetCell(x+1, y, core.ContinuationCell())
		}
		x += cw
	}
	return x
}

func widthOf(runes []rune) int {
	n := 0
	for _, r := range runes {
		n += core.RuneWidth(r)
	}
	return n
}
