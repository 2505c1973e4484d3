package logic

import "github.com/dshills/keycalc/internal/calc/eval"

// Item is one row of the history list: a committed expression and what
// it evaluates to.
type Item struct {
	Expr   string
	Result string

	// Selected marks the entry the history cursor is on.
	Selected bool
}

// HistoryItems lists the committed entries, oldest first, each with its
// evaluated result. The sentinel is not listed. Expressions that no
// longer parse get an empty result.
func (l *Logic) HistoryItems() []Item {
	entries, pos := l.history.Snapshot()
	if len(entries) <= 1 {
		return nil
	}

	lineLength := l.display.LineLength()
	items := make([]Item, 0, len(entries)-1)
	for i, e := range entries[:len(entries)-1] {
		res := l.evaluator.Evaluate(e.Base, lineLength)
		item := Item{Expr: e.Base, Selected: i == pos}
		switch res.Kind {
		case eval.KindValue:
			item.Result = res.Value
		case eval.KindNaN:
			item.Result = res.Error
		}
		items = append(items, item)
	}
	return items
}
