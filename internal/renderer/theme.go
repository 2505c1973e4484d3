package renderer

import "github.com/dshills/keycalc/internal/renderer/core"

// Theme holds the styles the calculator screen is drawn with.
type Theme struct {
	Expression core.Style
	Preview    core.Style
	Error      core.Style
	History    core.Style
	Result     core.Style
	Selected   core.Style
	Separator  core.Style
	Status     core.Style
	Message    core.Style
}

var (
	accent  = core.MustHex("#5fafd7")
	errRed  = core.MustHex("#d75f5f")
	panelBg = core.MustHex("#262626")
)

// DefaultTheme returns the built-in theme.
func DefaultTheme() Theme {
	base := core.DefaultStyle()
	muted := accent.Blend(panelBg, 0.5)
	return Theme{
		Expression: base.Bold(),
		Preview:    base.WithForeground(accent),
		Error:      base.WithForeground(errRed),
		History:    base.Dim(),
		Result:     base.WithForeground(muted),
		Selected:   base.Reverse(),
		Separator:  base.WithForeground(muted),
		Status:     base.WithBackground(panelBg).WithForeground(accent),
		Message:    base.WithBackground(panelBg).WithForeground(errRed),
	}
}
