package app

import (
	"go.uber.org/zap"
)

// applyReload rebuilds the evaluation stack from a reloaded
// configuration. On any failure the running configuration is kept.
// History size and location only change on restart.
func (app *Application) applyReload(ev reloadEvent) {
	cfg, err := ev.cfg, ev.err
	if err == nil {
		if app.opts.Override != nil {
			app.opts.Override(cfg)
		}
		err = cfg.Validate()
	}

	var calc *Calculator
	if err == nil {
		calc, err = NewCalculator(cfg, app.logger.WithComponent("calc"))
	}
	if err != nil {
		app.stats.RecordReload(false)
		app.logger.Warn("config reload failed", zap.Error(NewOperationError("reload", app.opts.ConfigPath, err)))
		app.renderer.SetMessage("config error")
		return
	}

	old := app.calc
	app.calc = calc
	app.cfg = cfg
	app.logic.Reconfigure(calc.Evaluator, calc.Policy)
	old.Close()

	app.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))
	app.updateStatus()
	app.stats.RecordReload(true)

	msg := "config reloaded"
	if calc.ScriptErr != nil {
		msg = "function script error"
	}
	app.renderer.SetMessage(msg)
	app.logger.Info("config reloaded",
		zap.String("locale", cfg.Calculator.Locale),
		zap.String("policy", calc.Policy.Name()),
	)
}
