package app

import (
	"go.uber.org/zap"

	"github.com/dshills/keycalc/internal/calc/arith"
	"github.com/dshills/keycalc/internal/calc/eval"
	"github.com/dshills/keycalc/internal/calc/filter"
	"github.com/dshills/keycalc/internal/calc/token"
	"github.com/dshills/keycalc/internal/config"
	"github.com/dshills/keycalc/internal/locale"
	luaplugin "github.com/dshills/keycalc/internal/plugin/lua"
)

// Calculator is the evaluation stack built from one configuration: the
// locale, its tokenizer, the function table with any script-defined
// functions, the evaluator and the input filter policy. A config reload
// builds a new Calculator and closes the old one.
type Calculator struct {
	Resources *locale.Resources
	Tokenizer *token.Tokenizer
	Env       *arith.Env
	Evaluator *eval.Evaluator
	Policy    filter.Policy

	// Functions lists the functions the script defined.
	Functions []string

	// ScriptErr is why the function script could not be loaded. The
	// calculator still works without the script.
	ScriptErr error

	script *luaplugin.State
}

// NewCalculator builds the evaluation stack for cfg.
func NewCalculator(cfg *config.Config, logger *Logger) (*Calculator, error) {
	if logger == nil {
		logger = NullLogger
	}

	res, err := locale.Load(cfg.Calculator.Locale, cfg.Calculator.LocalizedDigits)
	if err != nil {
		return nil, &InitError{Component: "locale", Err: err}
	}
	tok := token.New(res)

	policy, err := filter.New(cfg.Calculator.FilterPolicy, tok)
	if err != nil {
		return nil, &InitError{Component: "filter", Err: err}
	}

	c := &Calculator{
		Resources: res,
		Tokenizer: tok,
		Env:       arith.NewEnv(),
		Policy:    policy,
	}
	c.Evaluator = eval.New(tok, c.Env)

	if path := cfg.FunctionsPath(); path != "" {
		c.script = luaplugin.NewState()
		c.Functions, c.ScriptErr = c.script.LoadFile(path, c.Env)
		if c.ScriptErr != nil {
			c.ScriptErr = NewOperationError("load", path, c.ScriptErr)
			logger.Warn("function script not loaded", zap.Error(c.ScriptErr))
		} else {
			logger.Info("function script loaded",
				zap.String("path", path),
				zap.Strings("functions", c.Functions),
			)
		}
	}

	logger.Debug("calculator ready",
		zap.Stringer("locale", res.Tag),
		zap.String("policy", policy.Name()),
	)
	return c, nil
}

// Evaluate evaluates a localized expression with no line limit.
func (c *Calculator) Evaluate(expr string) eval.Result {
	return c.Evaluator.Evaluate(expr, 0)
}

// Close releases the script interpreter.
func (c *Calculator) Close() {
	if c.script != nil {
		c.script.Close()
	}
}
