package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/keycalc/internal/app"
	"github.com/dshills/keycalc/internal/calc/eval"
)

// errEvaluation is returned when an expression does not evaluate to a
// number.
var errEvaluation = errors.New("evaluation failed")

func newEvalCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval EXPR...",
		Short: "Evaluate an expression and print the result",
		Long: `Evaluate joins its arguments into one expression, evaluates it in the
configured locale and prints the result. ASCII operators and the decimal
point are always accepted; localized glyphs are accepted too.`,
		Example: `  keycalc eval '2*(3+4)'
  keycalc --locale de-DE eval 1,5+1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, strings.Join(args, " "))
		},
	}
}

func runEval(cmd *cobra.Command, opts *globalOptions, expr string) error {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return err
	}

	calc, err := app.NewCalculator(cfg, cliLogger(cmd, cfg))
	if err != nil {
		return err
	}
	defer calc.Close()

	res := calc.Evaluate(expr)
	switch res.Kind {
	case eval.KindEmpty:
		return nil
	case eval.KindValue:
		fmt.Fprintln(cmd.OutOrStdout(), res.Value)
		return nil
	default:
		return fmt.Errorf("%w: %s", errEvaluation, res.Error)
	}
}
