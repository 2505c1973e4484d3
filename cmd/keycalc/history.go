package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keycalc/internal/app"
	"github.com/dshills/keycalc/internal/calc/eval"
	"github.com/dshills/keycalc/internal/calc/persist"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var clearHistory bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print or clear the saved history",
		Long: `History prints the expressions saved by the interactive calculator,
oldest first, each with its current result. With --clear the saved history
is emptied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, clearHistory)
		},
	}
	cmd.Flags().BoolVar(&clearHistory, "clear", false, "Empty the saved history")
	return cmd
}

func runHistory(cmd *cobra.Command, opts *globalOptions, clearHistory bool) error {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := cliLogger(cmd, cfg)

	store := persist.NewStore(cfg.HistoryPath(),
		persist.WithLogger(logger.WithComponent("persist").Zap()),
		persist.WithMaxEntries(cfg.History.MaxEntries),
	)
	state := store.Load()
	out := cmd.OutOrStdout()

	if clearHistory {
		state.History.Clear()
		if !store.Save(state) {
			return fmt.Errorf("could not save %s", store.Path())
		}
		fmt.Fprintln(out, "history cleared")
		return nil
	}

	calc, err := app.NewCalculator(cfg, logger)
	if err != nil {
		return err
	}
	defer calc.Close()

	entries := state.History.Entries()
	for _, e := range entries[:len(entries)-1] {
		res := calc.Evaluate(e.Base)
		switch res.Kind {
		case eval.KindValue, eval.KindNaN:
			fmt.Fprintf(out, "%s = %s\n", e.Base, res.Text())
		default:
			fmt.Fprintln(out, e.Base)
		}
	}
	return nil
}
