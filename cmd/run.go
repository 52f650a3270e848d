package cmd

import (
	"errors"
	"fmt"
	"time"

	"sqlprep/internal/apperr"
	"sqlprep/internal/engine"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Render a file and execute it as one batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseParams(params)
		if err != nil {
			return err
		}
		t, err := resolveTarget()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, err := t.connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		pre, err := t.preprocessor()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🦅 Running %s on %s (%s)\n", args[0], t.config.Name, t.config.Driver)
		start := time.Now()
		if err := pre.Run(ctx, db, args[0], p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Done! Time Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var runParallelCmd = &cobra.Command{
	Use:   "run-parallel <file>",
	Short: "Render a file and run its statement groups on several connections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseParams(params)
		if err != nil {
			return err
		}
		t, err := resolveTarget()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		// Fail early on bad credentials and settle the schema name.
		db, err := t.connect(ctx)
		if err != nil {
			return err
		}
		db.Close()

		var (
			bar   *uiprogress.Bar
			total int
		)
		progress := uiprogress.New()
		progress.SetOut(cmd.ErrOrStderr())
		onSplit := func(groups []engine.Group) {
			total = len(groups)
			bar = progress.AddBar(total).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return fmt.Sprintf("Groups %d/%d: ", b.Current(), total)
			})
			progress.Start()
		}
		onDone := func(engine.GroupResult) { bar.Incr() }

		pre, err := t.preprocessorWith(onSplit, onDone)
		if err != nil {
			return err
		}

		threads := viper.GetInt("threads")
		start := time.Now()
		err = pre.RunParallel(ctx, t.config.DSN, args[0], threads, p)
		if bar != nil {
			progress.Stop()
		}

		out := cmd.OutOrStdout()
		var agg *apperr.AggregateExecutionError
		if errors.As(err, &agg) {
			fmt.Fprintf(out, "\n📊 %d/%d groups failed:\n", len(agg.Failures), agg.Total)
			for _, f := range agg.Failures {
				fmt.Fprintf(out, "[!] group %02d: %s\n", f.Group, apperr.Describe(f.Err))
			}
			return err
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n📊 %d groups on %d threads, Time Elapsed: %s\n", total, engine.ClampWorkers(threads, total), time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(runCmd, runParallelCmd)

	addParamFlag(runCmd)
	addParamFlag(runParallelCmd)

	runParallelCmd.Flags().Int("threads", 0, "number of worker connections (overrides config)")
	viper.BindPFlag("threads", runParallelCmd.Flags().Lookup("threads"))
}
