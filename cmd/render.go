package cmd

import (
	"fmt"
	"strings"

	"sqlprep/internal/engine"
	"sqlprep/internal/schema"

	"github.com/spf13/cobra"
)

var showGroups bool

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Print the rendered SQL of a file without executing it",
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
		text, err := pre.Render(ctx, db, args[0], p)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !showGroups {
			fmt.Fprint(out, text)
			return nil
		}
		groups := engine.Split(text)
		for _, g := range groups {
			fmt.Fprintf(out, "-- group %d (line %d)\n%s\n", g.Index, g.Line, g.SQL)
		}
		fmt.Fprintf(out, "-- %d groups\n", len(groups))
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print what templates will see of the target database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		snap, err := schema.Analyze(ctx, db, t.dialect, t.schema, lookupSetting)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🦅 %s (%s)\n", t.config.Name, t.dialect.Name())
		fmt.Fprintf(out, "tables (%d):\n", len(snap.Tables()))
		for i, name := range snap.Tables() {
			fmt.Fprintf(out, "  [%02d] %s\n", i+1, name)
		}
		fmt.Fprintf(out, "partitions: %s\n", strings.Join(snap.Partitions(), ","))
		fmt.Fprintln(out, "tablespaces:")
		for _, area := range schema.Areas {
			clause, _ := snap.Tablespace(area)
			if clause == "" {
				clause = "(default)"
			}
			fmt.Fprintf(out, "  %-14s %s\n", area, clause)
		}
		fmt.Fprintf(out, "reverse only: %v\n", snap.ReverseOnly())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(renderCmd, inspectCmd)

	addParamFlag(renderCmd)
	renderCmd.Flags().BoolVar(&showGroups, "groups", false, "print the statement groups a parallel run would execute")
}
