package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rollwright/internal/logger"
	"github.com/DaanHessen/rollwright/internal/text"
)

func newRollCmd(a *app) *cobra.Command {
	var times int
	cmd := &cobra.Command{
		Use:   "roll EXPRESSION...",
		Short: "Roll an expression and print the value with its trace",
		Example: `  rollwright roll 2d6+4
  rollwright roll "atk(2d6+3, 1d6, 6, 15, 1)" --times 3
  rollwright roll @greatsword`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if times < 1 {
				return fmt.Errorf("--times must be at least 1")
			}
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r := a.renderer(out)
			expr := strings.Join(args, " ")
			for i := 0; i < times; i++ {
				// fixed ids keep "--seed x roll ..." reproducible across runs
				ctx := logger.WithRequestID(cmd.Context(), fmt.Sprintf("cli-%d", i+1))
				res, err := svc.Roll(ctx, expr)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s = %s\n  %s\n", res.Canonical, text.Number(res.Value), r.Trace(res.Trace))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "number of rolls")
	return cmd
}

func newDistCmd(a *app) *cobra.Command {
	var (
		target int
		width  int
	)
	cmd := &cobra.Command{
		Use:   "dist EXPRESSION...",
		Short: "Print the probability distribution of an expression",
		Example: `  rollwright dist 4d6kh3
  rollwright dist "adv(d20)+5" --target 15`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			var t *int
			if cmd.Flags().Changed("target") {
				t = &target
			}
			res, err := svc.Distribution(cmd.Context(), strings.Join(args, " "), t)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r := a.renderer(out)
			view := res.View()
			fmt.Fprintln(out, res.Canonical)
			fmt.Fprintln(out, r.Summary(view))
			fmt.Fprint(out, r.Chart(view, width))
			if res.Pruned > 0 {
				fmt.Fprintf(out, "(%s outcomes under 1/1000 of the peak not shown)\n", text.Number(res.Pruned))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&target, "target", "t", 0, "show the chance of reaching at least this value")
	cmd.Flags().IntVarP(&width, "width", "w", text.DefaultChartWidth, "chart width in columns")
	return cmd
}

func newFunctionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the functions usable in expressions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.plain || !isTerminal(out) {
				fmt.Fprint(out, text.DocsMarkdown(svc.Functions()))
				return nil
			}
			fmt.Fprint(out, text.Docs(svc.Functions(), 100))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rollwright", version)
		},
	}
}
