package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rollwright/internal/store"
	"github.com/DaanHessen/rollwright/internal/text"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently stored rolls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			recs, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			r := a.renderer(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, rec := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.CreatedAt.Local().Format(time.DateTime), rec.Expression, text.Number(rec.Value), r.Trace(rec.Trace))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of rolls to show")
	return cmd
}

func newPresetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage named expressions, rolled as @name",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "save NAME EXPRESSION...",
			Short: "Save or replace a preset",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.service(cmd.Context(), true)
				if err != nil {
					return err
				}
				if err := svc.SavePreset(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved @%s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List presets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := a.service(cmd.Context(), true)
				if err != nil {
					return err
				}
				ps, err := svc.Presets(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, p := range ps {
					fmt.Fprintf(tw, "@%s\t%s\n", p.Name, p.Expression)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a preset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.service(cmd.Context(), true)
				if err != nil {
					return err
				}
				if err := svc.DeletePreset(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted @%s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back one database migration step",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, err := store.NewMigrator(a.cfg.DSN)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
			defer cancel()
			out := cmd.OutOrStdout()
			switch args[0] {
			case "up":
				err = migrator.Up(ctx)
			default:
				err = migrator.Down(ctx)
			}
			if errors.Is(err, store.ErrNoChange) {
				fmt.Fprintln(out, "No change")
				return nil
			}
			if err != nil {
				return err
			}
			if args[0] == "up" {
				fmt.Fprintln(out, "Migrations applied")
			} else {
				fmt.Fprintln(out, "Migrations rolled back")
			}
			return nil
		},
	}
}
