package main

import (
	"github.com/spf13/cobra"

	"github.com/DaanHessen/rollwright/internal/logger"
	"github.com/DaanHessen/rollwright/internal/util"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "rollwright",
		Short: "Roll dice expressions and explore their probability distributions",
		Long: `rollwright evaluates dice expressions such as "2d6+4", "adv(d20)+5" or
"crit(1d10)+6". It rolls them with a readable trace and computes the exact
(or, for huge expressions, approximate) distribution of outcomes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := util.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.applyFlags()
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			logger.InitLoggerWithWriter(a.cfg.Logger(), cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.seed, "seed", "", "seed text for reproducible rolls (random if omitted; env ROLLWRIGHT_SEED)")
	pf.StringVar(&a.dsn, "dsn", "", "PostgreSQL DSN for history and presets (env DATABASE_URL)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error (env LOG_LEVEL)")
	pf.BoolVar(&a.plain, "plain", false, "never colour output")

	root.AddCommand(
		newRollCmd(a),
		newDistCmd(a),
		newFunctionsCmd(a),
		newTUICmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
		newPresetCmd(a),
		newMigrateCmd(a),
		newVersionCmd(),
	)
	return root
}
