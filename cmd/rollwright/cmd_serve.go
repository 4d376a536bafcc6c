package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/DaanHessen/rollwright/internal/logger"
	"github.com/DaanHessen/rollwright/internal/server"
	"github.com/DaanHessen/rollwright/internal/ui"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.HTTPPort = port
			}
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			return server.NewServer(a.cfg.HTTPPort, version, svc).Start(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (env HTTP_PORT)")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dice console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// log lines would tear the full screen console
			logger.InitLoggerWithWriter(a.cfg.Logger(), io.Discard)
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			return ui.Run(cmd.Context(), svc, a.cfg, version)
		},
	}
}
