package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zulandar/storeadmin/internal/analytics"
	"github.com/zulandar/storeadmin/internal/console"
	"golang.org/x/sync/errgroup"
)

func newConsoleCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start the web console",
		Long:  "Launches a local web console with the analytics dashboard and the assistant chat.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 8090, "port to listen on (overrides console.port)")
	return cmd
}

func runConsole(cmd *cobra.Command, configPath string, port int) error {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("port") {
		port = cfg.Console.Port
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	rt, err := newRuntime(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	agg, err := rt.newAggregator()
	if err != nil {
		return err
	}
	ctrl, err := rt.newController()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := agg.Refresh(context.WithoutCancel(ctx)); err != nil {
			rt.logger.Warn("initial analytics refresh failed", "error", err)
		}
		return nil
	})
	if cfg.Analytics.RefreshSchedule != "" {
		sched, err := analytics.NewScheduler(agg, cfg.Analytics.RefreshSchedule, rt.logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return sched.Run(ctx) })
	}
	g.Go(func() error {
		return console.Start(ctx, console.StartOpts{
			Chat:      ctrl,
			Analytics: agg,
			Port:      port,
			Out:       cmd.OutOrStdout(),
			Logger:    rt.logger,
		})
	})
	return g.Wait()
}
