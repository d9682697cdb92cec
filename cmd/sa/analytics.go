package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zulandar/storeadmin/internal/analytics"
)

// defaultWatchSchedule is used by --watch when no schedule is configured.
const defaultWatchSchedule = "@every 1m"

func newAnalyticsCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
		asJSON     bool
		schedule   string
	)

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show the store analytics dashboard",
		Long: `Fetches all analytics resources and renders the dashboard.
Resources that fail keep their previous values; the command fails only
when the analytics service cannot be reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(cmd, configPath, watch, asJSON, schedule)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing on the configured schedule")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule for --watch (overrides analytics.refresh_schedule)")
	return cmd
}

func runAnalytics(cmd *cobra.Command, configPath string, watch, asJSON bool, schedule string) error {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
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

	out := cmd.OutOrStdout()
	refreshErr := agg.Refresh(ctx)
	if err := printAnalytics(out, agg.State(), asJSON); err != nil {
		return err
	}
	if !watch {
		return refreshErr
	}

	if schedule == "" {
		schedule = cfg.Analytics.RefreshSchedule
	}
	if schedule == "" {
		schedule = defaultWatchSchedule
	}
	sched, err := analytics.NewScheduler(agg, schedule, rt.logger)
	if err != nil {
		return err
	}

	updates, unsubscribe := agg.Subscribe()
	defer unsubscribe()
	go sched.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-updates:
			st := agg.State()
			if st.Loading {
				continue
			}
			if !asJSON {
				fmt.Fprint(out, "\033[H\033[2J")
			}
			if err := printAnalytics(out, st, asJSON); err != nil {
				return err
			}
		}
	}
}

func printAnalytics(w io.Writer, st analytics.State, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	fmt.Fprint(w, renderAnalytics(st))
	return nil
}
