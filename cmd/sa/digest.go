package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/storeadmin/internal/config"
	"github.com/zulandar/storeadmin/internal/digest"
	"github.com/zulandar/storeadmin/internal/digest/discord"
	"github.com/zulandar/storeadmin/internal/digest/slack"
)

func newDigestCmd() *cobra.Command {
	var (
		configPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Post an analytics digest to Slack and Discord",
		Long: `Refreshes analytics once and posts a short digest to every notifier
configured under notify. With --dry-run the digest is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigest(cmd, configPath, dryRun)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest without posting it")
	return cmd
}

func runDigest(cmd *cobra.Command, configPath string, dryRun bool) error {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return err
	}

	var notifiers []digest.Notifier
	if !dryRun {
		notifiers, err = buildNotifiers(cfg.Notify)
		if err != nil {
			return err
		}
		if len(notifiers) == 0 {
			return fmt.Errorf("digest: no notifiers configured (set notify.slack or notify.discord)")
		}
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
	if err := agg.Refresh(ctx); err != nil {
		rt.logger.Warn("analytics refresh failed, sending digest with warning", "error", err)
	}

	d := digest.Build(agg.State(), time.Now())
	if dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", d.Title, d.Body)
		for _, f := range d.Fields {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", f.Name, f.Value)
		}
		return nil
	}
	return digest.Publish(ctx, notifiers, d, rt.logger)
}

// buildNotifiers creates a notifier for every enabled target.
func buildNotifiers(cfg config.NotifyConfig) ([]digest.Notifier, error) {
	var notifiers []digest.Notifier
	if cfg.Slack.Enabled() {
		n, err := slack.NewNotifier(slack.NotifierOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	if cfg.Discord.Enabled() {
		n, err := discord.NewNotifier(discord.NotifierOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
