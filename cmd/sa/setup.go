package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/storeadmin/internal/analytics"
	"github.com/zulandar/storeadmin/internal/chat"
	"github.com/zulandar/storeadmin/internal/config"
	"github.com/zulandar/storeadmin/internal/telemetry"
)

// addConfigFlag registers the shared --config flag.
func addConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVarP(path, "config", "c", config.DefaultPath, "path to Storeadmin config file")
}

// loadConfig reads .env, then the config file. A missing file is only an
// error when --config was given explicitly.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// runtime bundles the ambient services every command needs.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	providers *telemetry.Providers
	client    *http.Client
	closeLog  io.Closer
}

// newRuntime builds the logger, telemetry providers and HTTP client from
// cfg. Logs go to stderr unless log.file is set.
func newRuntime(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*runtime, error) {
	logger, closer, err := telemetry.NewLogger(telemetry.LogOpts{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Out:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	providers, err := telemetry.Init(ctx, cfg.Log.TelemetryDir)
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		providers: providers,
		client:    &http.Client{Timeout: cfg.HTTPTimeout()},
		closeLog:  closer,
	}, nil
}

// Close flushes telemetry and releases the log file.
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.providers.Shutdown(ctx); err != nil {
		rt.logger.Warn("telemetry shutdown failed", "error", err)
	}
	rt.closeLog.Close()
}

func (rt *runtime) newAggregator() (*analytics.Aggregator, error) {
	src, err := analytics.NewHTTPSource(rt.cfg.AnalyticsURL(), rt.client)
	if err != nil {
		return nil, err
	}
	return analytics.NewAggregator(analytics.AggregatorOpts{
		Source: src,
		Logger: rt.logger,
		Tracer: rt.providers.Tracer,
		Meter:  rt.providers.Meter,
	})
}

func (rt *runtime) newController() (*chat.Controller, error) {
	assistant, err := chat.NewHTTPAssistant(rt.cfg.ChatURL(), rt.client)
	if err != nil {
		return nil, err
	}
	return chat.NewController(chat.ControllerOpts{
		Assistant:    assistant,
		Logger:       rt.logger,
		Tracer:       rt.providers.Tracer,
		Meter:        rt.providers.Meter,
		Greeting:     rt.cfg.GreetingEnabled(),
		ReplyTimeout: rt.cfg.ReplyTimeout(),
	})
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(cmd.Context())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.ErrOrStderr(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
