package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/skellyview/internal/config"
	"github.com/vango-dev/skellyview/internal/errors"
	"github.com/vango-dev/skellyview/internal/inspect"
	"github.com/vango-dev/skellyview/internal/playback"
	"github.com/vango-dev/skellyview/internal/telemetry"
	"github.com/vango-dev/skellyview/pkg/store"
)

// serveOptions are the flags of the serve command.
type serveOptions struct {
	configPath string
	addr       string
	fps        float64
	autoplay   bool
	logLevel   string
	noMetrics  bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the registry, playback loop and inspector",
		Long: `Run the shared state registry with its playback loop and HTTP inspector.

Settings come from skellyview.json, then SKELLYVIEW_* environment
variables, then flags.

Examples:
  skellyview serve
  skellyview serve --addr=:8080 --fps=60
  SKELLYVIEW_LOG_LEVEL=debug skellyview serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", config.FileName, "Path to the configuration file")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "Inspector listen address (default from config)")
	cmd.Flags().Float64Var(&opts.fps, "fps", 0, "Initial playback rate (default from config)")
	cmd.Flags().BoolVar(&opts.autoplay, "autoplay", false, "Start playback when frames are loaded")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "Disable the /metrics endpoint")

	return cmd
}

// loadConfig applies file, environment and flags in that order.
func loadConfig(cmd *cobra.Command, opts serveOptions) (*config.Config, error) {
	cfg, err := config.LoadOptional(opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	if opts.addr != "" {
		cfg.Inspector.Addr = opts.addr
	}
	if cmd.Flags().Changed("fps") {
		cfg.Animation.FPS = opts.fps
	}
	if opts.autoplay {
		cfg.Animation.Autoplay = true
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.noMetrics {
		cfg.Metrics.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runServe runs until ctx is cancelled or a component fails.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	regOpts := []store.Option{
		store.WithDefaultFPS(cfg.Animation.FPS),
		store.WithLogger(logger),
	}
	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics(telemetry.WithNamespace(cfg.Metrics.Namespace))
		regOpts = append(regOpts, store.WithObserver(metrics))
	}
	reg := store.NewRegistry(regOpts...)

	player := playback.New(reg.Animation(),
		playback.WithLogger(logger),
		playback.WithAutoplay(cfg.Animation.Autoplay),
	)
	srv := inspect.New(reg, inspect.Config{
		Addr:           cfg.Inspector.Addr,
		AllowedOrigins: cfg.Inspector.AllowedOrigins,
		Metrics:        metrics,
		Logger:         logger,
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	playerDone := make(chan error, 1)
	go func() { playerDone <- player.Run(ctx) }()

	serveErr := srv.ListenAndServe(ctx)
	cancel()
	<-playerDone

	if serveErr != nil {
		return serveError(serveErr, cfg.Inspector.Addr)
	}
	logger.Info("shutdown complete")
	return nil
}

// serveError maps an inspector error onto its code: failures while
// stopping are E201, everything else kept the server from listening.
func serveError(err error, addr string) error {
	if stderrors.Is(err, inspect.ErrShutdown) {
		return errors.FromError(err, errors.CodeServerStop)
	}
	return errors.FromError(err, errors.CodeServerListen).WithDetail(addr)
}
