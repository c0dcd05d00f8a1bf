package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/cacheproxy/pkg/admin"
	"mercator-hq/cacheproxy/pkg/cache"
	"mercator-hq/cacheproxy/pkg/cli"
	"mercator-hq/cacheproxy/pkg/config"
	"mercator-hq/cacheproxy/pkg/router"
	"mercator-hq/cacheproxy/pkg/scheduler"
	"mercator-hq/cacheproxy/pkg/server"
	"mercator-hq/cacheproxy/pkg/storage"
	"mercator-hq/cacheproxy/pkg/telemetry/health"
	"mercator-hq/cacheproxy/pkg/telemetry/logging"
	"mercator-hq/cacheproxy/pkg/telemetry/metrics"
	"mercator-hq/cacheproxy/pkg/telemetry/tracing"
	"mercator-hq/cacheproxy/pkg/upstream"
	"mercator-hq/cacheproxy/pkg/wire"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run [port]",
	Short: "Start the proxy server",
	Long: `Start the caching proxy with the specified configuration.

The optional port argument replaces the port of server.listen_address.

Examples:
  # Start with default config on port 8000
  cacheproxy run

  # Start on port 8080
  cacheproxy run 8080

  # Start with custom config
  cacheproxy run --config /etc/cacheproxy/config.yaml

  # Override listen address
  cacheproxy run --listen 127.0.0.1:9000

  # Validate config without starting server
  cacheproxy run --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

// loadRunConfig loads the configuration and applies the command line
// overrides.
func loadRunConfig(args []string) (*config.Config, error) {
	cfg, err := config.LoadConfigOrDefaults(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil || port < 1 || port > 65535 {
			return nil, cli.NewConfigError("port", fmt.Sprintf("invalid port %q", args[0]))
		}
		host, _, err := net.SplitHostPort(cfg.Server.ListenAddress)
		if err != nil {
			host = "0.0.0.0"
		}
		cfg.Server.ListenAddress = net.JoinHostPort(host, args[0])
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(args)
	if err != nil {
		return err
	}
	config.SetConfig(cfg)

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    os.Stderr,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.Install()

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx := cli.SetupSignalHandler(cmd.Context())

	backend, err := storage.Open(storageOptions(&cfg.Storage))
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("open storage: %w", err))
	}
	defer backend.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("start tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.OTLP.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	store := cache.New(cache.Options{
		MaxElementSize: cfg.Cache.MaxElementSize,
		MaxCacheSize:   cfg.Cache.MaxTotalSize,
		Observer:       collector,
	})
	defer store.Clear()

	ln, err := server.Listen(ctx, cfg.Server.ListenAddress, cfg.Server.MaxClients)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	cors := wire.CORS{
		AllowOrigin:  cfg.CORS.AllowOrigin,
		AllowMethods: cfg.CORS.AllowMethods,
		AllowHeaders: cfg.CORS.AllowHeaders,
		MaxAge:       cfg.CORS.MaxAge,
	}

	rt := router.New(router.Options{
		Cache:            store,
		Storage:          backend,
		Dialer:           upstream.NewDialer(cfg.Upstream.ConnectTimeout, cfg.Upstream.IdleTimeout),
		CORS:             cors,
		UserAgent:        cfg.Upstream.UserAgent,
		MaxResponseBytes: cfg.Upstream.MaxResponseBytes,
		MaxFileSize:      cfg.Storage.MaxFileSize,
		Guard:            router.NewLoopGuard(ln.Addr().String()),
		Metrics:          collector,
		Tracer:           tracer,
	})

	srv := server.NewServer(&cfg.Server, rt, server.Options{
		CORS:    cors,
		Metrics: collector,
	})

	sched := scheduler.New(store, scheduler.Config{
		ReportSchedule: cfg.Cache.ReportSchedule,
		FlushSchedule:  cfg.Cache.FlushSchedule,
	})
	if err := sched.Start(ctx); err != nil {
		slog.Warn("failed to start cache scheduler", "error", err)
	} else {
		defer sched.Stop()
	}

	if cfg.Telemetry.Metrics.Enabled {
		adm := startAdmin(cfg, srv, backend, collector)
		if adm != nil {
			defer adm.Shutdown(context.Background())
		}
	}

	watchConfig(ctx, logger)

	fmt.Fprintf(cmd.OutOrStdout(), "cacheproxy %s listening on %s (storage: %s)\n",
		Version, ln.Addr(), cfg.Storage.Backend)

	err = srv.Serve(ctx, ln)
	if err != nil && !errors.Is(err, server.ErrServerClosed) {
		return cli.NewCommandError("run", err)
	}

	// Serve returns as soon as the listener closes; wait for the drain.
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Error("shutdown failed", "error", err)
		return cli.NewCommandError("run", err)
	}

	st := store.Stats()
	slog.Info("server stopped",
		"cache_entries", st.Entries,
		"cache_hits", st.Hits,
		"cache_misses", st.Misses,
		"peak_connections", srv.Permits().Peak(),
	)
	return nil
}

func startAdmin(cfg *config.Config, srv *server.Server, backend storage.Backend, collector *metrics.Collector) *admin.Server {
	checker := health.New(0)
	checker.RegisterCheck("server", func(context.Context) error {
		return srv.Health()
	})
	checker.RegisterCheck("storage", func(ctx context.Context) error {
		_, err := backend.List(ctx)
		return err
	})

	adm := admin.New(admin.Options{
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Metrics:     collector.Handler(),
		Checker:     checker,
		Version:     versionInfo(),
	})

	ln, err := net.Listen("tcp", cfg.Telemetry.Metrics.ListenAddress)
	if err != nil {
		slog.Warn("admin endpoint disabled", "address", cfg.Telemetry.Metrics.ListenAddress, "error", err)
		return nil
	}
	go func() {
		if err := adm.Serve(ln); err != nil {
			slog.Error("admin server failed", "error", err)
		}
	}()
	return adm
}

// watchConfig applies log level changes from the config file, on file
// change and on SIGHUP. A --log-level flag pins the level.
func watchConfig(ctx context.Context, logger *logging.Logger) {
	go func() {
		for range cli.NotifyReload(ctx) {
			if _, err := config.ReloadConfig(cfgFile); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			applyReloadedConfig(logger)
		}
	}()

	if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) {
		return
	}
	w, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, slog.Default())
	if err != nil {
		slog.Warn("config watcher disabled", "error", err)
		return
	}
	go func() {
		defer w.Stop()
		err := w.Watch(ctx, func(cfg *config.Config) {
			config.SetConfig(cfg)
			applyReloadedConfig(logger)
		})
		if err != nil {
			slog.Error("config watcher stopped", "error", err)
		}
	}()
}

// applyReloadedConfig applies the runtime-changeable settings of the current
// global config.
func applyReloadedConfig(logger *logging.Logger) {
	cfg := config.GetConfig()
	if cfg == nil || runFlags.logLevel != "" {
		return
	}
	if err := logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
		slog.Warn("ignoring log level from reloaded config", "error", err)
		return
	}
	slog.Info("log level updated", "level", cfg.Telemetry.Logging.Level)
}
