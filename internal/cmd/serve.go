package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/core/engine"
	"github.com/chatlens/chatlens/internal/core/store"
	errwrap "github.com/chatlens/chatlens/internal/errors"
	"github.com/chatlens/chatlens/internal/genai"
	"github.com/chatlens/chatlens/internal/observability"
	"github.com/chatlens/chatlens/internal/server"
	"github.com/chatlens/chatlens/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for signal system
type signalHealthChecker struct{}

func (s signalHealthChecker) CheckHealth(ctx context.Context) error {
	return nil // Signal handlers are registered and ready
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// storeHealthChecker verifies the exchange store is reachable
type storeHealthChecker struct {
	db *store.Store
}

func (s storeHealthChecker) CheckHealth(ctx context.Context) error {
	if s.db == nil || s.db.DB == nil {
		return errwrap.NewDatabaseError("exchange store not initialized")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.DB.PingContext(pingCtx); err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "exchange store unreachable")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long: `Start the HTTP chat server with graceful shutdown support.

The server exposes the chat page at /, the chat API under /api/, health
probes under /health, and Prometheus metrics at /metrics.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (placeholder - restart recommended)

The server will cleanly shut down the HTTP server, close the exchange
store, and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Get app identity for telemetry namespace
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		// Initialize server logger with namespace
		logLevel := viper.GetString("logging.level")
		observability.InitServerLogger(identity.BinaryName, logLevel, namespace)

		cfg, err := config.Load(ctx, cfgFile)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "config load failed")
		}

		host := serverHost
		if !cmd.Flags().Changed("host") {
			host = cfg.Server.Host
		}
		port := serverPort
		if !cmd.Flags().Changed("port") {
			port = cfg.Server.Port
		}

		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}

		// Initialize metrics with namespace
		if err := observability.InitMetrics(identity.BinaryName, metricsPort, namespace); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics",
				zap.Error(err))
			return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", host),
			zap.Int("port", port),
			zap.Int("metrics_port", metricsPort))

		// Open exchange store. A store failure is not fatal: the server
		// keeps serving chat without persistence and the exchange_store
		// health check reports it as degraded.
		db, err := store.Open(ctx, cfg.Store)
		if err != nil {
			observability.ServerLogger.Warn("Failed to open exchange store; continuing without persistence",
				zap.Error(err))
			db = nil
		} else if err := db.Migrate(ctx); err != nil {
			observability.ServerLogger.Warn("Failed to migrate exchange store; continuing without persistence",
				zap.Error(err))
			_ = db.Close()
			db = nil
		}

		if db != nil && cfg.History.Retention > 0 {
			cutoff := time.Now().UTC().Add(-cfg.History.Retention)
			if removed, err := db.PurgeExchanges(ctx, cutoff); err != nil {
				observability.ServerLogger.Warn("Failed to purge expired exchanges",
					zap.Error(err))
			} else if removed > 0 {
				observability.ServerLogger.Info("Purged expired exchanges",
					zap.Int64("removed", removed),
					zap.Duration("retention", cfg.History.Retention))
			}
		}

		// Build provider client
		client, err := genai.NewClient(cfg.GenAI)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return errwrap.WrapConfigInvalid(ctx, err, "failed to configure provider client")
		}

		// Build admission controller and dispatcher
		controller := engine.NewController(engine.ControllerConfig{
			MaxRequests: cfg.Admission.MaxRequests,
			Window:      cfg.Admission.Window,
			MaxKeys:     cfg.Admission.MaxKeys,
		})
		var recorder engine.ExchangeRecorder
		if db != nil {
			recorder = db
		}
		dispatcher := engine.NewDispatcher(controller, client, recorder, observability.ServerLogger, engine.DispatcherConfig{
			Timeout: cfg.GenAI.Timeout,
		})

		observability.ServerLogger.Info("Admission control configured",
			zap.Int("max_requests", cfg.Admission.MaxRequests),
			zap.Duration("window", cfg.Admission.Window),
			zap.Int("max_keys", cfg.Admission.MaxKeys),
			zap.String("provider", client.Provider()),
			zap.String("model", client.Model()))

		// Inject handler dependencies
		handlers.SetChatService(dispatcher)
		if db != nil {
			handlers.SetHistoryLister(db, cfg.History.DefaultLimit)
		}
		handlers.SetModelLister(client)
		handlers.SetAppIdentity(identity)

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		hm.RegisterChecker("exchange_store", storeHealthChecker{db: db})
		hm.RegisterChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})

		// Create server
		srv := server.New(host, port)

		// Get shutdown timeout from config
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 2: Close exchange store
		signals.OnShutdown(func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			observability.ServerLogger.Info("Closing exchange store...")
			if err := db.Close(); err != nil {
				observability.ServerLogger.Warn("Exchange store close returned error",
					zap.Error(err))
			}
			return nil
		})

		// Handler 3: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			if _, err := config.Load(ctx, cfgFile); err != nil {
				observability.ServerLogger.Error("Failed to reload config",
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully")

			// Admission window and provider settings are fixed at startup; a
			// restart is required for those to take effect.
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", host),
				zap.Int("port", port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(ctx); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
