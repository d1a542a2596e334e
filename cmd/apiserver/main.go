// API server entry point for the Rephrase slot-mapping service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/depparse"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
	httpserver "github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http/handlers"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logging.Sync(logger) }()

	if err := run(cfg, fromFile, logger); err != nil {
		logger.Error("api server failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configFile string, logger logging.Logger) error {
	logger.Info("starting rephrase api server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("parser", cfg.Parser.Provider),
		logging.Bool("cache", cfg.Cache.Enabled))

	// Metrics
	var (
		collector      prometheus.MetricsCollector
		appMetrics     *prometheus.AppMetrics
		grammarMetrics = common.NewNoopGrammarMetrics()
	)
	if cfg.Metrics.Enabled {
		var err error
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return err
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		if grammarMetrics, err = common.NewPrometheusGrammarMetrics(collector.Registerer()); err != nil {
			return err
		}
	}

	// Parser and engine
	parser, release, err := depparse.Build(cfg, grammarMetrics, logger)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	engineCfg, err := slotmap.NewConfig(cfg.Engine.Handlers...)
	if err != nil {
		return err
	}
	engine, err := slotmap.NewEngine(parser,
		engineCfg.WithTrace(cfg.Engine.Trace).WithDiagnostics(cfg.Engine.Diagnostics),
		slotmap.WithLogger(logger.Named("engine")),
		slotmap.WithMetrics(grammarMetrics))
	if err != nil {
		return err
	}
	engines := handlers.NewEngineHolder(engine, appMetrics, logger)

	if configFile != "" {
		watchHandlers(configFile, engines, logger)
	}

	// HTTP
	analyze := handlers.NewAnalyzeHandler(engines, handlers.AnalyzeOptions{
		MaxBatchSize: cfg.Server.MaxBatchSize,
		MaxBodySize:  cfg.Server.MaxBodySize,
		Concurrency:  cfg.Worker.Concurrency,
		ItemTimeout:  cfg.Worker.ItemTimeout,
		Metrics:      grammarMetrics,
	}, logger)

	routerCfg := httpserver.RouterConfig{
		AnalyzeHandler:  analyze,
		RegistryHandler: handlers.NewRegistryHandler(engines, logger),
		HealthHandler:   handlers.NewHealthHandler(version, appMetrics, readinessChecks(parser)...),
		CORS:            middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins)),
		Logging:         middleware.RequestLogging(logger, appMetrics, middleware.DefaultLoggingConfig()),
		RequestTimeout:  cfg.Server.WriteTimeout,
	}
	if collector != nil {
		routerCfg.MetricsCollector = collector
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		limiter := middleware.NewKeyedLimiter(rl.RequestsPerSecond, rl.Burst, 10*time.Minute)
		defer limiter.Stop()
		routerCfg.RateLimit = middleware.RateLimit(limiter, middleware.DefaultRateLimitConfig(), appMetrics)
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", logging.Err(err))
	}
	if err := analyze.Shutdown(ctx); err != nil {
		logger.Error("batch processor shutdown error", logging.Err(err))
	}
	logger.Info("api server stopped")
	return nil
}

// watchHandlers swaps in a new engine whenever engine.handlers changes on
// disk.  Other sections need a restart.
func watchHandlers(path string, engines *handlers.EngineHolder, logger logging.Logger) {
	err := config.Watch(path, func(next *config.Config, e fsnotify.Event) {
		e2, err := engines.ApplyHandlers(handlers.ReloadSourceConfig, next.Engine.Handlers)
		if err != nil {
			logger.Warn("handler reload rejected", logging.String("file", e.Name), logging.Err(err))
			return
		}
		logger.Info("handler set reloaded", logging.Strings("active", e2.ListActiveHandlers()))
	}, func(err error) {
		logger.Warn("config reload failed", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

// loadConfig reads path when it exists and falls back to the environment.
// The returned file name is empty when no file was read.
func loadConfig(path string) (*config.Config, string, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	cfg, err := config.LoadFromEnv()
	return cfg, "", err
}

//Personal.AI order the ending
