// Sentence worker entry point: consumes queued sentences from Kafka and
// publishes slot analyses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/altheahfy/Rephrase-Project02-sub007/internal/config"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/messaging/kafka"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/logging"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/infrastructure/monitoring/prometheus"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/depparse"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/intelligence/slotmap"
	httpserver "github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/interfaces/http/handlers"
	"github.com/altheahfy/Rephrase-Project02-sub007/internal/worker"
)

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
)

var version = "dev"

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	consumers := flag.Int("consumers", 0, "consumer group members in this process (default: worker.concurrency)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz, /readyz and /metrics")
	createTopics := flag.Bool("create-topics", false, "create the input, output and dead-letter topics on startup")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if _, statErr := os.Stat(*configPath); statErr == nil {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *consumers > 0 {
		cfg.Worker.Concurrency = *consumers
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *healthPort, *createTopics, logger); err != nil {
		logger.Error("worker failed", logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, healthPort int, createTopics bool, logger logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("starting rephrase worker",
		logging.String("version", version),
		logging.Strings("brokers", cfg.Kafka.Brokers),
		logging.String("input", cfg.Kafka.InputTopic),
		logging.Int("consumers", cfg.Worker.Concurrency))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:       cfg.Metrics.Namespace,
		EnableGoMetrics: true,
	}, logger)
	if err != nil {
		return err
	}
	appMetrics := prometheus.NewAppMetrics(collector)
	grammarMetrics, err := common.NewPrometheusGrammarMetrics(collector.Registerer())
	if err != nil {
		return err
	}

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

	if createTopics {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			return err
		}
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers, Acks: "all"}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = producer.Close() }()

	w, err := worker.New(worker.Config{
		InputTopic:      cfg.Kafka.InputTopic,
		OutputTopic:     cfg.Kafka.OutputTopic,
		DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
		ItemTimeout:     cfg.Worker.ItemTimeout,
	}, engine, producer, appMetrics, logger)
	if err != nil {
		return err
	}

	// Probes and metrics
	healthCfg := cfg.Server
	healthCfg.Port = healthPort
	var checks []handlers.HealthChecker
	if h, ok := parser.(depparse.HealthChecker); ok {
		checks = append(checks, handlers.CheckFunc{Component: "parser:" + parser.Name(), Fn: h.Health})
	}
	healthSrv := httpserver.NewServer(healthCfg, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler(version, appMetrics, checks...),
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	}), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(healthSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return healthSrv.Shutdown(shutdownCtx)
	})

	// Each consumer handles one message at a time; the group spreads
	// partitions across them.
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topics:  []string{cfg.Kafka.InputTopic},
			RetryConfig: kafka.RetryConfig{
				MaxRetries:      cfg.Kafka.MaxRetries,
				RetryBackoff:    time.Second,
				MaxRetryBackoff: 10 * time.Second,
				DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
				Retryable:       worker.Retryable,
			},
		}, logger, kafka.WithDeadLetterPublisher(producer), kafka.WithOutcomeHook(w.Observe))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx, consumer) })
	}

	err = g.Wait()
	logger.Info("worker stopped")
	return err
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer func() { _ = tm.Close() }()
	return tm.EnsureTopics(ctx, kafka.WorkerTopics(cfg.InputTopic, cfg.OutputTopic, cfg.DeadLetterTopic))
}

//Personal.AI order the ending
