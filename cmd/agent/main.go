// Package main is the entry point to the database telemetry agent.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ottertune/db-agent/internal/cloudaws"
	"github.com/ottertune/db-agent/internal/cloudmetrics"
	"github.com/ottertune/db-agent/internal/collector/factory"
	"github.com/ottertune/db-agent/internal/config"
	"github.com/ottertune/db-agent/internal/health"
	"github.com/ottertune/db-agent/internal/pipeline"
	"github.com/ottertune/db-agent/internal/sink"
	"github.com/ottertune/db-agent/internal/sink/httpsink"
	"github.com/ottertune/db-agent/internal/sink/objectstore"
	"github.com/ottertune/db-agent/internal/supervisor"
)

// agentVersion is stamped at build time via -ldflags; "dev" covers a local
// build that skipped that step.
var agentVersion = "dev"

// tokenMinter and instanceDescriber are the cloud-provider collaborators
// (RDS Describe*, IAM token minting) supplied by the deployment-specific
// build; the open-core agent runs without them.
var (
	tokenMinter       config.TokenMinter
	instanceDescriber config.InstanceDescriber
)

var flags agentFlags

var rootCmd = &cobra.Command{
	Use:   "db-agent",
	Short: "db-agent collects and ships database telemetry to the ingestion service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		populateEnv(cmd)
		return runAgent(cmd)
	},
	SilenceErrors: true,
}

func init() {
	flags.addFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// populateEnv lets any unset flag be filled in from an AGENT_-prefixed
// environment variable.
func populateEnv(cmd *cobra.Command) {
	v := viper.New()
	v.SetEnvPrefix("agent")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			_ = cmd.Flags().Set(f.Name, v.GetString(f.Name))
		}
	})
}

func runAgent(cmd *cobra.Command) error {
	setLogLevel(flags.logVerbosity)
	if flags.machineLogs {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	enableLogStacktrace()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := buildConfig(ctx, cmd)
	if err != nil {
		return errors.Wrap(err, "build initial configuration")
	}

	checkCollectorPermissions(ctx, cfg)

	awsCfg, err := cloudaws.NewConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return errors.Wrap(err, "load aws configuration")
	}
	awsClient := cloudaws.NewClient(awsCfg)

	httpsSink := httpsink.New(httpsink.Config{
		ServerURL:      cfg.ServerURL,
		APIKey:         cfg.APIKey,
		OrganizationID: cfg.OrganizationID,
		AgentVersion:   agentVersion,
	}, logger)

	observationSink, err := buildSink(ctx, cfg, awsClient, httpsSink)
	if err != nil {
		return errors.Wrap(err, "build observation sink")
	}

	var cloudSource *cloudmetrics.Source
	if len(cfg.MetricSource) > 0 {
		cloudSource = cloudmetrics.NewSource(awsClient.Service().CloudWatch, logger)
	}

	pipelineMetrics := pipeline.NewMetrics()
	healthMetrics := health.NewMetrics()

	heartbeat := health.New(httpsSink, healthMetrics, logger, cfg.OrganizationID, cfg.DBKey, agentVersion)

	dispatcher := pipeline.New(
		factory.WithTokenMinter(tokenMinter),
		observationSink,
		cloudSource,
		heartbeat.Queue(),
		pipelineMetrics,
		logger,
		agentVersion,
	)
	dispatcher.SetConfig(cfg)

	metricsServer := startMetricsServer(flags.metricsPort)
	defer func() { _ = metricsServer.Close() }()

	manager := supervisor.NewManager(logger)
	syncJobs(manager, dispatcher, cfg, ctx)

	heartbeatScheduler := supervisor.NewScheduler(heartbeatDoer{heartbeat: heartbeat, ctx: ctx}, time.Duration(cfg.AgentHealthReportIntervalSeconds)*time.Second)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	logger.WithField("db_key", cfg.DBKey).Info("agent started")

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			newCfg, err := buildConfig(ctx, cmd)
			if err != nil {
				logger.WithError(err).Error("reconfiguration failed; keeping previous config")
				continue
			}
			dispatcher.SetConfig(newCfg)
			syncJobs(manager, dispatcher, newCfg, ctx)
			logger.Info("reconfiguration applied")
			continue
		}
		break
	}

	// Stop accepting new ticks and wait for in-flight ones, so every error
	// a closing tick enqueues is still drained into the one terminating
	// heartbeat sent below.
	logger.Info("shutting down")
	manager.Close()
	heartbeat.Terminate()
	heartbeat.Fire(ctx)
	_ = heartbeatScheduler.Close()
	cancel()

	return nil
}

// syncJobs registers or reschedules the five pipeline jobs per the derived
// schedule, and the DB-level job with an immediate first run.
func syncJobs(manager *supervisor.Manager, dispatcher *pipeline.Dispatcher, cfg config.DriverConfig, ctx context.Context) {
	ctxFn := func() context.Context { return ctx }
	doers := dispatcher.Doers(ctxFn)
	schedule := pipeline.Schedule(cfg)

	jobIDs := map[pipeline.Kind]supervisor.Job{
		pipeline.KindDBLevel:          supervisor.JobDBLevel,
		pipeline.KindTableLevel:       supervisor.JobTableLevel,
		pipeline.KindLongRunningQuery: supervisor.JobLongRunningQuery,
		pipeline.KindQuery:            supervisor.JobQuery,
		pipeline.KindSchema:           supervisor.JobSchema,
	}

	for kind, jobID := range jobIDs {
		spec := schedule[kind]
		manager.Sync(jobID, supervisor.Spec{
			Enabled:   spec.Enabled,
			Period:    spec.Period,
			Immediate: spec.Immediate,
		}, doers[kind])
	}
}

func buildConfig(ctx context.Context, cmd *cobra.Command) (config.DriverConfig, error) {
	var file config.FileConfig
	if flags.configFile != "" {
		b, err := os.ReadFile(flags.configFile)
		if err != nil {
			return config.DriverConfig{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(b, &file); err != nil {
			return config.DriverConfig{}, errors.Wrap(err, "decode config file")
		}
	}

	var catalogLoader config.CatalogLoader
	if flags.catalogDir != "" {
		catalogLoader = cloudmetrics.NewCatalogLoader(flags.catalogDir)
	}

	builder := config.NewBuilder(instanceDescriber, tokenMinter, catalogLoader)

	cli := flags.toCLIArgs(cmd)
	env := config.EnvArgs{PostgresDBNames: splitNonEmpty(os.Getenv("POSTGRES_OTTERTUNE_DB_NAME"), ",")}

	return builder.Build(ctx, file, cli, env, config.Override{})
}

// checkCollectorPermissions runs every collection query once at startup and
// logs a grant example for each one the configured user cannot run. A denied
// permission is not fatal: the affected queries simply keep failing on their
// pipeline ticks until the grant is applied.
func checkCollectorPermissions(ctx context.Context, cfg config.DriverConfig) {
	c, err := factory.WithTokenMinter(tokenMinter)(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("could not open a collector for the startup permission check")
		return
	}
	defer func() { _ = c.Close() }()

	result, err := c.CheckPermission(ctx)
	if err != nil {
		logger.WithError(err).Warn("startup permission check failed")
		return
	}
	if !result.OK {
		logger.Warn(result.Summary)
	}
}

// buildSink selects the observation sink by enable_s3. The heartbeat keeps
// using the HTTPS sink either way.
func buildSink(ctx context.Context, cfg config.DriverConfig, awsClient *cloudaws.Client, httpsSink sink.Sink) (sink.Sink, error) {
	if !cfg.EnableS3 {
		return httpsSink, nil
	}

	headers := map[string]string{
		"ApiKey":         cfg.APIKey,
		"organization_id": cfg.OrganizationID,
		"AgentVersion":   agentVersion,
	}
	return objectstore.New(ctx, objectstore.Config{
		Bucket:         cfg.S3BucketName,
		OrganizationID: cfg.OrganizationID,
		DBKey:          cfg.DBKey,
		Region:         cfg.AWSRegion,
	}, awsClient, headers)
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// heartbeatDoer adapts Heartbeat.Fire to supervisor.Doer.
type heartbeatDoer struct {
	heartbeat *health.Heartbeat
	ctx       context.Context
}

func (h heartbeatDoer) Do() error {
	h.heartbeat.Fire(h.ctx)
	return nil
}

func (h heartbeatDoer) Shutdown() {}

// startMetricsServer exposes the process's prometheus counters for local
// scraping; it is ambient observability, not something shipped to the
// ingestion service.
func startMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("metrics server failed")
		}
	}()
	return srv
}

func setLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("unrecognized log-verbosity; defaulting to info")
		return
	}
	logger.SetLevel(lvl)
}
