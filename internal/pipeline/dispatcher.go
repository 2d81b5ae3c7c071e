// Package pipeline implements the dispatcher: for each of the five
// collection kinds it opens a collector scoped to the tick, collects the
// relevant payload, optionally merges cloud-provider metrics, and hands
// the result to a sink. Every error is caught here, classified, and
// enqueued on the shared error queue; a tick never propagates a failure
// to the Scheduler.
package pipeline

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ottertune/db-agent/internal/cloudmetrics"
	"github.com/ottertune/db-agent/internal/collector"
	"github.com/ottertune/db-agent/internal/config"
	"github.com/ottertune/db-agent/internal/errqueue"
	"github.com/ottertune/db-agent/internal/model"
	"github.com/ottertune/db-agent/internal/sink"
)

// Kind names one of the five collection pipelines the Scheduler drives.
// It reuses the sink.Kind string space so job ids and shipping kinds
// never drift apart.
type Kind = sink.Kind

const (
	KindDBLevel          = sink.KindDBLevel
	KindTableLevel       = sink.KindTableLevel
	KindLongRunningQuery = sink.KindLongRunningQuery
	KindQuery            = sink.KindQuery
	KindSchema           = sink.KindSchema
)

// CollectorFactory opens a collector.Collector for the given resolved
// config, scoped to a single dispatcher invocation.
type CollectorFactory func(ctx context.Context, cfg config.DriverConfig, log logrus.FieldLogger) (collector.Collector, error)

// Dispatcher owns the five collect-then-ship functions. A single Dispatcher
// is shared by every scheduled job; config is read through an atomic
// pointer so a live reconfiguration is visible to the next tick without
// locking.
type Dispatcher struct {
	cfg atomic.Pointer[config.DriverConfig]

	newCollector CollectorFactory
	sink         sink.Sink
	cloudSource  *cloudmetrics.Source
	queue        *errqueue.Queue
	metrics      *Metrics
	log          logrus.FieldLogger
	agentVersion string

	now func() time.Time
}

// New builds a Dispatcher. cloudSource may be nil when no cloud-metrics
// catalog entries were resolved for this target, in which case the
// cloud-metrics merge is simply skipped on every DB-level tick.
func New(
	newCollector CollectorFactory,
	observationSink sink.Sink,
	cloudSource *cloudmetrics.Source,
	queue *errqueue.Queue,
	metrics *Metrics,
	log logrus.FieldLogger,
	agentVersion string,
) *Dispatcher {
	d := &Dispatcher{
		newCollector: newCollector,
		sink:         observationSink,
		cloudSource:  cloudSource,
		queue:        queue,
		metrics:      metrics,
		log:          log,
		agentVersion: agentVersion,
		now:          time.Now,
	}
	return d
}

// SetConfig atomically swaps the config every tick reads next: config is
// read-only after build, and replacement is atomic. Called by the
// reconfiguration path before the Scheduler is notified of new intervals.
func (d *Dispatcher) SetConfig(cfg config.DriverConfig) {
	c := cfg
	d.cfg.Store(&c)
}

// Config returns the config snapshot the next tick will use.
func (d *Dispatcher) Config() config.DriverConfig {
	cfg := d.cfg.Load()
	if cfg == nil {
		return config.DriverConfig{}
	}
	return *cfg
}

// Doer adapts one named collect-then-ship function to supervisor.Doer so it
// can be driven by a Scheduler. Shutdown is a no-op: an in-flight tick runs
// to completion under the context returned by the caller's factory.
type Doer struct {
	kind Kind
	run  func(ctx context.Context) error
	ctx  func() context.Context
}

func (j *Doer) Do() error {
	return j.run(j.ctx())
}

func (j *Doer) Shutdown() {}

// Doers returns the five per-kind job wrappers, each bound to a
// context.Context factory, so the caller controls cancellation on
// shutdown: stop accepting new ticks, let in-flight ticks finish.
func (d *Dispatcher) Doers(ctxFn func() context.Context) map[Kind]*Doer {
	return map[Kind]*Doer{
		KindDBLevel:          {kind: KindDBLevel, run: d.RunDBLevel, ctx: ctxFn},
		KindTableLevel:       {kind: KindTableLevel, run: d.RunTableLevel, ctx: ctxFn},
		KindLongRunningQuery: {kind: KindLongRunningQuery, run: d.RunLongRunningQuery, ctx: ctxFn},
		KindQuery:            {kind: KindQuery, run: d.RunQuery, ctx: ctxFn},
		KindSchema:           {kind: KindSchema, run: d.RunSchema, ctx: ctxFn},
	}
}

// RunDBLevel collects knobs, metrics, and row-count stats, merges cloud
// metrics into metrics_data.global, and ships a DBLevelObservation.
func (d *Dispatcher) RunDBLevel(ctx context.Context) error {
	return d.run(ctx, KindDBLevel, func(ctx context.Context, cfg config.DriverConfig, c collector.Collector, observationTime int64) (any, error) {
		knobs, err := c.CollectKnobs(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "collect knobs")
		}

		metricsData, err := c.CollectMetrics(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "collect metrics")
		}

		rowStats, err := c.CollectTableRowNumberStats(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "collect table row-number stats")
		}

		d.mergeCloudMetrics(ctx, cfg, metricsData)

		return model.DBLevelObservation{
			OrganizationID:  cfg.OrganizationID,
			DBKey:           cfg.DBKey,
			Summary:         model.Summary{Version: d.agentVersion, ObservationTime: observationTime},
			KnobsData:       knobs,
			MetricsData:     metricsData,
			RowNumStats:     rowNumberStatsToMap(rowStats),
			NonDefaultKnobs: cfg.DBNonDefaultParameters,
		}, nil
	})
}

// RunTableLevel collects table-level and/or index-level metrics depending on
// which of the two is enabled — table-level runs when either table or index
// stats is enabled — sharing one GetTargetTableInfo call between them.
func (d *Dispatcher) RunTableLevel(ctx context.Context) error {
	return d.run(ctx, KindTableLevel, func(ctx context.Context, cfg config.DriverConfig, c collector.Collector, observationTime int64) (any, error) {
		if cfg.DisableTableLevelStats && cfg.DisableIndexStats {
			return nil, nil
		}

		info, err := c.GetTargetTableInfo(ctx, cfg.NumTableToCollectStats)
		if err != nil {
			return nil, errors.Wrap(err, "get target table info")
		}

		data := map[string]model.Tabular{}

		if !cfg.DisableTableLevelStats {
			tableMetrics, err := c.CollectTableLevelMetrics(ctx, info)
			if err != nil {
				return nil, errors.Wrap(err, "collect table-level metrics")
			}
			for name, t := range tableMetrics {
				data[name] = t
			}
		}

		if !cfg.DisableIndexStats {
			indexMetrics, err := c.CollectIndexMetrics(ctx, info, cfg.NumIndexToCollectStats)
			if err != nil {
				return nil, errors.Wrap(err, "collect index metrics")
			}
			for name, t := range indexMetrics {
				data[name] = t
			}
		}

		return model.TableLevelObservation{
			OrganizationID: cfg.OrganizationID,
			DBKey:          cfg.DBKey,
			Summary:        model.Summary{Version: d.agentVersion, ObservationTime: observationTime},
			Data:           data,
		}, nil
	})
}

// RunLongRunningQuery ships the engine's current-activity view, keyed
// "pg_stat_activity" for both engines.
func (d *Dispatcher) RunLongRunningQuery(ctx context.Context) error {
	return d.run(ctx, KindLongRunningQuery, func(ctx context.Context, cfg config.DriverConfig, c collector.Collector, observationTime int64) (any, error) {
		if cfg.DisableLongRunningQueryMonitoring {
			return nil, nil
		}

		table, err := c.CollectLongRunningQuery(ctx, cfg.NumQueryToCollect, cfg.LRQueryLatencyThresholdMin)
		if err != nil {
			return nil, errors.Wrap(err, "collect long-running query activity")
		}

		return model.LongRunningQueryObservation{
			OrganizationID: cfg.OrganizationID,
			DBKey:          cfg.DBKey,
			Summary:        model.Summary{Version: d.agentVersion, ObservationTime: observationTime},
			Data:           map[string]model.Tabular{"pg_stat_activity": table},
		}, nil
	})
}

// RunQuery ships the engine's statement-digest view, keyed by engine family.
func (d *Dispatcher) RunQuery(ctx context.Context) error {
	return d.run(ctx, KindQuery, func(ctx context.Context, cfg config.DriverConfig, c collector.Collector, observationTime int64) (any, error) {
		if cfg.DisableQueryMonitoring {
			return nil, nil
		}

		table, err := c.CollectQueryMetrics(ctx, cfg.NumQueryToCollect)
		if err != nil {
			return nil, errors.Wrap(err, "collect query metrics")
		}

		return model.QueryObservation{
			OrganizationID: cfg.OrganizationID,
			DBKey:          cfg.DBKey,
			Summary:        model.Summary{Version: d.agentVersion, ObservationTime: observationTime},
			Data:           map[string]model.Tabular{queryDigestKey(cfg.DBType): table},
		}, nil
	})
}

// RunSchema ships the six schema description sub-payloads.
func (d *Dispatcher) RunSchema(ctx context.Context) error {
	return d.run(ctx, KindSchema, func(ctx context.Context, cfg config.DriverConfig, c collector.Collector, observationTime int64) (any, error) {
		if cfg.DisableSchemaMonitoring {
			return nil, nil
		}

		data, err := c.CollectSchema(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "collect schema")
		}

		return model.SchemaObservation{
			OrganizationID: cfg.OrganizationID,
			DBKey:          cfg.DBKey,
			Summary:        model.Summary{Version: d.agentVersion, ObservationTime: observationTime},
			Data:           data,
		}, nil
	})
}

// collectFn produces the payload to ship, or (nil, nil) to skip shipping
// entirely (the tick's feature is disabled in the current config, e.g.
// table-level when both table and index stats are disabled).
type collectFn func(ctx context.Context, cfg config.DriverConfig, c collector.Collector, observationTime int64) (any, error)

// run implements the shared collect -> merge-cloud -> ship skeleton with
// an error-capture boundary: every failure is classified, logged, and
// enqueued; the tick itself never returns an error the Scheduler would
// need to handle specially.
func (d *Dispatcher) run(ctx context.Context, kind Kind, fn collectFn) error {
	log := d.log.WithField("kind", string(kind))
	d.metrics.TicksRun.WithLabelValues(string(kind)).Inc()

	cfg := d.Config()
	observationTime := d.now().Unix()

	c, err := d.newCollector(ctx, cfg, log)
	if err != nil {
		d.fail(log, kind, model.NewAgentError(classifyKind(err), "open collector", err))
		return nil
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			log.WithError(cerr).Warn("failed to close collector connection")
		}
	}()

	payload, err := fn(ctx, cfg, c, observationTime)
	if err != nil {
		d.fail(log, kind, model.NewAgentError(model.KindCollectorQueryFailed, "collect", err))
		return nil
	}
	if payload == nil {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.fail(log, kind, model.NewAgentError(model.KindSerializationFailed, "marshal payload", err))
		return nil
	}

	if err := d.sink.Ship(ctx, kind, body); err != nil {
		d.fail(log, kind, model.NewAgentError(model.KindSinkRejected, "ship payload", err))
		return nil
	}

	return nil
}

func (d *Dispatcher) fail(log logrus.FieldLogger, kind Kind, err *model.AgentError) {
	d.metrics.TicksFailed.WithLabelValues(string(kind)).Inc()
	log.WithError(err).Error("pipeline tick failed")
	d.queue.Add(err, err.Kind.String())
}

// mergeCloudMetrics merges the most recent cloud-provider metrics into
// metrics_data.global.{source_tag}. A failure here is logged and enqueued
// but never fails the DB-level tick itself: the DB-level payload collected
// locally is still worth shipping even without the cloud join.
func (d *Dispatcher) mergeCloudMetrics(ctx context.Context, cfg config.DriverConfig, metricsData map[string]any) {
	if d.cloudSource == nil || len(cfg.MetricSource) == 0 {
		return
	}

	global, _ := metricsData["global"].(map[string]any)
	if global == nil {
		global = map[string]any{}
		metricsData["global"] = global
	}

	req := cloudmetrics.Request{
		DBIdentifier:        cfg.DBIdentifier,
		DBClusterIdentifier: cfg.DBClusterIdentifier,
		InstanceMetrics:     cfg.MetricsToRetrieveFromSource["instance_metrics"],
		ClusterMetrics:      cfg.MetricsToRetrieveFromSource["cluster_metrics"],
	}

	values, err := d.cloudSource.Collect(ctx, req)
	if err != nil {
		d.queue.Add(model.NewAgentError(model.KindCloudMonitorFailed, "collect cloud metrics", err), model.KindCloudMonitorFailed.String())
		d.log.WithError(err).Warn("cloud metrics collection failed; shipping db-level payload without it")
		return
	}

	for _, tag := range cfg.MetricSource {
		global[tag] = values
	}
}

func queryDigestKey(dbType config.DBType) string {
	switch dbType {
	case config.DBTypeMySQL, config.DBTypeAuroraMySQL:
		return "events_statements_summary_by_digest"
	default:
		return "pg_stat_statements"
	}
}

func rowNumberStatsToMap(s collector.RowNumberStats) map[string]any {
	m := map[string]any{
		"num_tables":                          s.NumTables,
		"num_empty_tables":                    s.NumEmptyTables,
		"num_tables_row_count_0_10k":          s.NumTablesRowCount0To10K,
		"num_tables_row_count_10k_100k":       s.NumTablesRowCount10KTo100K,
		"num_tables_row_count_100k_1m":        s.NumTablesRowCount100KTo1M,
		"num_tables_row_count_1m_10m":         s.NumTablesRowCount1MTo10M,
		"num_tables_row_count_10m_100m":       s.NumTablesRowCount10MTo100M,
		"num_tables_row_count_100m_inf":       s.NumTablesRowCount100MToInf,
	}
	if s.MaxRowNum != nil {
		m["max_row_num"] = *s.MaxRowNum
	} else {
		m["max_row_num"] = nil
	}
	if s.MinRowNum != nil {
		m["min_row_num"] = *s.MinRowNum
	} else {
		m["min_row_num"] = nil
	}
	return m
}

// classifyKind distinguishes network-level failures from other collector
// errors, handling them as a distinct category for logging, by walking the
// cause chain for a net.Error.
func classifyKind(err error) model.Kind {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.KindNetworkError
	}
	return model.KindExternalDependencyFailed
}
