package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottertune/db-agent/internal/collector"
	"github.com/ottertune/db-agent/internal/config"
	"github.com/ottertune/db-agent/internal/errqueue"
	"github.com/ottertune/db-agent/internal/model"
	"github.com/ottertune/db-agent/internal/pipeline"
	"github.com/ottertune/db-agent/internal/sink"
)

// fakeCollector is a minimal collector.Collector whose per-method error can
// be toggled, so tests can exercise both the happy path and the
// catch-classify-enqueue boundary without a real database.
type fakeCollector struct {
	closed   bool
	closeErr error
	failWith error
}

func (f *fakeCollector) CheckPermission(ctx context.Context) (collector.PermissionResult, error) {
	return collector.PermissionResult{}, nil
}
func (f *fakeCollector) CollectKnobs(ctx context.Context) (map[string]any, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return map[string]any{"max_connections": 100}, nil
}
func (f *fakeCollector) CollectMetrics(ctx context.Context) (map[string]any, error) {
	return map[string]any{"global": map[string]any{}}, nil
}
func (f *fakeCollector) CollectTableRowNumberStats(ctx context.Context) (collector.RowNumberStats, error) {
	return collector.RowNumberStats{NumTables: 3}, nil
}
func (f *fakeCollector) GetTargetTableInfo(ctx context.Context, numTables int) (map[string]collector.TargetTableInfo, error) {
	return map[string]collector.TargetTableInfo{"mydb": {TargetTables: []string{"t1"}}}, nil
}
func (f *fakeCollector) CollectTableLevelMetrics(ctx context.Context, info map[string]collector.TargetTableInfo) (collector.TableLevelMetrics, error) {
	return collector.TableLevelMetrics{"pg_stat_user_tables": model.NewTabular([]string{"relname"}, nil)}, nil
}
func (f *fakeCollector) CollectIndexMetrics(ctx context.Context, info map[string]collector.TargetTableInfo, numIndexes int) (collector.IndexMetrics, error) {
	return collector.IndexMetrics{"pg_stat_user_indexes": model.NewTabular([]string{"indexrelname"}, nil)}, nil
}
func (f *fakeCollector) CollectQueryMetrics(ctx context.Context, numQueries int) (model.Tabular, error) {
	return model.NewTabular([]string{"query"}, nil), nil
}
func (f *fakeCollector) CollectLongRunningQuery(ctx context.Context, numQueries int, thresholdMinutes int) (model.Tabular, error) {
	return model.NewTabular([]string{"pid"}, nil), nil
}
func (f *fakeCollector) CollectSchema(ctx context.Context) (map[string]model.Tabular, error) {
	return map[string]model.Tabular{"columns": model.NewTabular([]string{"table_name"}, nil)}, nil
}
func (f *fakeCollector) GetVersion(ctx context.Context) (string, error) {
	return "16.0", nil
}
func (f *fakeCollector) Close() error {
	f.closed = true
	return f.closeErr
}

// fakeSink records every shipped payload in memory.
type fakeSink struct {
	mu      sync.Mutex
	shipped []shipped
	failWith error
}

type shipped struct {
	kind sink.Kind
	body []byte
}

func (s *fakeSink) Ship(ctx context.Context, kind sink.Kind, body []byte) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipped = append(s.shipped, shipped{kind: kind, body: body})
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shipped)
}

func newTestDispatcher(t *testing.T, c *fakeCollector, s *fakeSink) (*pipeline.Dispatcher, *errqueue.Queue) {
	t.Helper()
	factory := func(ctx context.Context, cfg config.DriverConfig, log logrus.FieldLogger) (collector.Collector, error) {
		return c, nil
	}
	log := logrus.New()
	log.SetOutput(discardWriter{})
	q := errqueue.New()
	d := pipeline.New(factory, s, nil, q, pipeline.NewMetricsWith(prometheus.NewRegistry()), log, "test")
	d.SetConfig(config.DriverConfig{OrganizationID: "org", DBKey: "db1", DBType: config.DBTypePostgres})
	return d, q
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestDispatcherRunDBLevelShipsOnSuccessAndClosesCollector(t *testing.T) {
	c := &fakeCollector{}
	s := &fakeSink{}
	d, _ := newTestDispatcher(t, c, s)

	err := d.RunDBLevel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.count())
	assert.True(t, c.closed)
}

func TestDispatcherRunDBLevelEnqueuesErrorAndNeverPropagatesIt(t *testing.T) {
	c := &fakeCollector{failWith: errors.New("boom")}
	s := &fakeSink{}
	d, q := newTestDispatcher(t, c, s)

	err := d.RunDBLevel(context.Background())
	require.NoError(t, err, "a tick never propagates a failure to the scheduler")
	assert.Equal(t, 0, s.count(), "a failed collection must not ship a payload")
	assert.Equal(t, 1, q.Len(), "the collector failure must be enqueued")
}

func TestDispatcherRunTableLevelSkipsShippingWhenBothSubFeaturesDisabled(t *testing.T) {
	c := &fakeCollector{}
	s := &fakeSink{}
	d, _ := newTestDispatcher(t, c, s)
	cfg := d.Config()
	cfg.DisableTableLevelStats = true
	cfg.DisableIndexStats = true
	d.SetConfig(cfg)

	require.NoError(t, d.RunTableLevel(context.Background()))
	assert.Equal(t, 0, s.count())
}

func TestDispatcherRunQueryUsesEngineSpecificDigestKey(t *testing.T) {
	c := &fakeCollector{}
	s := &fakeSink{}
	d, _ := newTestDispatcher(t, c, s)

	require.NoError(t, d.RunQuery(context.Background()))
	require.Equal(t, 1, s.count())
	assert.Contains(t, string(s.shipped[0].body), "pg_stat_statements")
}

func TestDispatcherSetConfigIsVisibleToTheNextTick(t *testing.T) {
	c := &fakeCollector{}
	s := &fakeSink{}
	d, _ := newTestDispatcher(t, c, s)

	cfg := d.Config()
	cfg.DisableSchemaMonitoring = true
	d.SetConfig(cfg)

	require.NoError(t, d.RunSchema(context.Background()))
	assert.Equal(t, 0, s.count(), "schema tick should have been skipped once disabled")
}

func TestDispatcherShipFailureIsCaughtAndEnqueued(t *testing.T) {
	c := &fakeCollector{}
	s := &fakeSink{failWith: errors.New("network down")}
	d, q := newTestDispatcher(t, c, s)

	err := d.RunDBLevel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len(), "the ship failure must be enqueued")
}
