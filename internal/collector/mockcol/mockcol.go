// Package mockcol is the offline collector implementation: constant-shape
// data with no network or database I/O, used for DBTypeMock in the collector
// factory's db_type switch and for pipeline/scheduler tests that don't want a
// live engine.
package mockcol

import (
	"context"

	"github.com/ottertune/db-agent/internal/collector"
	"github.com/ottertune/db-agent/internal/model"
)

// Collector implements collector.Collector with fixed data, matching the
// shape the real collectors return rather than any specific engine.
type Collector struct {
	Version string
}

// New returns a ready-to-use mock collector. Version defaults to "mock-1.0"
// when empty.
func New(version string) *Collector {
	if version == "" {
		version = "mock-1.0"
	}
	return &Collector{Version: version}
}

func (c *Collector) CheckPermission(ctx context.Context) (collector.PermissionResult, error) {
	return collector.PermissionResult{OK: true, Summary: "mock: all permissions granted"}, nil
}

func (c *Collector) CollectKnobs(ctx context.Context) (map[string]any, error) {
	return map[string]any{
		"global": map[string]any{"global": map[string]any{"max_connections": "100"}},
		"local":  nil,
	}, nil
}

func (c *Collector) CollectMetrics(ctx context.Context) (map[string]any, error) {
	return map[string]any{
		"global": map[string]any{
			"global":  map[string]any{"uptime": "3600"},
			"derived": map[string]any{"buffer_miss_ratio": 0.0, "read_write_ratio": 1.0},
		},
		"local": nil,
	}, nil
}

func (c *Collector) CollectTableRowNumberStats(ctx context.Context) (collector.RowNumberStats, error) {
	return collector.RowNumberStats{NumTables: 1, NumTablesRowCount0To10K: 1}, nil
}

func (c *Collector) GetTargetTableInfo(ctx context.Context, numTables int) (map[string]collector.TargetTableInfo, error) {
	return map[string]collector.TargetTableInfo{
		"": {
			TargetTables:    []string{"public.mock_table"},
			TargetTablesStr: []string{`("public", "mock_table")`},
		},
	}, nil
}

func (c *Collector) CollectTableLevelMetrics(ctx context.Context, info map[string]collector.TargetTableInfo) (collector.TableLevelMetrics, error) {
	return collector.TableLevelMetrics{
		"information_schema_TABLES": model.NewTabular(
			[]string{"TABLE_SCHEMA", "TABLE_NAME", "TABLE_ROWS"},
			[][]any{{"public", "mock_table", int64(42)}},
		),
	}, nil
}

func (c *Collector) CollectIndexMetrics(ctx context.Context, info map[string]collector.TargetTableInfo, numIndexes int) (collector.IndexMetrics, error) {
	return collector.IndexMetrics{
		"indexes_size": model.NewTabular(
			[]string{"DATABASE_NAME", "TABLE_NAME", "INDEX_NAME", "SIZE_BYTES"},
			[][]any{{"public", "mock_table", "mock_table_pkey", int64(8192)}},
		),
	}, nil
}

func (c *Collector) CollectQueryMetrics(ctx context.Context, numQueries int) (model.Tabular, error) {
	return model.NewTabular(
		[]string{"queryid", "calls", "avg_time_ms"},
		[][]any{{"deadbeef", int64(10), 1.5}},
	), nil
}

func (c *Collector) CollectLongRunningQuery(ctx context.Context, numQueries int, thresholdMinutes int) (model.Tabular, error) {
	return model.NewTabular([]string{"query", "time_elapsed_sec"}, nil), nil
}

func (c *Collector) CollectSchema(ctx context.Context) (map[string]model.Tabular, error) {
	return map[string]model.Tabular{
		"tables":       model.NewTabular([]string{"table_schema", "table_name"}, [][]any{{"public", "mock_table"}}),
		"columns":      model.NewTabular([]string{"table_schema", "table_name", "column_name"}, nil),
		"indexes":       model.NewTabular([]string{"table_schema", "table_name", "index_name"}, nil),
		"index_columns": model.NewTabular([]string{"table_schema", "table_name", "index_name", "column_names"}, nil),
		"foreign_keys":  model.NewTabular([]string{"table_schema", "table_name", "constraint_name"}, nil),
		"views":        model.NewTabular([]string{"table_schema", "view_name"}, nil),
	}, nil
}

func (c *Collector) GetVersion(ctx context.Context) (string, error) {
	return c.Version, nil
}

func (c *Collector) Close() error { return nil }

var _ collector.Collector = (*Collector)(nil)
