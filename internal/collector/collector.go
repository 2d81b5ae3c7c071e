// Package collector defines the capability-set interface that both engine
// implementations (MySQL/Aurora-MySQL, PostgreSQL/Aurora-PostgreSQL) and the
// offline mock implement. Pipelines are polymorphic over this interface
// alone and never branch on engine type.
package collector

import (
	"context"

	"github.com/ottertune/db-agent/internal/model"
)

// PermissionCheck is one row of check_permission()'s result.
type PermissionCheck struct {
	Query         string
	Success       bool
	ExampleGrant  string
}

// PermissionResult is check_permission()'s full result.
type PermissionResult struct {
	OK       bool
	Checks   []PermissionCheck
	Summary  string
}

// TargetTableInfo is the shared record produced by GetTargetTableInfo and
// consumed by CollectTableLevelMetrics/CollectIndexMetrics, avoiding a
// re-query and centralizing selection policy in one place.
type TargetTableInfo struct {
	// TargetTables holds the raw, unquoted identifiers.
	TargetTables []string
	// TargetTablesStr holds the same identifiers pre-quoted for later SQL
	// composition.
	TargetTablesStr []string
}

// RowNumberStats is collect_table_row_number_stats()'s result.
type RowNumberStats struct {
	NumTables            int
	NumEmptyTables       int
	NumTablesRowCount0To10K      int
	NumTablesRowCount10KTo100K   int
	NumTablesRowCount100KTo1M    int
	NumTablesRowCount1MTo10M     int
	NumTablesRowCount10MTo100M   int
	NumTablesRowCount100MToInf   int
	MaxRowNum            *int64
	MinRowNum            *int64
}

// TableLevelMetrics is the named tabular sub-payloads for table-level
// collection, keyed by view name (four for PostgreSQL, one for MySQL).
type TableLevelMetrics map[string]model.Tabular

// IndexMetrics is the named tabular sub-payloads for index-level
// collection (four for PostgreSQL, three for MySQL).
type IndexMetrics map[string]model.Tabular

// Collector is the single boundary the Pipeline is polymorphic over. Every
// method takes a context so queries can be cancelled with it; the
// dispatcher applies no timeout of its own, so queries run under the
// driver's default statement timeout.
type Collector interface {
	CheckPermission(ctx context.Context) (PermissionResult, error)
	CollectKnobs(ctx context.Context) (map[string]any, error)
	CollectMetrics(ctx context.Context) (map[string]any, error)
	CollectTableRowNumberStats(ctx context.Context) (RowNumberStats, error)
	GetTargetTableInfo(ctx context.Context, numTables int) (map[string]TargetTableInfo, error)
	CollectTableLevelMetrics(ctx context.Context, info map[string]TargetTableInfo) (TableLevelMetrics, error)
	CollectIndexMetrics(ctx context.Context, info map[string]TargetTableInfo, numIndexes int) (IndexMetrics, error)
	CollectQueryMetrics(ctx context.Context, numQueries int) (model.Tabular, error)
	CollectLongRunningQuery(ctx context.Context, numQueries int, thresholdMinutes int) (model.Tabular, error)
	CollectSchema(ctx context.Context) (map[string]model.Tabular, error)
	GetVersion(ctx context.Context) (string, error)
	// Close releases any connections opened by the collector. Dispatcher
	// invocations scope a fresh collector per tick and guarantee Close runs
	// on every exit path.
	Close() error
}
