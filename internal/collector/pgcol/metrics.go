package pgcol

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/collector"
)

func (c *Collector) CollectKnobs(ctx context.Context) (map[string]any, error) {
	global, err := pairsMap(c.conns[c.names[0]], knobsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "collect knobs")
	}
	return map[string]any{
		"global": map[string]any{"global": global},
		"local":  nil,
	}, nil
}

// aggregatedLocalQueries maps each local-metric category to the view-name
// to aggregate-query pairs summed across every table/index in the target
// database.
var aggregatedLocalQueries = map[string]map[string]string{
	"database": {"pg_stat_database": databaseStatSQL, "pg_stat_database_conflicts": databaseConflictsStatSQL},
	"table":    {"pg_stat_user_tables": tableStatSQL, "pg_statio_user_tables": tableStatIOSQL},
	"index":    {"pg_stat_user_indexes": indexStatSQL, "pg_statio_user_indexes": indexStatIOSQL},
}

// rawLocalQueries are per-row (not summed) local views, keyed by category.
var rawLocalQueries = map[string]map[string]string{
	"table":   {"pg_stat_vacuum_tables": vacuumUserTablesStatSQL},
	"process": {"pg_stat_vacuum_activity": vacuumActivityStatSQL, "pg_stat_progress_vacuum": vacuumProgressStatSQL},
}

// rawLocalKey names the column used as the per-row map key for each
// category's raw views.
var rawLocalKey = map[string]string{
	"table":   "relid",
	"process": "pid",
}

func (c *Collector) CollectMetrics(ctx context.Context) (map[string]any, error) {
	db := c.conns[c.names[0]]

	global := map[string]any{}
	for _, view := range c.pgStatViews() {
		row, err := singleRowMap(db, "SELECT * FROM "+view+";")
		if err != nil {
			return nil, errors.Wrapf(err, "collect %s", view)
		}
		global[view] = row
	}

	statements, err := c.collectStatStatements(ctx, db)
	if err != nil {
		return nil, errors.Wrap(err, "collect pg_stat_statements")
	}
	b, _ := json.Marshal(statements)
	global["pg_stat_statements"] = map[string]any{"statements": string(b)}

	local := map[string]any{"database": map[string]any{}, "table": map[string]any{}, "index": map[string]any{}, "process": map[string]any{}}

	for category, views := range aggregatedLocalQueries {
		data := local[category].(map[string]any)
		for view, query := range views {
			row, err := singleRowMap(db, query)
			if err != nil {
				return nil, errors.Wrapf(err, "collect local aggregate %s", view)
			}
			data[view] = map[string]any{"aggregated": row}
		}
	}

	for category, views := range rawLocalQueries {
		data := local[category].(map[string]any)
		key := rawLocalKey[category]
		for view, query := range views {
			rows, err := db.QueryContext(ctx, query)
			if err != nil {
				return nil, errors.Wrapf(err, "collect local raw %s", view)
			}
			table, err := queryTabular(rows)
			if err != nil {
				return nil, errors.Wrapf(err, "scan local raw %s", view)
			}
			byKey := map[string]any{}
			keyIdx := columnIndex(table.Columns, key)
			for _, row := range table.Rows {
				entry := make(map[string]any, len(table.Columns))
				for i, col := range table.Columns {
					entry[col] = row[i]
				}
				if view == "pg_stat_vacuum_activity" {
					anonymizeVacuumQuery(entry)
				}
				rowKey := "null"
				if keyIdx >= 0 {
					rowKey = fmt.Sprint(row[keyIdx])
				}
				byKey[rowKey] = entry
			}
			data[view] = byKey
		}
	}

	return map[string]any{"global": global, "local": local}, nil
}

// loadStatStatements creates the pg_stat_statements extension when it is
// not already present. Failure to create it is logged, not fatal: one
// missing extension must not disable the whole metrics tick.
func (c *Collector) loadStatStatements(ctx context.Context, db *sql.DB) bool {
	var count int
	if err := db.QueryRowContext(ctx, statStatementsModuleExistsSQL).Scan(&count); err != nil {
		c.log.WithError(err).Error("failed to check for pg_stat_statements module")
		return false
	}
	if count == 1 {
		return true
	}
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION pg_stat_statements;"); err != nil {
		c.log.WithError(err).Error("failed to load pg_stat_statements module")
		return false
	}
	return true
}

// collectStatStatements reads pg_stat_statements. A missing extension is not
// fatal: it logs and returns an empty list rather than failing the whole
// metrics tick.
func (c *Collector) collectStatStatements(ctx context.Context, db *sql.DB) ([]map[string]any, error) {
	if !c.loadStatStatements(ctx, db) {
		return []map[string]any{}, nil
	}
	rows, err := db.QueryContext(ctx, c.statStatementsSQL())
	if err != nil {
		c.log.WithError(err).Error(
			"failed to read pg_stat_statements, you need to add pg_stat_statements in parameter shared_preload_libraries")
		return []map[string]any{}, nil
	}
	table, err := queryTabular(rows)
	if err != nil {
		return []map[string]any{}, nil
	}
	out := make([]map[string]any, len(table.Rows))
	for i, row := range table.Rows {
		entry := make(map[string]any, len(table.Columns))
		for j, col := range table.Columns {
			entry[col] = row[j]
		}
		out[i] = entry
	}
	return out, nil
}

func (c *Collector) CollectTableRowNumberStats(ctx context.Context) (collector.RowNumberStats, error) {
	row, err := singleRowMap(c.conns[c.names[0]], rowNumStatSQL)
	if err != nil {
		return collector.RowNumberStats{}, errors.Wrap(err, "collect row number stats")
	}
	stats := collector.RowNumberStats{
		NumTables:                int(asInt64(row["num_tables"])),
		NumEmptyTables:           int(asInt64(row["num_empty_tables"])),
		NumTablesRowCount0To10K:  int(asInt64(row["num_tables_row_count_0_10k"])),
		NumTablesRowCount10KTo100K: int(asInt64(row["num_tables_row_count_10k_100k"])),
		NumTablesRowCount100KTo1M:  int(asInt64(row["num_tables_row_count_100k_1m"])),
		NumTablesRowCount1MTo10M:   int(asInt64(row["num_tables_row_count_1m_10m"])),
		NumTablesRowCount10MTo100M: int(asInt64(row["num_tables_row_count_10m_100m"])),
		NumTablesRowCount100MToInf: int(asInt64(row["num_tables_row_count_100m_inf"])),
	}
	if stats.NumTables > 0 {
		maxVal := asInt64(row["max_row_num"])
		minVal := asInt64(row["min_row_num"])
		stats.MaxRowNum = &maxVal
		stats.MinRowNum = &minVal
	}
	return stats, nil
}
