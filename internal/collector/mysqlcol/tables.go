package mysqlcol

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/collector"
)

// CollectTableRowNumberStats is empty for MySQL; only the PostgreSQL
// collector produces the row-count histogram.
func (c *Collector) CollectTableRowNumberStats(ctx context.Context) (collector.RowNumberStats, error) {
	return collector.RowNumberStats{}, nil
}

func (c *Collector) GetTargetTableInfo(ctx context.Context, numTables int) (map[string]collector.TargetTableInfo, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(tableLevelStatsSQLTemplate, numTables))
	if err != nil {
		return nil, errors.Wrap(err, "get target table info")
	}
	table, err := queryTabular(rows)
	if err != nil {
		return nil, errors.Wrap(err, "scan target table info")
	}

	schemaIdx, tableIdx := columnIndex(table.Columns, "TABLE_SCHEMA"), columnIndex(table.Columns, "TABLE_NAME")

	var tables, tablesStr []string
	for _, row := range table.Rows {
		schema, _ := row[schemaIdx].(string)
		name, _ := row[tableIdx].(string)
		tables = append(tables, schema+"."+name)
		tablesStr = append(tablesStr, fmt.Sprintf(`("%s", "%s")`, schema, name))
	}

	// MySQL has no logical-database fan-out; a single "" key holds the one
	// connection's target tables, unlike PostgreSQL's per-logical-database
	// keying.
	return map[string]collector.TargetTableInfo{
		"": {TargetTables: tables, TargetTablesStr: tablesStr},
	}, nil
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (c *Collector) CollectTableLevelMetrics(ctx context.Context, info map[string]collector.TargetTableInfo) (collector.TableLevelMetrics, error) {
	numTables := 0
	for _, v := range info {
		numTables += len(v.TargetTables)
	}
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(tableLevelStatsSQLTemplate, numTables))
	if err != nil {
		return nil, errors.Wrap(err, "collect table-level metrics")
	}
	table, err := queryTabular(rows)
	if err != nil {
		return nil, errors.Wrap(err, "scan table-level metrics")
	}
	return collector.TableLevelMetrics{
		"information_schema_TABLES": table,
	}, nil
}

func (c *Collector) CollectIndexMetrics(ctx context.Context, info map[string]collector.TargetTableInfo, numIndexes int) (collector.IndexMetrics, error) {
	schemaTableString := "((NULL,NULL))"
	if all := allTablesStr(info); len(all) > 0 {
		schemaTableString = "(" + joinComma(all) + ")"
	}

	sizeRows, err := c.db.QueryContext(ctx, fmt.Sprintf(indexSizeSQLTemplate, schemaTableString, numIndexes))
	if err != nil {
		return nil, errors.Wrap(err, "collect index size")
	}
	sizeTable, err := queryTabular(sizeRows)
	if err != nil {
		return nil, errors.Wrap(err, "scan index size")
	}

	dbIdx := columnIndex(sizeTable.Columns, "DATABASE_NAME")
	tblIdx := columnIndex(sizeTable.Columns, "TABLE_NAME")
	idxIdx := columnIndex(sizeTable.Columns, "INDEX_NAME")

	var indexTriples []string
	for _, row := range sizeTable.Rows {
		db, _ := row[dbIdx].(string)
		tbl, _ := row[tblIdx].(string)
		idx, _ := row[idxIdx].(string)
		indexTriples = append(indexTriples, fmt.Sprintf(`("%s", "%s", "%s")`, db, tbl, idx))
	}

	schemaTableIndexString := "((NULL,NULL,NULL))"
	if len(indexTriples) > 0 {
		schemaTableIndexString = "(" + joinComma(indexTriples) + ")"
	}

	statsRows, err := c.db.QueryContext(ctx, fmt.Sprintf(indexStatsSQLTemplate, schemaTableIndexString))
	if err != nil {
		return nil, errors.Wrap(err, "collect index stats")
	}
	statsTable, err := queryTabular(statsRows)
	if err != nil {
		return nil, errors.Wrap(err, "scan index stats")
	}

	usageRows, err := c.db.QueryContext(ctx, fmt.Sprintf(indexUsageSQLTemplate, schemaTableIndexString))
	if err != nil {
		return nil, errors.Wrap(err, "collect index usage")
	}
	usageTable, err := queryTabular(usageRows)
	if err != nil {
		return nil, errors.Wrap(err, "scan index usage")
	}

	return collector.IndexMetrics{
		"information_schema_STATISTICS": statsTable,
		"performance_schema_table_io_waits_summary_by_index_usage": usageTable,
		"indexes_size": sizeTable,
	}, nil
}

func allTablesStr(info map[string]collector.TargetTableInfo) []string {
	var out []string
	for _, v := range info {
		out = append(out, v.TargetTablesStr...)
	}
	return out
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
