package mysqlcol

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/model"
)

func (c *Collector) CollectQueryMetrics(ctx context.Context, numQueries int) (model.Tabular, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(queryStatsSQLTemplate, numQueries))
	if err != nil {
		return model.Tabular{}, errors.Wrap(err, "collect query metrics")
	}
	return queryTabular(rows)
}

// CollectLongRunningQuery filters on TIMER_WAIT, which performance_schema
// reports in picoseconds; thresholdMinutes converts as minutes * 6e13
// picoseconds.
func (c *Collector) CollectLongRunningQuery(ctx context.Context, numQueries int, thresholdMinutes int) (model.Tabular, error) {
	timerWaitThreshold := int64(thresholdMinutes) * 60000000000000
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(longRunningQuerySQLTemplate, timerWaitThreshold, numQueries))
	if err != nil {
		return model.Tabular{}, errors.Wrap(err, "collect long running queries")
	}
	return queryTabular(rows)
}

func (c *Collector) CollectSchema(ctx context.Context) (map[string]model.Tabular, error) {
	columns, err := c.querySchema(ctx, queryColumnsSchemaSQL, "columns")
	if err != nil {
		return nil, err
	}
	indexes, err := c.querySchema(ctx, queryIndexSchemaSQL, "indexes")
	if err != nil {
		return nil, err
	}
	indexColumns, err := c.querySchema(ctx, queryIndexColumnsSchemaSQL, "index columns")
	if err != nil {
		return nil, err
	}
	foreignKeys, err := c.querySchema(ctx, queryForeignKeySchemaSQL, "foreign keys")
	if err != nil {
		return nil, err
	}
	tables, err := c.querySchema(ctx, queryTableSchemaSQL, "tables")
	if err != nil {
		return nil, err
	}
	views, err := c.querySchema(ctx, queryViewSchemaSQL, "views")
	if err != nil {
		return nil, err
	}

	return map[string]model.Tabular{
		"columns":       columns,
		"indexes":       indexes,
		"index_columns": indexColumns,
		"foreign_keys":  foreignKeys,
		"tables":        tables,
		"views":         views,
	}, nil
}

func (c *Collector) querySchema(ctx context.Context, sql, label string) (model.Tabular, error) {
	rows, err := c.db.QueryContext(ctx, sql)
	if err != nil {
		return model.Tabular{}, errors.Wrapf(err, "collect schema %s", label)
	}
	return queryTabular(rows)
}
