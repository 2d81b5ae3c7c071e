package pgcol

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/model"
)

// queryStatsSQLTemplate selects the top-N digest rows by call count.
const queryStatsSQLTemplate = `SELECT * FROM pg_stat_statements ORDER BY calls DESC LIMIT %d;`

// CollectQueryMetrics reads the digest table on the main database only:
// pg_stat_statements is cluster-wide, so fanning out across logical
// databases would duplicate every row. A missing extension is not fatal;
// the payload ships with empty columns/rows instead.
func (c *Collector) CollectQueryMetrics(ctx context.Context, numQueries int) (model.Tabular, error) {
	db := c.conns[c.names[0]]

	if !c.loadStatStatements(ctx, db) {
		return model.NewTabular(nil, nil), nil
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(queryStatsSQLTemplate, numQueries))
	if err != nil {
		c.log.WithError(err).Error(
			"failed to read pg_stat_statements, you need to add pg_stat_statements in parameter shared_preload_libraries")
		return model.NewTabular(nil, nil), nil
	}
	return queryTabular(rows)
}

// longRunningQuerySQLTemplate filters pg_stat_activity to non-idle backends
// whose query_start predates the threshold. The column-list placeholder
// carries query_id on 14+ only.
const longRunningQuerySQLTemplate = `SELECT
  pid, %sbackend_start, query_start, xact_start, datid, datname,
  state, state_change, wait_event, wait_event_type, backend_type
FROM pg_stat_activity
WHERE
  query_start < now() - interval '%d minutes'
  AND state IS NOT NULL
  AND state <> 'idle'
LIMIT %d;`

func (c *Collector) longRunningQuerySQL(numQueries, thresholdMinutes int) string {
	queryIDColumn := ""
	if c.hasQueryID {
		queryIDColumn = "query_id, "
	}
	return fmt.Sprintf(longRunningQuerySQLTemplate, queryIDColumn, thresholdMinutes, numQueries)
}

// CollectLongRunningQuery reads the main database's pg_stat_activity:
// the view is cluster-wide, covering backends of every logical database.
func (c *Collector) CollectLongRunningQuery(ctx context.Context, numQueries int, thresholdMinutes int) (model.Tabular, error) {
	db := c.conns[c.names[0]]
	rows, err := db.QueryContext(ctx, c.longRunningQuerySQL(numQueries, thresholdMinutes))
	if err != nil {
		return model.Tabular{}, errors.Wrap(err, "collect long running queries")
	}
	return queryTabular(rows)
}
