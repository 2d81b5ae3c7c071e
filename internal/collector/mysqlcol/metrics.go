package mysqlcol

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/derive"
	"github.com/ottertune/db-agent/internal/model"
)

func (c *Collector) CollectKnobs(ctx context.Context) (map[string]any, error) {
	global, err := pairsMap(c.db, knobsSQL, false)
	if err != nil {
		return nil, errors.Wrap(err, "collect knobs")
	}
	return map[string]any{
		"global": map[string]any{"global": global},
		"local":  nil,
	}, nil
}

func (c *Collector) CollectMetrics(ctx context.Context) (map[string]any, error) {
	globalStatus, err := pairsMapStr(c.db, metricsSQL, true)
	if err != nil {
		return nil, errors.Wrap(err, "collect global status")
	}

	innodbMetrics, err := pairsMap(c.db, metricsInnodbSQL, false)
	if err != nil {
		return nil, errors.Wrap(err, "collect innodb transaction metrics")
	}

	engine := map[string]any{}

	statusRows, err := c.db.QueryContext(ctx, engineInnodbSQL)
	if err != nil {
		return nil, errors.Wrap(err, "collect innodb engine status")
	}
	statusTable, err := queryTabular(statusRows)
	if err != nil {
		return nil, errors.Wrap(err, "scan innodb engine status")
	}
	innodbStatus := ""
	if len(statusTable.Rows) > 0 {
		last := statusTable.Rows[0][len(statusTable.Rows[0])-1]
		if s, ok := last.(string); ok {
			innodbStatus = truncateInnodbStatus(s)
		}
	}
	engine["innodb_status"] = innodbStatus

	engine["replica_status"] = singleRowJSON(ctx, c.db, c.engineReplicaSQL)
	engine["master_status"] = singleRowJSON(ctx, c.db, engineMasterSQL)

	performanceSchema := map[string]any{}
	digestRows, err := c.db.QueryContext(ctx, queryDigestTimeSQL)
	if err != nil {
		performanceSchema["events_statements_summary_by_digest"] = "[]"
	} else {
		digestTable, err := queryTabular(digestRows)
		if err != nil {
			performanceSchema["events_statements_summary_by_digest"] = "[]"
		} else {
			performanceSchema["events_statements_summary_by_digest"] = tabularToJSONList(digestTable)
		}
	}

	if c.hasHistogram {
		histRows, err := c.db.QueryContext(ctx, metricsLatencyHistSQL)
		if err == nil {
			histTable, err := queryTabular(histRows)
			if err == nil {
				performanceSchema["events_statements_histogram_global"] = tabularToJSONList(histTable)
			}
		}
	}

	derived := map[string]any{
		"buffer_miss_ratio": derive.BufferMissRatio(globalStatus),
		"read_write_ratio":  derive.ReadWriteRatio(globalStatus),
	}

	return map[string]any{
		"global": map[string]any{
			"global":             globalStatus,
			"innodb_metrics":     innodbMetrics,
			"performance_schema": performanceSchema,
			"engine":             engine,
			"derived":            derived,
		},
		"local": nil,
	}, nil
}

// singleRowJSON returns the first row of query JSON-encoded as a
// column-keyed object, or "" when the query returns nothing — the
// replica/master-status shape, where an absent replica yields an empty
// string rather than null.
func singleRowJSON(ctx context.Context, db *sql.DB, query string) string {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return ""
	}
	t, err := queryTabular(rows)
	if err != nil || len(t.Rows) == 0 {
		return ""
	}
	row := make(map[string]any, len(t.Columns))
	for i, col := range t.Columns {
		row[col] = t.Rows[0][i]
	}
	b, err := json.Marshal(row)
	if err != nil {
		return ""
	}
	return string(b)
}

// tabularToJSONList renders a Tabular as a JSON list of column-keyed
// objects, the shape the digest/histogram sub-payloads embed as JSON
// strings.
func tabularToJSONList(t model.Tabular) string {
	maps := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			m[col] = row[j]
		}
		maps[i] = m
	}
	b, err := json.Marshal(maps)
	if err != nil {
		return "[]"
	}
	return string(b)
}
