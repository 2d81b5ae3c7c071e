package pgcol

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/model"
)

// CollectSchema gathers the six schema sub-payloads from the catalog of the
// first logical database (c.names[0]) only. The schemas of the other
// logical databases are not collected, and the sub-payloads carry no
// logical_database_name column.
func (c *Collector) CollectSchema(ctx context.Context) (map[string]model.Tabular, error) {
	db := c.conns[c.names[0]]

	generateQuery := ""
	if c.hasAttGenerated {
		generateQuery = "a.attgenerated as generated,"
	}
	conparentidPredicate := ""
	if c.hasConparentidPredicate {
		conparentidPredicate = "AND conparentid = 0"
	}

	columns, err := querySchema(ctx, db, fmt.Sprintf(queryColumnsSchemaSQLTemplate, generateQuery), "columns")
	if err != nil {
		return nil, err
	}
	indexes, err := querySchema(ctx, db, queryIndexSchemaSQL, "indexes")
	if err != nil {
		return nil, err
	}
	indexColumns, err := querySchema(ctx, db, queryIndexColumnsSchemaSQL, "index columns")
	if err != nil {
		return nil, err
	}
	foreignKeys, err := querySchema(ctx, db, fmt.Sprintf(queryForeignKeySchemaSQLTemplate, conparentidPredicate), "foreign keys")
	if err != nil {
		return nil, err
	}
	tables, err := querySchema(ctx, db, queryTableSchemaSQL, "tables")
	if err != nil {
		return nil, err
	}
	views, err := querySchema(ctx, db, queryViewSchemaSQL, "views")
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

func querySchema(ctx context.Context, db *sql.DB, query, label string) (model.Tabular, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return model.Tabular{}, errors.Wrapf(err, "collect schema %s", label)
	}
	table, err := queryTabular(rows)
	if err != nil {
		return model.Tabular{}, errors.Wrapf(err, "scan schema %s", label)
	}
	return table, nil
}
