package pgcol

import (
	"database/sql"

	"github.com/ottertune/db-agent/internal/model"
)

// queryTabular mirrors mysqlcol's scan helper: it funnels every collection
// query through one generic column/row reader so every row's length always
// matches its columns by construction.
func queryTabular(rows *sql.Rows) (model.Tabular, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return model.Tabular{}, err
	}

	var out [][]any
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return model.Tabular{}, err
		}
		row := make([]any, len(cols))
		for i, v := range raw {
			row[i] = normalizeSQLValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return model.Tabular{}, err
	}
	return model.NewTabular(cols, out), nil
}

func normalizeSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// pairsMap runs a two-column (name, value) query such as "SELECT name,
// setting FROM pg_settings" and turns every row into a map entry.
func pairsMap(db *sql.DB, query string) (map[string]any, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	t, err := queryTabular(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) < 2 {
			continue
		}
		key, _ := row[0].(string)
		out[key] = row[1]
	}
	return out, nil
}

// singleRowMap runs a global aggregate query (asserted to return exactly one
// row, per _get_metrics's "A global view can only have one row" invariant)
// and returns it column-keyed.
func singleRowMap(db *sql.DB, query string) (map[string]any, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	t, err := queryTabular(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(t.Columns))
	if len(t.Rows) > 0 {
		for i, col := range t.Columns {
			out[col] = t.Rows[0][i]
		}
	}
	return out, nil
}
