package mysqlcol

import (
	"database/sql"
	"strings"

	"github.com/ottertune/db-agent/internal/model"
)

// queryTabular reads an already-executed query's rows (closing them) and
// shapes the result into a Tabular,
// the common path every collection method in this package funnels through
// so every tabular sub-payload has matching columns/row lengths by
// construction.
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

// normalizeSQLValue converts the generic scan target's underlying value
// (database/sql hands back []byte for most MySQL column types absent an
// explicit Go type) into a JSON-friendly scalar.
func normalizeSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// pairsMap runs a two-column (name, value) query such as SHOW GLOBAL
// VARIABLES/STATUS and turns every row into a map entry.
func pairsMap(db *sql.DB, query string, lowerKeys bool) (map[string]any, error) {
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
		if lowerKeys {
			key = strings.ToLower(key)
		}
		out[key] = row[1]
	}
	return out, nil
}

// pairsMapStr is pairsMap with values coerced to string, for the derive
// package which expects strconv-parseable global-status values.
func pairsMapStr(db *sql.DB, query string, lowerKeys bool) (map[string]string, error) {
	raw, err := pairsMap(db, query, lowerKeys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}
