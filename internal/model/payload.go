// Package model defines the observation payload shapes shipped to the
// ingestion service, and the shared tabular encoding used by all of them.
package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"
)

// Summary carries the agent version the dispatcher stamps and the wall-clock time at
// which the observation was taken. The agent never reconciles clock skew:
// observation_time always comes from the agent's own clock.
type Summary struct {
	Version         string `json:"version"`
	ObservationTime int64  `json:"observation_time"`
}

// Tabular is the canonical shape for any payload fragment that is not a
// plain key-value map: a column list plus rows of equal length. Cells are
// JSON scalars after normalization (see NormalizeCell).
type Tabular struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTabular builds a Tabular, normalizing every cell.
func NewTabular(columns []string, rows [][]any) Tabular {
	t := Tabular{Columns: columns, Rows: make([][]any, len(rows))}
	for i, row := range rows {
		normalized := make([]any, len(row))
		for j, cell := range row {
			normalized[j] = NormalizeCell(cell)
		}
		t.Rows[i] = normalized
	}
	return t
}

// AppendColumn adds a column name and a constant value to every row. Used by
// the PostgreSQL collector to append logical_database_name to each
// sub-payload when fanning out across logical databases.
func (t Tabular) AppendColumn(name string, value any) Tabular {
	out := Tabular{
		Columns: append(append([]string{}, t.Columns...), name),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		newRow := append(append([]any{}, row...), NormalizeCell(value))
		out.Rows[i] = newRow
	}
	return out
}

// Concat appends another Tabular's rows, assuming identical columns. Used to
// merge per-logical-database sub-payloads into one.
func Concat(tables ...Tabular) Tabular {
	if len(tables) == 0 {
		return Tabular{}
	}
	out := Tabular{Columns: tables[0].Columns}
	for _, t := range tables {
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out
}

// NormalizeCell converts a cell to a JSON-serializable scalar: timestamps
// render ISO-8601, decimals become floats, unknown or nil values become
// null.
func NormalizeCell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(time.RFC3339)
	case *big.Float:
		if x == nil {
			return nil
		}
		f, _ := x.Float64()
		return f
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}

// DBLevelObservation carries runtime knobs, counter metrics, table row-count
// distribution, and the set of non-default parameters.
type DBLevelObservation struct {
	OrganizationID  string         `json:"organization_id"`
	DBKey           string         `json:"db_key"`
	Summary         Summary        `json:"summary"`
	KnobsData       map[string]any `json:"knobs_data"`
	MetricsData     map[string]any `json:"metrics_data"`
	RowNumStats     map[string]any `json:"row_num_stats"`
	NonDefaultKnobs []string       `json:"non_default_knobs"`
}

// TableLevelObservation maps a view name (e.g.
// "pg_stat_user_tables_all_fields") to its tabular payload.
type TableLevelObservation struct {
	OrganizationID string             `json:"organization_id"`
	DBKey          string             `json:"db_key"`
	Summary        Summary            `json:"summary"`
	Data           map[string]Tabular `json:"data"`
}

// LongRunningQueryObservation wraps the engine's current-activity view.
type LongRunningQueryObservation struct {
	OrganizationID string             `json:"organization_id"`
	DBKey          string             `json:"db_key"`
	Summary        Summary            `json:"summary"`
	Data           map[string]Tabular `json:"data"`
}

// QueryObservation wraps the engine's statement-digest view.
type QueryObservation struct {
	OrganizationID string             `json:"organization_id"`
	DBKey          string             `json:"db_key"`
	Summary        Summary            `json:"summary"`
	Data           map[string]Tabular `json:"data"`
}

// SchemaObservation carries the six schema description sub-payloads.
type SchemaObservation struct {
	OrganizationID string             `json:"organization_id"`
	DBKey          string             `json:"db_key"`
	Summary        Summary            `json:"summary"`
	Data           map[string]Tabular `json:"data"`
}

// MarshalJSON pins Tabular's wire shape to {"columns":...,"rows":...} even if
// future fields are added to the Go struct.
func (t Tabular) MarshalJSON() ([]byte, error) {
	type wire struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	w := wire{Columns: t.Columns, Rows: t.Rows}
	if w.Rows == nil {
		w.Rows = [][]any{}
	}
	return json.Marshal(w)
}
