// Package pgcol implements collector.Collector for PostgreSQL and
// Aurora-PostgreSQL.
// Unlike MySQL, a PostgreSQL target may name several logical databases;
// Collector holds one connection per logical database and merges results
// across all of them.
package pgcol

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ottertune/db-agent/internal/collector"
)

// Collector is the PostgreSQL/Aurora-PostgreSQL implementation.
type Collector struct {
	conns      map[string]*sql.DB // logical database name -> connection
	names      []string           // stable iteration order
	versionStr string

	// Capability flags, fixed at construction from the parsed version so
	// collection methods never branch on a version string.
	hasPgStatArchiver      bool // pg_stat_archiver, >= 9.4
	useMeanExecTime        bool // pg_stat_statements.mean_exec_time, >= 13
	hasAttGenerated        bool // pg_attribute.attgenerated column, >= 13
	hasConparentidPredicate bool // pg_constraint.conparentid, >= 11
	hasQueryID             bool // pg_stat_activity.query_id, >= 14

	log logrus.FieldLogger
}

// New opens one connection per logical database name in dsns (keyed by the
// logical database name itself) and resolves the shared engine version from
// the first connection.
func New(ctx context.Context, dsns map[string]string, log logrus.FieldLogger) (*Collector, error) {
	if len(dsns) == 0 {
		return nil, errors.New("pgcol: at least one logical database DSN is required")
	}

	conns := make(map[string]*sql.DB, len(dsns))
	names := make([]string, 0, len(dsns))
	for name, dsn := range dsns {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			closeAll(conns)
			return nil, errors.Wrapf(err, "open postgres connection for %q", name)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			closeAll(conns)
			return nil, errors.Wrapf(err, "ping postgres %q", name)
		}
		conns[name] = db
		names = append(names, name)
	}
	sort.Strings(names)

	var versionStr string
	first := conns[names[0]]
	if err := first.QueryRowContext(ctx, "SHOW server_version;").Scan(&versionStr); err != nil {
		closeAll(conns)
		return nil, errors.Wrap(err, "query version")
	}

	major := parseMajorMinor(versionStr)

	return &Collector{
		conns:      conns,
		names:      names,
		versionStr: versionStr,
		hasPgStatArchiver: major >= 9.4,
		useMeanExecTime:   major >= 13,
		hasAttGenerated:   major >= 13,
		hasConparentidPredicate: major >= 11,
		hasQueryID:        major >= 14,
		log:               log,
	}, nil
}

func closeAll(conns map[string]*sql.DB) {
	for _, db := range conns {
		db.Close()
	}
}

func parseMajorMinor(version string) float64 {
	parts := strings.Split(version, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	f, _ := strconv.ParseFloat(strings.Join(parts, "."), 64)
	return f
}

func (c *Collector) GetVersion(ctx context.Context) (string, error) {
	return c.versionStr, nil
}

func (c *Collector) Close() error {
	var firstErr error
	for _, db := range c.conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CheckPermission always succeeds: the PostgreSQL collector's queries run
// entirely against catalog views readable by any role, so there is nothing
// to check.
func (c *Collector) CheckPermission(ctx context.Context) (collector.PermissionResult, error) {
	return collector.PermissionResult{OK: true}, nil
}

// pgStatViews returns the global, single-row views to sweep in
// CollectMetrics, gated by hasPgStatArchiver.
func (c *Collector) pgStatViews() []string {
	if c.hasPgStatArchiver {
		return []string{"pg_stat_archiver", "pg_stat_bgwriter"}
	}
	return []string{"pg_stat_bgwriter"}
}

func (c *Collector) statStatementsSQL() string {
	col := "mean_time"
	if c.useMeanExecTime {
		col = "mean_exec_time"
	}
	return fmt.Sprintf(
		"SELECT CONCAT(userid, '_', dbid, '_', queryid) as queryid, calls, %s as avg_time_ms FROM pg_stat_statements;",
		col,
	)
}

var _ collector.Collector = (*Collector)(nil)

// quoteOIDList renders an int64 OID list as "(1,2,3)", or "(0)" for an
// empty set (a predicate that can never match a real oid).
func quoteOIDList(oids []int64) string {
	if len(oids) == 0 {
		return "(0)"
	}
	parts := make([]string, len(oids))
	for i, o := range oids {
		parts[i] = strconv.FormatInt(o, 10)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case float64:
		return int64(x)
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
