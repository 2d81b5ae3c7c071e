// Package mysqlcol implements collector.Collector for MySQL and
// Aurora-MySQL.
package mysqlcol

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/ottertune/db-agent/internal/collector"
)

// Collector is the MySQL/Aurora-MySQL implementation. A fresh Collector is
// opened per pipeline tick and closed on every exit path.
type Collector struct {
	db         *sql.DB
	versionStr string

	// hasHistogram gates the events_statements_histogram_global query,
	// available from MySQL 8.0 onward.
	hasHistogram bool
	// engineReplicaSQL switches between SHOW REPLICA STATUS (8.0+) and the
	// legacy SHOW SLAVE STATUS, decided once at construction instead of
	// branching on version in every call.
	engineReplicaSQL string
}

// New opens a connection and resolves the engine version up front so every
// capability flag is fixed for the collector's lifetime: pipeline code never
// branches on the engine's version string directly.
func New(ctx context.Context, dsn string) (*Collector, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql connection")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}

	var versionStr string
	if err := db.QueryRowContext(ctx, versionSQL).Scan(&versionStr); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "query version")
	}

	major := parseMajorMinor(versionStr)

	c := &Collector{
		db:           db,
		versionStr:   versionStr,
		hasHistogram: major >= 8.0,
	}
	if major >= 8.0 {
		c.engineReplicaSQL = engineReplicaSQLModern
	} else {
		c.engineReplicaSQL = engineReplicaSQLLegacy
	}
	return c, nil
}

// parseMajorMinor turns "8.0.33" into 8.0, truncating to two segments before
// any version comparison.
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
	return c.db.Close()
}

// permissionCheck pairs one required query with the privilege its grant
// example names. An empty privilege means the query needs no grant
// (SHOW STATUS/VARIABLES).
type permissionCheck struct {
	query string
	priv  string
}

// permissionChecks returns the required reads in a fixed order, so the
// check output and summary are stable run-to-run.
func (c *Collector) permissionChecks() []permissionCheck {
	checks := []permissionCheck{
		{knobsSQL, ""},
		{metricsSQL, ""},
		{metricsInnodbSQL, "PROCESS"},
		{engineInnodbSQL, "PROCESS"},
		{engineMasterSQL, "REPLICATION CLIENT"},
		{c.engineReplicaSQL, "REPLICATION CLIENT"},
		{versionSQL, ""},
	}
	if c.hasHistogram {
		checks = append(checks, permissionCheck{metricsLatencyHistSQL, "performance_schema.events_statements_histogram_global"})
	}
	return checks
}

// MySQL error codes consulted for grant-example text. Named here rather
// than imported because the driver package does not export them.
const (
	erAccessDeniedError         = 1045
	erTableAccessDeniedError    = 1142
	erSpecificAccessDeniedError = 1227
)

func (c *Collector) CheckPermission(ctx context.Context) (collector.PermissionResult, error) {
	result := collector.PermissionResult{OK: true}

	for _, chk := range c.permissionChecks() {
		rows, err := c.db.QueryContext(ctx, chk.query)
		if err == nil {
			rows.Close()
			continue
		}

		example := "unknown"
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) {
			switch mysqlErr.Number {
			case erSpecificAccessDeniedError, erAccessDeniedError:
				example = fmt.Sprintf("GRANT %s ON *.* TO <user>@<host>;", chk.priv)
			case erTableAccessDeniedError:
				example = fmt.Sprintf("GRANT SELECT ON %s TO <user>@<'host'>;", chk.priv)
			}
		}

		result.OK = false
		result.Checks = append(result.Checks, collector.PermissionCheck{
			Query:        chk.query,
			Success:      false,
			ExampleGrant: example,
		})
	}

	var b strings.Builder
	for _, chk := range result.Checks {
		b.WriteString("-----------------------------------------------\n")
		fmt.Fprintf(&b, "Permissions check failed for SQL: %s\n", chk.Query)
		fmt.Fprintf(&b, "Please grant the privilege. For example: %s\n", chk.ExampleGrant)
	}
	result.Summary = b.String()

	return result, nil
}

// truncateInnodbStatus keeps the first 50 and last 100 lines when the
// status text exceeds 150 lines, with a single ellipsis line reporting the
// elided count.
func truncateInnodbStatus(status string) string {
	lines := strings.Split(status, "\n")
	size := len(lines)
	if size <= 150 {
		return status
	}
	out := append([]string{}, lines[:50]...)
	out = append(out, fmt.Sprintf("...ignore %d lines here...", size-150))
	out = append(out, lines[size-100:]...)
	return strings.Join(out, "\n")
}

var _ collector.Collector = (*Collector)(nil)
