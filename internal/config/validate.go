package config

import (
	"fmt"

	"github.com/ottertune/db-agent/internal/model"
)

// Validate checks every configured range invariant. It returns the first
// violation wrapped as a ConfigInvalid AgentError naming the offending
// field, so validation failures always identify what to fix and the process
// exits rather than running with an invalid config.
func (c DriverConfig) Validate() error {
	type rangeCheck struct {
		field string
		value int
		min   int
		// strict means value must be > min rather than >= min.
		strict bool
	}

	checks := []rangeCheck{
		{"monitor_interval", c.MonitorIntervalSeconds, 60, false},
		{"table_level_monitor_interval", c.TableLevelMonitorIntervalSeconds, 300, false},
		{"long_running_query_monitor_interval", c.LongRunningQueryMonitorIntervalSeconds, 60, false},
		{"query_monitor_interval", c.QueryMonitorIntervalSeconds, 300, false},
		{"schema_monitor_interval", c.SchemaMonitorIntervalSeconds, 300, false},
		{"agent_health_report_interval", c.AgentHealthReportIntervalSeconds, 0, true},
		{"lr_query_latency_threshold_min", c.LRQueryLatencyThresholdMin, 1, false},
	}

	for _, chk := range checks {
		if chk.strict {
			if chk.value <= chk.min {
				return invalid(chk.field, fmt.Sprintf("must be > %d, got %d", chk.min, chk.value))
			}
			continue
		}
		if chk.value < chk.min {
			return invalid(chk.field, fmt.Sprintf("must be >= %d, got %d", chk.min, chk.value))
		}
	}

	for _, nn := range []struct {
		field string
		value int
	}{
		{"num_table_to_collect_stats", c.NumTableToCollectStats},
		{"num_index_to_collect_stats", c.NumIndexToCollectStats},
		{"num_query_to_collect", c.NumQueryToCollect},
	} {
		if nn.value < 0 {
			return invalid(nn.field, "must be non-negative")
		}
	}

	if c.OrganizationID == "" {
		return invalid("organization_id", "must not be empty")
	}
	if c.DBKey == "" {
		return invalid("db_key", "must not be empty")
	}
	if c.ServerURL == "" {
		return invalid("server_url", "must not be empty")
	}
	if c.EnableS3 && c.S3BucketName == "" {
		return invalid("s3_bucket_name", "must be set when enable_s3 is true")
	}

	switch c.DBType {
	case DBTypeMySQL, DBTypeAuroraMySQL, DBTypePostgres, DBTypeAuroraPostgreSQL, DBTypeMock:
	default:
		return invalid("db_type", fmt.Sprintf("unrecognized db_type %q", c.DBType))
	}

	if c.EnableSSL && c.DBSSLCA == "" && c.DBSSLCert == "" && c.DBSSLKey == "" {
		return invalid("db_ssl_ca/db_ssl_cert/db_ssl_key", "at least one must be set when SSL is enabled")
	}

	if !c.EnableAWSIAMAuth && c.DBPassword == "" {
		return invalid("db_password", "must not be empty unless enable_aws_iam_auth is true")
	}

	return nil
}

func invalid(field, reason string) error {
	return model.NewAgentError(model.KindConfigInvalid, fmt.Sprintf("%s: %s", field, reason), nil)
}
