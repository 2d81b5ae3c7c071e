package pipeline

import (
	"time"

	"github.com/ottertune/db-agent/internal/config"
)

// ScheduleSpec is the schedule the Manager should apply to one job, derived
// fresh from config on every build or reconfiguration.
type ScheduleSpec struct {
	Enabled   bool
	Period    time.Duration
	Immediate bool
}

// Schedule derives the five jobs' enablement and interval from config:
// DB-level always runs; table-level runs when either table or index stats
// is enabled; the rest are gated by their own disable flag.
func Schedule(cfg config.DriverConfig) map[Kind]ScheduleSpec {
	return map[Kind]ScheduleSpec{
		KindDBLevel: {
			Enabled:   true,
			Period:    time.Duration(cfg.MonitorIntervalSeconds) * time.Second,
			Immediate: true,
		},
		KindTableLevel: {
			Enabled: !cfg.DisableTableLevelStats || !cfg.DisableIndexStats,
			Period:  time.Duration(cfg.TableLevelMonitorIntervalSeconds) * time.Second,
		},
		KindLongRunningQuery: {
			Enabled: !cfg.DisableLongRunningQueryMonitoring,
			Period:  time.Duration(cfg.LongRunningQueryMonitorIntervalSeconds) * time.Second,
		},
		KindQuery: {
			Enabled: !cfg.DisableQueryMonitoring,
			Period:  time.Duration(cfg.QueryMonitorIntervalSeconds) * time.Second,
		},
		KindSchema: {
			Enabled: !cfg.DisableSchemaMonitoring,
			Period:  time.Duration(cfg.SchemaMonitorIntervalSeconds) * time.Second,
		},
	}
}
