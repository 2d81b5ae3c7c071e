package pipeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ottertune/db-agent/internal/config"
	"github.com/ottertune/db-agent/internal/pipeline"
)

func baseConfig() config.DriverConfig {
	return config.DriverConfig{
		MonitorIntervalSeconds:                 60,
		TableLevelMonitorIntervalSeconds:       300,
		LongRunningQueryMonitorIntervalSeconds: 30,
		QueryMonitorIntervalSeconds:            300,
		SchemaMonitorIntervalSeconds:           3600,
	}
}

func TestScheduleDBLevelAlwaysEnabledAndImmediate(t *testing.T) {
	cfg := baseConfig()
	spec := pipeline.Schedule(cfg)[pipeline.KindDBLevel]

	assert.True(t, spec.Enabled)
	assert.True(t, spec.Immediate)
	assert.Equal(t, 60*time.Second, spec.Period)
}

func TestScheduleTableLevelEnabledWhenEitherSubFeatureIsOn(t *testing.T) {
	cfg := baseConfig()
	cfg.DisableTableLevelStats = true
	cfg.DisableIndexStats = false
	assert.True(t, pipeline.Schedule(cfg)[pipeline.KindTableLevel].Enabled)

	cfg.DisableTableLevelStats = false
	cfg.DisableIndexStats = true
	assert.True(t, pipeline.Schedule(cfg)[pipeline.KindTableLevel].Enabled)

	cfg.DisableTableLevelStats = true
	cfg.DisableIndexStats = true
	assert.False(t, pipeline.Schedule(cfg)[pipeline.KindTableLevel].Enabled)
}

func TestScheduleRemainingJobsFollowTheirOwnDisableFlag(t *testing.T) {
	cfg := baseConfig()
	cfg.DisableLongRunningQueryMonitoring = true
	cfg.DisableQueryMonitoring = true
	cfg.DisableSchemaMonitoring = true

	schedule := pipeline.Schedule(cfg)
	assert.False(t, schedule[pipeline.KindLongRunningQuery].Enabled)
	assert.False(t, schedule[pipeline.KindQuery].Enabled)
	assert.False(t, schedule[pipeline.KindSchema].Enabled)

	cfg.DisableLongRunningQueryMonitoring = false
	cfg.DisableQueryMonitoring = false
	cfg.DisableSchemaMonitoring = false

	schedule = pipeline.Schedule(cfg)
	assert.True(t, schedule[pipeline.KindLongRunningQuery].Enabled)
	assert.True(t, schedule[pipeline.KindQuery].Enabled)
	assert.True(t, schedule[pipeline.KindSchema].Enabled)
	assert.Equal(t, 30*time.Second, schedule[pipeline.KindLongRunningQuery].Period)
	assert.Equal(t, 300*time.Second, schedule[pipeline.KindQuery].Period)
	assert.Equal(t, 3600*time.Second, schedule[pipeline.KindSchema].Period)
}

func TestScheduleNonDBLevelJobsAreNeverImmediate(t *testing.T) {
	schedule := pipeline.Schedule(baseConfig())
	for kind, spec := range schedule {
		if kind == pipeline.KindDBLevel {
			continue
		}
		assert.Falsef(t, spec.Immediate, "%s should defer its first run by one interval", kind)
	}
}
