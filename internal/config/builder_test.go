package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDescriber struct {
	calls int
	info  InstanceInfo
	params []string
}

func (f *fakeDescriber) DescribeInstance(ctx context.Context, id string) (InstanceInfo, error) {
	f.calls++
	return f.info, nil
}

func (f *fakeDescriber) DescribeNonDefaultParameters(ctx context.Context, id string) ([]string, error) {
	return f.params, nil
}

func validFile() FileConfig {
	return FileConfig{
		ServerURL:                        "https://ingest.example.com",
		MonitorIntervalSeconds:           60,
		TableLevelMonitorIntervalSeconds: 300,
		LongRunningQueryMonitorIntervalSeconds: 60,
		QueryMonitorIntervalSeconds:      300,
		SchemaMonitorIntervalSeconds:     300,
		AgentHealthReportIntervalSeconds: 30,
		LRQueryLatencyThresholdMin:       1,
	}
}

func baseCLI() CLIArgs {
	orgID := "org-1"
	dbKey := "db-1"
	pw := "secret"
	dbType := string(DBTypeMock)
	return CLIArgs{
		OrganizationID: &orgID,
		DBKey:          &dbKey,
		DBPassword:     &pw,
		DBType:         &dbType,
	}
}

func TestBuildMemoizesDiscoveryPerIdentifier(t *testing.T) {
	describer := &fakeDescriber{info: InstanceInfo{Host: "h", Port: 5432, Version: "13.4", DBType: DBTypePostgres}}
	b := NewBuilder(describer, nil, nil)

	id := "my-instance"
	cli := baseCLI()
	cli.DBIdentifier = &id

	_, err := b.Build(context.Background(), validFile(), cli, EnvArgs{}, Override{})
	require.NoError(t, err)
	_, err = b.Build(context.Background(), validFile(), cli, EnvArgs{}, Override{})
	require.NoError(t, err)

	assert.Equal(t, 1, describer.calls)
}

func TestBuildNormalizesVersion(t *testing.T) {
	describer := &fakeDescriber{info: InstanceInfo{Host: "h", Port: 5432, Version: "13.4-r1", DBType: DBTypePostgres}}
	b := NewBuilder(describer, nil, nil)

	id := "my-instance"
	cli := baseCLI()
	cli.DBIdentifier = &id

	cfg, err := b.Build(context.Background(), validFile(), cli, EnvArgs{}, Override{})
	require.NoError(t, err)
	assert.Equal(t, "13_4_r1", cfg.DBVersion)
}

func TestOverrideNeverOverwritesWithNil(t *testing.T) {
	b := NewBuilder(nil, nil, nil)
	cfg, err := b.Build(context.Background(), validFile(), baseCLI(), EnvArgs{}, Override{})
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.MonitorIntervalSeconds)

	newInterval := 120
	cfg2, err := b.Build(context.Background(), validFile(), baseCLI(), EnvArgs{}, Override{MonitorIntervalSeconds: &newInterval})
	require.NoError(t, err)
	assert.Equal(t, 120, cfg2.MonitorIntervalSeconds)
}

func TestValidateRejectsBadInterval(t *testing.T) {
	file := validFile()
	file.MonitorIntervalSeconds = 10
	b := NewBuilder(nil, nil, nil)
	_, err := b.Build(context.Background(), file, baseCLI(), EnvArgs{}, Override{})
	require.Error(t, err)
}

func TestEnvIgnoredForMySQL(t *testing.T) {
	b := NewBuilder(nil, nil, nil)
	cfg, err := b.Build(context.Background(), validFile(), baseCLI(), EnvArgs{}, Override{})
	require.NoError(t, err)

	cfg.DBType = DBTypeMySQL
	got := b.applyEnv(cfg, EnvArgs{PostgresDBNames: []string{"a", "b"}})
	assert.Nil(t, got.PostgresDBList)

	cfg.DBType = DBTypePostgres
	got = b.applyEnv(cfg, EnvArgs{PostgresDBNames: []string{"a", "b"}})
	assert.Equal(t, []string{"a", "b"}, got.PostgresDBList)
}
