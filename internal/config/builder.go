package config

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Builder composes the five layers in a fixed order: file -> cloud-provider
// discovery -> cloud-metrics catalog -> CLI -> environment -> runtime
// overrides. Later layers overwrite earlier layers key-for-key; a nil/zero
// field in a pointer-typed layer never overwrites a value already set.
type Builder struct {
	Describer    InstanceDescriber
	TokenMinter  TokenMinter
	CatalogLoad  CatalogLoader

	mu        sync.Mutex
	discovered map[string]InstanceInfo // memoized per dbIdentifier
}

// NewBuilder wires the three external collaborators. Any of them may be nil
// if the corresponding layer is not needed (e.g. a mock/offline run never
// calls Describer or TokenMinter).
func NewBuilder(describer InstanceDescriber, minter TokenMinter, catalog CatalogLoader) *Builder {
	return &Builder{
		Describer:  describer,
		TokenMinter: minter,
		CatalogLoad: catalog,
		discovered: make(map[string]InstanceInfo),
	}
}

// Build applies all five layers in order and validates the result. The
// returned DriverConfig is immutable from the caller's point of view; later
// reconfiguration calls Build again and swaps the pointer.
func (b *Builder) Build(ctx context.Context, file FileConfig, cli CLIArgs, env EnvArgs, override Override) (DriverConfig, error) {
	var cfg DriverConfig

	cfg = b.applyFile(cfg, file)

	// Discovery looks up the instance by identifier, which the CLI may supply.
	setStr(&cfg.DBIdentifier, cli.DBIdentifier)

	cfg, err := b.applyDiscovery(ctx, cfg)
	if err != nil {
		return DriverConfig{}, errors.Wrap(err, "cloud-provider discovery failed")
	}

	cfg, err = b.applyMetricsCatalog(ctx, cfg)
	if err != nil {
		return DriverConfig{}, errors.Wrap(err, "cloud-metrics catalog lookup failed")
	}

	cfg = b.applyCLI(cfg, cli)
	cfg = b.applyEnv(cfg, env)
	cfg = b.applyOverrides(cfg, override)
	cfg = b.applyIAMAuth(ctx, cfg)

	if err := cfg.Validate(); err != nil {
		return DriverConfig{}, err
	}

	return cfg, nil
}

func (b *Builder) applyFile(cfg DriverConfig, file FileConfig) DriverConfig {
	cfg.OrganizationID = file.OrganizationID
	cfg.DBKey = file.DBKey
	cfg.APIKey = file.APIKey

	cfg.DBIdentifier = file.DBIdentifier
	cfg.DBClusterIdentifier = file.DBClusterIdentifier
	cfg.AWSRegion = file.AWSRegion
	cfg.DBType = DBType(file.DBType)
	cfg.DBHost = file.DBHost
	cfg.DBPort = file.DBPort
	cfg.DBVersion = NormalizeVersion(file.DBVersion)
	cfg.DBUser = file.DBUser
	cfg.DBPassword = file.DBPassword
	cfg.EnableAWSIAMAuth = file.EnableAWSIAMAuth
	cfg.DBName = file.DBName
	cfg.PostgresDBList = append([]string(nil), file.PostgresDBList...)

	cfg.ServerURL = file.ServerURL
	cfg.EnableS3 = file.EnableS3
	cfg.S3BucketName = file.S3BucketName
	cfg.MetricSource = append([]string(nil), file.MetricSource...)
	cfg.MonitorIntervalSeconds = file.MonitorIntervalSeconds
	cfg.TableLevelMonitorIntervalSeconds = file.TableLevelMonitorIntervalSeconds
	cfg.LongRunningQueryMonitorIntervalSeconds = file.LongRunningQueryMonitorIntervalSeconds
	cfg.QueryMonitorIntervalSeconds = file.QueryMonitorIntervalSeconds
	cfg.SchemaMonitorIntervalSeconds = file.SchemaMonitorIntervalSeconds
	cfg.AgentHealthReportIntervalSeconds = file.AgentHealthReportIntervalSeconds
	cfg.NumTableToCollectStats = file.NumTableToCollectStats
	cfg.NumIndexToCollectStats = file.NumIndexToCollectStats
	cfg.NumQueryToCollect = file.NumQueryToCollect
	cfg.LRQueryLatencyThresholdMin = file.LRQueryLatencyThresholdMin
	cfg.DBSSLCA = file.DBSSLCA
	cfg.DBSSLCert = file.DBSSLCert
	cfg.DBSSLKey = file.DBSSLKey
	cfg.EnableSSL = file.EnableSSL
	return cfg
}

// applyDiscovery resolves db_host/db_port/db_version/db_type and the
// non-default parameter list by calling the discovery collaborator,
// memoizing per dbIdentifier to avoid duplicate calls.
func (b *Builder) applyDiscovery(ctx context.Context, cfg DriverConfig) (DriverConfig, error) {
	if b.Describer == nil || cfg.DBIdentifier == "" {
		return cfg, nil
	}

	b.mu.Lock()
	info, ok := b.discovered[cfg.DBIdentifier]
	b.mu.Unlock()

	if !ok {
		var err error
		info, err = b.Describer.DescribeInstance(ctx, cfg.DBIdentifier)
		if err != nil {
			return cfg, err
		}
		b.mu.Lock()
		b.discovered[cfg.DBIdentifier] = info
		b.mu.Unlock()
	}

	cfg.DBHost = info.Host
	cfg.DBPort = info.Port
	cfg.DBVersion = NormalizeVersion(info.Version)
	cfg.DBType = info.DBType

	params, err := b.Describer.DescribeNonDefaultParameters(ctx, cfg.DBIdentifier)
	if err != nil {
		return cfg, err
	}
	cfg.DBNonDefaultParameters = params

	return cfg, nil
}

// applyMetricsCatalog selects the catalog file keyed by the normalized
// "{db_type}-{db_version}" and fills metrics_to_retrieve_from_source for
// every tag in metric_source.
func (b *Builder) applyMetricsCatalog(ctx context.Context, cfg DriverConfig) (DriverConfig, error) {
	if b.CatalogLoad == nil || len(cfg.MetricSource) == 0 || cfg.DBType == "" {
		return cfg, nil
	}

	key := MetricsCatalogKey(cfg.DBType, cfg.DBVersion)
	instanceMetrics, clusterMetrics, err := b.CatalogLoad.LoadCatalog(ctx, key)
	if err != nil {
		return cfg, err
	}

	cfg.MetricsToRetrieveFromSource = map[string][]string{
		"instance_metrics": instanceMetrics,
		"cluster_metrics":  clusterMetrics,
	}
	return cfg, nil
}

func (b *Builder) applyCLI(cfg DriverConfig, cli CLIArgs) DriverConfig {
	setStr(&cfg.AWSRegion, cli.AWSRegion)
	setStr(&cfg.DBIdentifier, cli.DBIdentifier)
	if cli.DBType != nil {
		cfg.DBType = DBType(*cli.DBType)
	}
	setStr(&cfg.DBUser, cli.DBUser)
	setStr(&cfg.DBPassword, cli.DBPassword)
	setBool(&cfg.EnableAWSIAMAuth, cli.EnableAWSIAMAuth)
	setStr(&cfg.APIKey, cli.APIKey)
	setStr(&cfg.DBKey, cli.DBKey)
	setStr(&cfg.OrganizationID, cli.OrganizationID)
	setBool(&cfg.EnableS3, cli.EnableS3)
	setStr(&cfg.S3BucketName, cli.S3BucketName)

	setBool(&cfg.DisableTableLevelStats, cli.DisableTableLevelStats)
	setBool(&cfg.DisableIndexStats, cli.DisableIndexStats)
	setBool(&cfg.DisableLongRunningQueryMonitoring, cli.DisableLongRunningQueryMonitoring)
	setBool(&cfg.DisableQueryMonitoring, cli.DisableQueryMonitoring)
	setBool(&cfg.DisableSchemaMonitoring, cli.DisableSchemaMonitoring)

	setInt(&cfg.MonitorIntervalSeconds, cli.OverrideMonitorInterval)
	setInt(&cfg.TableLevelMonitorIntervalSeconds, cli.OverrideTableLevelMonitorInterval)
	setInt(&cfg.LongRunningQueryMonitorIntervalSeconds, cli.OverrideLongRunningQueryMonitorInterval)
	setInt(&cfg.QueryMonitorIntervalSeconds, cli.OverrideQueryMonitorInterval)
	setInt(&cfg.SchemaMonitorIntervalSeconds, cli.OverrideSchemaMonitorInterval)
	setInt(&cfg.NumTableToCollectStats, cli.OverrideNumTableToCollectStats)
	setInt(&cfg.NumIndexToCollectStats, cli.OverrideNumIndexToCollectStats)
	setInt(&cfg.NumQueryToCollect, cli.OverrideNumQueryToCollect)

	return cfg
}

func (b *Builder) applyEnv(cfg DriverConfig, env EnvArgs) DriverConfig {
	if cfg.DBType == DBTypeMySQL || cfg.DBType == DBTypeAuroraMySQL {
		return cfg
	}
	if len(env.PostgresDBNames) > 0 {
		cfg.PostgresDBList = append([]string(nil), env.PostgresDBNames...)
	}
	return cfg
}

func (b *Builder) applyOverrides(cfg DriverConfig, o Override) DriverConfig {
	setInt(&cfg.MonitorIntervalSeconds, o.MonitorIntervalSeconds)
	setInt(&cfg.TableLevelMonitorIntervalSeconds, o.TableLevelMonitorIntervalSeconds)
	setInt(&cfg.LongRunningQueryMonitorIntervalSeconds, o.LongRunningQueryMonitorIntervalSeconds)
	setInt(&cfg.QueryMonitorIntervalSeconds, o.QueryMonitorIntervalSeconds)
	setInt(&cfg.SchemaMonitorIntervalSeconds, o.SchemaMonitorIntervalSeconds)
	setInt(&cfg.NumTableToCollectStats, o.NumTableToCollectStats)
	setInt(&cfg.NumIndexToCollectStats, o.NumIndexToCollectStats)
	setInt(&cfg.NumQueryToCollect, o.NumQueryToCollect)
	return cfg
}

// applyIAMAuth replaces db_password with a freshly minted token immediately
// before it would otherwise be used. Re-minting happens again before every
// connection (see internal/collector), so this step only needs to run when
// the config is first built.
func (b *Builder) applyIAMAuth(ctx context.Context, cfg DriverConfig) DriverConfig {
	if !cfg.EnableAWSIAMAuth || b.TokenMinter == nil {
		return cfg
	}
	token, err := b.TokenMinter.MintAuthToken(ctx, cfg.DBHost, cfg.DBPort, cfg.DBUser)
	if err == nil {
		cfg.DBPassword = token
	}
	return cfg
}

// NormalizeVersion replaces dots and dashes with underscores, the
// db_version normalization rule every config layer applies consistently.
func NormalizeVersion(v string) string {
	v = strings.ReplaceAll(v, ".", "_")
	v = strings.ReplaceAll(v, "-", "_")
	return v
}
