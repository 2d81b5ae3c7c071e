package config

// FileConfig is the decode target for the external YAML config-file loader:
// a flat key-value document whose keys are a subset of DriverConfig's
// fields. The loader itself lives outside this repository; only the struct
// shape and the merge step are specified here.
type FileConfig struct {
	OrganizationID string `yaml:"organization_id"`
	DBKey          string `yaml:"db_key"`
	APIKey         string `yaml:"api_key"`

	// Target. These are filled in by the cloud-provider discovery layer
	// when db_identifier is set and a describer is configured; otherwise
	// they must be supplied here directly (e.g. for an on-prem target or
	// the mock collector).
	DBIdentifier        string `yaml:"db_identifier"`
	DBClusterIdentifier string `yaml:"db_cluster_identifier"`
	AWSRegion           string `yaml:"aws_region"`
	DBType              string `yaml:"db_type"`
	DBHost              string `yaml:"db_host"`
	DBPort              int    `yaml:"db_port"`
	DBVersion           string `yaml:"db_version"`
	DBUser              string `yaml:"db_user"`
	DBPassword          string `yaml:"db_password"`
	EnableAWSIAMAuth    bool   `yaml:"enable_aws_iam_auth"`
	DBName              string `yaml:"db_name"`
	PostgresDBList      []string `yaml:"postgres_db_list"`

	ServerURL    string   `yaml:"server_url"`
	EnableS3     bool     `yaml:"enable_s3"`
	S3BucketName string   `yaml:"s3_bucket_name"`
	MetricSource []string `yaml:"metric_source"`

	MonitorIntervalSeconds                 int `yaml:"monitor_interval"`
	TableLevelMonitorIntervalSeconds       int `yaml:"table_level_monitor_interval"`
	LongRunningQueryMonitorIntervalSeconds int `yaml:"long_running_query_monitor_interval"`
	QueryMonitorIntervalSeconds            int `yaml:"query_monitor_interval"`
	SchemaMonitorIntervalSeconds           int `yaml:"schema_monitor_interval"`
	AgentHealthReportIntervalSeconds       int `yaml:"agent_health_report_interval"`

	NumTableToCollectStats     int `yaml:"num_table_to_collect_stats"`
	NumIndexToCollectStats     int `yaml:"num_index_to_collect_stats"`
	NumQueryToCollect          int `yaml:"num_query_to_collect"`
	LRQueryLatencyThresholdMin int `yaml:"lr_query_latency_threshold_min"`

	DBSSLCA   string `yaml:"db_ssl_ca"`
	DBSSLCert string `yaml:"db_ssl_cert"`
	DBSSLKey  string `yaml:"db_ssl_key"`
	EnableSSL bool   `yaml:"enable_ssl"`
}

// CLIArgs mirrors the process's startup flags. Every field is a pointer so
// that an unset flag never overwrites a value set by an earlier layer — the
// "unset values never overwrite a set value" rule applies equally to the
// CLI layer.
type CLIArgs struct {
	AWSRegion        *string
	DBIdentifier     *string
	DBType           *string
	DBUser           *string
	DBPassword       *string
	EnableAWSIAMAuth *bool
	APIKey           *string
	DBKey            *string
	OrganizationID   *string
	EnableS3         *bool
	S3BucketName     *string

	DisableTableLevelStats            *bool
	DisableIndexStats                 *bool
	DisableLongRunningQueryMonitoring *bool
	DisableQueryMonitoring            *bool
	DisableSchemaMonitoring           *bool

	OverrideMonitorInterval                 *int
	OverrideTableLevelMonitorInterval       *int
	OverrideLongRunningQueryMonitorInterval *int
	OverrideQueryMonitorInterval            *int
	OverrideSchemaMonitorInterval           *int
	OverrideNumTableToCollectStats          *int
	OverrideNumIndexToCollectStats          *int
	OverrideNumQueryToCollect               *int
}

// EnvArgs models the one recognized environment variable,
// POSTGRES_OTTERTUNE_DB_NAME: a comma-separated list of PostgreSQL logical
// databases. It is ignored when the target is MySQL.
type EnvArgs struct {
	PostgresDBNames []string
}

// Override is the runtime-override layer: config is produced once at start
// and mutated only through this path, which re-enters the Scheduler. Any
// non-nil field replaces the corresponding DriverConfig field when a new
// config is built after a live reconfiguration.
type Override struct {
	MonitorIntervalSeconds                 *int
	TableLevelMonitorIntervalSeconds       *int
	LongRunningQueryMonitorIntervalSeconds *int
	QueryMonitorIntervalSeconds            *int
	SchemaMonitorIntervalSeconds           *int
	NumTableToCollectStats                 *int
	NumIndexToCollectStats                 *int
	NumQueryToCollect                      *int
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
