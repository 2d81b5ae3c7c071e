package main

import (
	"github.com/spf13/cobra"

	"github.com/ottertune/db-agent/internal/config"
)

// agentFlags mirrors the process's startup flags. Values are collected
// unconditionally by pflag; toCLIArgs later consults cmd.Flags().Changed so
// that an unset flag never overwrites a value already set by the config
// file's layering order.
type agentFlags struct {
	configFile   string
	catalogDir   string
	logVerbosity string
	machineLogs  bool
	metricsPort  int

	awsRegion        string
	dbIdentifier     string
	dbType           string
	dbUser           string
	dbPassword       string
	enableAWSIAMAuth bool
	apiKey           string
	dbKey            string
	organizationID   string
	enableS3         bool
	s3BucketName     string

	disableTableLevelStats            bool
	disableIndexStats                 bool
	disableLongRunningQueryMonitoring bool
	disableQueryMonitoring            bool
	disableSchemaMonitoring           bool

	overrideMonitorInterval                 int
	overrideTableLevelMonitorInterval       int
	overrideLongRunningQueryMonitorInterval int
	overrideQueryMonitorInterval            int
	overrideSchemaMonitorInterval           int
	overrideNumTableToCollectStats          int
	overrideNumIndexToCollectStats          int
	overrideNumQueryToCollect               int
}

func (f *agentFlags) addFlags(command *cobra.Command) {
	command.Flags().StringVar(&f.configFile, "config", "", "Path to the agent's YAML config file.")
	command.Flags().StringVar(&f.catalogDir, "metrics-catalog-dir", "", "Directory holding the instance/cluster cloud-metrics catalog files.")
	command.Flags().StringVar(&f.logVerbosity, "log-verbosity", "info", "Log level: debug, info, warn, error.")
	command.Flags().BoolVar(&f.machineLogs, "machine-logs", false, "Output the logs in machine readable format.")
	command.Flags().IntVar(&f.metricsPort, "metrics-port", 8087, "Port the local Prometheus /metrics endpoint listens on.")

	command.Flags().StringVar(&f.awsRegion, "aws-region", "", "The AWS region the target database lives in.")
	command.Flags().StringVar(&f.dbIdentifier, "db-identifier", "", "The cloud-provider instance or cluster identifier of the target database.")
	command.Flags().StringVar(&f.dbType, "db-type", "", "The target database engine: mysql, aurora_mysql, postgres, aurora_postgresql, or mock.")
	command.Flags().StringVar(&f.dbUser, "db-username", "", "The database user the agent connects as.")
	command.Flags().StringVar(&f.dbPassword, "db-password", "", "The database user's password. Replaced by a minted token when --enable-aws-iam-auth is set and the build supplies a token minter.")
	command.Flags().BoolVar(&f.enableAWSIAMAuth, "enable-aws-iam-auth", false, "Authenticate to the database with a minted AWS IAM token instead of a static password.")
	command.Flags().StringVar(&f.apiKey, "api-key", "", "The ingestion service API key.")
	command.Flags().StringVar(&f.dbKey, "db-key", "", "The logical identifier this database is registered under with the ingestion service.")
	command.Flags().StringVar(&f.organizationID, "organization-id", "", "The organization this database belongs to.")
	command.Flags().BoolVar(&f.enableS3, "enable-s3", false, "Ship payloads to an S3-like bucket instead of the HTTPS ingestion endpoint.")
	command.Flags().StringVar(&f.s3BucketName, "s3-bucket-name", "", "The bucket to ship payloads to when --enable-s3 is set.")

	command.Flags().BoolVar(&f.disableTableLevelStats, "disable-table-level-stats", false, "Disable table-level statistics collection.")
	command.Flags().BoolVar(&f.disableIndexStats, "disable-index-stats", false, "Disable index-level statistics collection.")
	command.Flags().BoolVar(&f.disableLongRunningQueryMonitoring, "disable-long-running-query-monitoring", false, "Disable long-running query monitoring.")
	command.Flags().BoolVar(&f.disableQueryMonitoring, "disable-query-monitoring", false, "Disable query digest monitoring.")
	command.Flags().BoolVar(&f.disableSchemaMonitoring, "disable-schema-monitoring", false, "Disable schema monitoring.")

	command.Flags().IntVar(&f.overrideMonitorInterval, "override-monitor-interval", 0, "Override the db-level monitor interval, in seconds.")
	command.Flags().IntVar(&f.overrideTableLevelMonitorInterval, "override-table-level-monitor-interval", 0, "Override the table-level monitor interval, in seconds.")
	command.Flags().IntVar(&f.overrideLongRunningQueryMonitorInterval, "override-long-running-query-monitor-interval", 0, "Override the long-running-query monitor interval, in seconds.")
	command.Flags().IntVar(&f.overrideQueryMonitorInterval, "override-query-monitor-interval", 0, "Override the query monitor interval, in seconds.")
	command.Flags().IntVar(&f.overrideSchemaMonitorInterval, "override-schema-monitor-interval", 0, "Override the schema monitor interval, in seconds.")
	command.Flags().IntVar(&f.overrideNumTableToCollectStats, "override-num-table-to-collect-stats", 0, "Override the number of tables to collect table-level stats for.")
	command.Flags().IntVar(&f.overrideNumIndexToCollectStats, "override-num-index-to-collect-stats", 0, "Override the number of indexes to collect index-level stats for.")
	command.Flags().IntVar(&f.overrideNumQueryToCollect, "override-num-query-to-collect", 0, "Override the number of queries to collect per tick.")
}

// toCLIArgs converts only the flags the user actually set on the command
// line into config.CLIArgs, preserving the "unset flag never overwrites an
// earlier layer" rule.
func (f *agentFlags) toCLIArgs(command *cobra.Command) config.CLIArgs {
	var args config.CLIArgs
	changed := command.Flags().Changed

	if changed("aws-region") {
		args.AWSRegion = &f.awsRegion
	}
	if changed("db-identifier") {
		args.DBIdentifier = &f.dbIdentifier
	}
	if changed("db-type") {
		args.DBType = &f.dbType
	}
	if changed("db-username") {
		args.DBUser = &f.dbUser
	}
	if changed("db-password") {
		args.DBPassword = &f.dbPassword
	}
	if changed("enable-aws-iam-auth") {
		args.EnableAWSIAMAuth = &f.enableAWSIAMAuth
	}
	if changed("api-key") {
		args.APIKey = &f.apiKey
	}
	if changed("db-key") {
		args.DBKey = &f.dbKey
	}
	if changed("organization-id") {
		args.OrganizationID = &f.organizationID
	}
	if changed("enable-s3") {
		args.EnableS3 = &f.enableS3
	}
	if changed("s3-bucket-name") {
		args.S3BucketName = &f.s3BucketName
	}

	if changed("disable-table-level-stats") {
		args.DisableTableLevelStats = &f.disableTableLevelStats
	}
	if changed("disable-index-stats") {
		args.DisableIndexStats = &f.disableIndexStats
	}
	if changed("disable-long-running-query-monitoring") {
		args.DisableLongRunningQueryMonitoring = &f.disableLongRunningQueryMonitoring
	}
	if changed("disable-query-monitoring") {
		args.DisableQueryMonitoring = &f.disableQueryMonitoring
	}
	if changed("disable-schema-monitoring") {
		args.DisableSchemaMonitoring = &f.disableSchemaMonitoring
	}

	if changed("override-monitor-interval") {
		args.OverrideMonitorInterval = &f.overrideMonitorInterval
	}
	if changed("override-table-level-monitor-interval") {
		args.OverrideTableLevelMonitorInterval = &f.overrideTableLevelMonitorInterval
	}
	if changed("override-long-running-query-monitor-interval") {
		args.OverrideLongRunningQueryMonitorInterval = &f.overrideLongRunningQueryMonitorInterval
	}
	if changed("override-query-monitor-interval") {
		args.OverrideQueryMonitorInterval = &f.overrideQueryMonitorInterval
	}
	if changed("override-schema-monitor-interval") {
		args.OverrideSchemaMonitorInterval = &f.overrideSchemaMonitorInterval
	}
	if changed("override-num-table-to-collect-stats") {
		args.OverrideNumTableToCollectStats = &f.overrideNumTableToCollectStats
	}
	if changed("override-num-index-to-collect-stats") {
		args.OverrideNumIndexToCollectStats = &f.overrideNumIndexToCollectStats
	}
	if changed("override-num-query-to-collect") {
		args.OverrideNumQueryToCollect = &f.overrideNumQueryToCollect
	}

	return args
}
