package config

import "context"

// InstanceInfo is what the cloud-provider discovery collaborator resolves
// for a given instance identifier. The collaborator itself — RDS Describe*
// calls, IAM token minting — is an external dependency; only the interface
// lives in this repository.
type InstanceInfo struct {
	Host      string
	Port      int
	Version   string
	DBType    DBType
}

// InstanceDescriber resolves cloud-instance metadata needed to fill in
// db_host/db_port/db_version/db_type and the list of user-modified
// parameters, memoized per identifier by Builder.
type InstanceDescriber interface {
	DescribeInstance(ctx context.Context, dbIdentifier string) (InstanceInfo, error)
	DescribeNonDefaultParameters(ctx context.Context, dbIdentifier string) ([]string, error)
}

// TokenMinter mints a short-lived IAM authentication token used in place of
// db_password when enable_aws_iam_auth is true. Minting happens immediately
// before every connection, not just at config-build time.
type TokenMinter interface {
	MintAuthToken(ctx context.Context, host string, port int, user string) (string, error)
}
