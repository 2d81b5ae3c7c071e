// Package cloudaws centralizes AWS SDK v2 client construction for the
// components of the agent that talk to a cloud provider: the object-store
// sink and the cloud-metrics source. Database connectivity itself never goes
// through this package.
package cloudaws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

const defaultClientRetries = 3

// NewConfig loads the AWS SDK v2 configuration for the given region. Unlike a
// fleet-management tool operating across many accounts, the agent always
// knows its target region from DriverConfig.AWSRegion, so no default region
// fallback is applied here.
func NewConfig(ctx context.Context, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithRetryMaxAttempts(defaultClientRetries),
	)
}
