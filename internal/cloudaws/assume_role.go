package cloudaws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
)

// AssumeRoleCredentials returns a credentials provider that assumes the given
// role, refreshing the short-lived session credentials automatically. This is
// used by the object-store sink when the configured bucket is the
// OtterTune-owned bucket rather than a bucket in the customer's own account:
// the customer-side agent has no standing credentials for that account, so
// it must assume a fixed cross-account role via STS.
func (c *Client) AssumeRoleCredentials(roleARN, sessionName string) aws.CredentialsProvider {
	provider := stscreds.NewAssumeRoleProvider(c.Service().STS, roleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = sessionName
	})

	return aws.NewCredentialsCache(provider)
}
