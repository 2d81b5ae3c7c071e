package cloudaws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/pkg/errors"
)

// Clients holds the per-service AWS SDK v2 clients used by the sink and
// cloud-metrics layers, built from a single shared aws.Config.
type Clients struct {
	S3         *s3.Client
	STS        *sts.Client
	CloudWatch *cloudwatch.Client
}

// Client lazily constructs Clients on first use and reuses them for the
// remaining lifetime of the process, mirroring the lazy, mutex-guarded
// construction used for service clients elsewhere in the driver stack.
type Client struct {
	cfg aws.Config

	mu      sync.Mutex
	clients *Clients
}

// NewClient wraps an already-loaded aws.Config.
func NewClient(cfg aws.Config) *Client {
	return &Client{cfg: cfg}
}

// Service returns the lazily-built set of service clients, building them on
// first call.
func (c *Client) Service() *Clients {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clients == nil {
		c.clients = &Clients{
			S3:         s3.NewFromConfig(c.cfg),
			STS:        sts.NewFromConfig(c.cfg),
			CloudWatch: cloudwatch.NewFromConfig(c.cfg),
		}
	}

	return c.clients
}

// Region returns the region this client was configured with.
func (c *Client) Region() string {
	return c.cfg.Region
}

// AccountID returns the AWS account ID of the credentials in use, primarily
// useful for logging and for deciding whether a configured bucket belongs to
// the agent's own account or requires cross-account role assumption.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	out, err := c.Service().STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", errors.Wrap(err, "failed to get caller identity")
	}

	return aws.ToString(out.Account), nil
}
