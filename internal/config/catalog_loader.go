package config

import "context"

// CatalogLoader resolves the ordered list of cloud-metric names available
// for a given catalog key. Implemented by internal/cloudmetrics so that
// package owns both catalog loading and the later query against the cloud
// monitor.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, key string) (instanceMetrics, clusterMetrics []string, err error)
}
