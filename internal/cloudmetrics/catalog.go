// Package cloudmetrics resolves and retrieves the cloud-monitor metrics
// merged into the DB-level payload. It owns both the catalog file lookup
// (what metric names to ask for) and the CloudWatch query itself.
package cloudmetrics

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// catalogEntry mirrors one line of a {key}.json catalog file. Only the name
// field is meaningful to the agent; the catalog files carry additional
// metadata (unit, description) that the ingestion service uses instead.
type catalogEntry struct {
	Name string `json:"name"`
}

// CatalogLoader implements config.CatalogLoader by reading
// "{instance,cluster}/{key}.json" files from a directory on disk.
type CatalogLoader struct {
	Dir string
}

// NewCatalogLoader returns a loader rooted at dir.
func NewCatalogLoader(dir string) *CatalogLoader {
	return &CatalogLoader{Dir: dir}
}

// LoadCatalog reads the instance- and cluster-metric catalog files for key,
// returning just the ordered list of metric names in each.
func (l *CatalogLoader) LoadCatalog(ctx context.Context, key string) ([]string, []string, error) {
	instanceMetrics, err := l.loadNames(filepath.Join(l.Dir, "instance", key+".json"))
	if err != nil {
		return nil, nil, err
	}
	clusterMetrics, err := l.loadNames(filepath.Join(l.Dir, "cluster", key+".json"))
	if err != nil {
		return nil, nil, err
	}
	return instanceMetrics, clusterMetrics, nil
}

func (l *CatalogLoader) loadNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read metrics catalog %s", path)
	}

	var entries []catalogEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, errors.Wrapf(err, "decode metrics catalog %s", path)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names, nil
}
