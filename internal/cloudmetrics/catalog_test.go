package cloudmetrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCatalogReadsNamesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "instance"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cluster"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "instance", "mysql-8_0.json"),
		[]byte(`[{"name":"CPUUtilization","unit":"Percent"},{"name":"FreeableMemory"}]`),
		0o644,
	))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "cluster", "mysql-8_0.json"),
		[]byte(`[{"name":"VolumeBytesUsed"}]`),
		0o644,
	))

	loader := NewCatalogLoader(dir)
	instance, cluster, err := loader.LoadCatalog(context.Background(), "mysql-8_0")
	require.NoError(t, err)
	require.Equal(t, []string{"CPUUtilization", "FreeableMemory"}, instance)
	require.Equal(t, []string{"VolumeBytesUsed"}, cluster)
}

func TestLoadCatalogMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	loader := NewCatalogLoader(dir)
	instance, cluster, err := loader.LoadCatalog(context.Background(), "postgres-13")
	require.NoError(t, err)
	require.Empty(t, instance)
	require.Empty(t, cluster)
}
