package cloudmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueriesEmptyDimensionValueYieldsNoQueries(t *testing.T) {
	qs := buildQueries([]string{"CPUUtilization"}, dimensionInstance, "")
	assert.Empty(t, qs)
}

func TestBuildQueriesIDsAreMetricPrefixed(t *testing.T) {
	qs := buildQueries([]string{"CPUUtilization", "FreeableMemory"}, dimensionInstance, "mydb")
	assert.Len(t, qs, 2)
	assert.Equal(t, "id_CPUUtilization", *qs[0].Id)
	assert.Equal(t, "id_FreeableMemory", *qs[1].Id)
	assert.Equal(t, "mydb", *qs[0].MetricStat.Metric.Dimensions[0].Value)
}
