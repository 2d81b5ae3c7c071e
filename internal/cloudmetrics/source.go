package cloudmetrics

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	queryWindow    = 10 * time.Minute
	samplingPeriod = 60
	namespaceRDS   = "AWS/RDS"

	dimensionInstance = "DBInstanceIdentifier"
	dimensionCluster  = "DBClusterIdentifier"
)

// Request names the identifiers and metric names the Source should query:
// the instance and cluster identifiers and the list of metric names to
// retrieve for each. The region is that of the CloudWatch client the Source
// was built with.
type Request struct {
	DBIdentifier        string
	DBClusterIdentifier string
	InstanceMetrics     []string
	ClusterMetrics      []string
}

// Source queries AWS CloudWatch for the most recent RDS instance- and
// cluster-level metrics.
type Source struct {
	client *cloudwatch.Client
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewSource wraps an already-constructed CloudWatch client.
func NewSource(client *cloudwatch.Client, log logrus.FieldLogger) *Source {
	return &Source{client: client, log: log, now: time.Now}
}

// Collect issues one batch GetMetricData query covering both instance- and
// cluster-scoped metrics and returns the newest value per metric name,
// keyed exactly as requested (no source_tag prefixing — the caller nests
// the result under metrics_data.global.{source_tag}).
func (s *Source) Collect(ctx context.Context, req Request) (map[string]float64, error) {
	var queries []types.MetricDataQuery
	queries = append(queries, buildQueries(req.InstanceMetrics, dimensionInstance, req.DBIdentifier)...)
	queries = append(queries, buildQueries(req.ClusterMetrics, dimensionCluster, req.DBClusterIdentifier)...)

	if len(queries) == 0 {
		return map[string]float64{}, nil
	}

	end := s.now().UTC()
	start := end.Add(-queryWindow)

	out, err := s.client.GetMetricData(ctx, &cloudwatch.GetMetricDataInput{
		MetricDataQueries: queries,
		StartTime:         aws.Time(start),
		EndTime:           aws.Time(end),
		ScanBy:            types.ScanByTimestampDescending,
	})
	if err != nil {
		return nil, errors.Wrap(err, "query cloudwatch metric data")
	}

	result := make(map[string]float64, len(out.MetricDataResults))
	for _, r := range out.MetricDataResults {
		name := strings.TrimPrefix(aws.ToString(r.Id), "id_")
		if len(r.Values) == 0 {
			s.log.WithField("metric", name).Warn("no cloudwatch data points for metric")
			continue
		}
		result[name] = r.Values[0]
	}
	return result, nil
}

func buildQueries(metrics []string, dimensionName, dimensionValue string) []types.MetricDataQuery {
	if dimensionValue == "" {
		return nil
	}
	queries := make([]types.MetricDataQuery, 0, len(metrics))
	for _, metric := range metrics {
		queries = append(queries, types.MetricDataQuery{
			Id: aws.String("id_" + metric),
			MetricStat: &types.MetricStat{
				Metric: &types.Metric{
					Namespace:  aws.String(namespaceRDS),
					MetricName: aws.String(metric),
					Dimensions: []types.Dimension{
						{Name: aws.String(dimensionName), Value: aws.String(dimensionValue)},
					},
				},
				Period: aws.Int32(samplingPeriod),
				Stat:   aws.String("Average"),
			},
		})
	}
	return queries
}
