package telemetry

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/cuemby/keepalive/pkg/types"
)

// cloudWatchAPI is the part of the CloudWatch client the backend uses.
// The SDK has no mock, tests provide their own.
type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// CloudWatchBackend publishes to and queries Amazon CloudWatch
type CloudWatchBackend struct {
	client cloudWatchAPI
}

// NewCloudWatchBackend loads the default AWS credential chain for region
func NewCloudWatchBackend(ctx context.Context, region string) (*CloudWatchBackend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &CloudWatchBackend{client: cloudwatch.NewFromConfig(cfg)}, nil
}

// PutMetrics implements Backend with one PutMetricData call
func (b *CloudWatchBackend) PutMetrics(ctx context.Context, namespace string, batch []MetricDescriptor) error {
	data := make([]cwtypes.MetricDatum, 0, len(batch))
	for _, d := range batch {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(d.Name),
			Value:      aws.Float64(d.Value),
			Unit:       cwtypes.StandardUnit(d.Unit),
			Timestamp:  aws.Time(d.Timestamp),
			Dimensions: toCloudWatchDimensions(d.Dimensions),
		})
	}

	_, err := b.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

// QueryMetric implements Backend with GetMetricStatistics
func (b *CloudWatchBackend) QueryMetric(ctx context.Context, q Query) ([]DataPoint, error) {
	stat := q.Statistic
	if stat == "" {
		stat = StatisticAverage
	}

	out, err := b.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(q.Namespace),
		MetricName: aws.String(q.Name),
		Dimensions: toCloudWatchDimensions(q.Dimensions),
		StartTime:  aws.Time(q.Start),
		EndTime:    aws.Time(q.End),
		Period:     aws.Int32(int32(q.Period.Seconds())),
		Statistics: []cwtypes.Statistic{cwtypes.Statistic(stat)},
	})
	if err != nil {
		return nil, fmt.Errorf("get metric statistics: %w", err)
	}

	points := make([]DataPoint, 0, len(out.Datapoints))
	for _, dp := range out.Datapoints {
		v := datapointValue(dp, stat)
		if v == nil || dp.Timestamp == nil {
			continue
		}
		points = append(points, DataPoint{Timestamp: *dp.Timestamp, Value: *v})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// Close implements Backend
func (b *CloudWatchBackend) Close() error {
	return nil
}

func toCloudWatchDimensions(dims []types.Dimension) []cwtypes.Dimension {
	out := make([]cwtypes.Dimension, 0, len(dims))
	for _, d := range dims {
		out = append(out, cwtypes.Dimension{Name: aws.String(d.Name), Value: aws.String(d.Value)})
	}
	return out
}

func datapointValue(dp cwtypes.Datapoint, stat string) *float64 {
	switch stat {
	case StatisticSum:
		return dp.Sum
	case StatisticMinimum:
		return dp.Minimum
	case StatisticMaximum:
		return dp.Maximum
	case StatisticSampleCount:
		return dp.SampleCount
	default:
		return dp.Average
	}
}
