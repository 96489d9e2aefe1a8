// Package telemetry records refresh outcomes and verdicts. The CloudWatch
// implementation is used when ENABLE_METRICS is set; otherwise Noop.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"rainwatch/internal/types"
)

// Result is the outcome of a refresh cycle.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
	ResultSkipped Result = "skipped"
)

// Metrics is the recording surface used by the refresh loop.
type Metrics interface {
	RecordRefresh(ctx context.Context, result Result, duration time.Duration)
	RecordVerdict(ctx context.Context, kind types.VerdictKind)
	RecordUpstreamFailure(ctx context.Context, source string)
}

// Noop discards all metrics.
type Noop struct{}

func (Noop) RecordRefresh(context.Context, Result, time.Duration) {}
func (Noop) RecordVerdict(context.Context, types.VerdictKind)     {}
func (Noop) RecordUpstreamFailure(context.Context, string)        {}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ Metrics = (*CloudWatchMetrics)(nil)

// CloudWatchMetrics emits:
//   - RefreshAttempt: Dims {Result}, one per cycle
//   - RefreshLatency: Dims {Result}, cycle duration in milliseconds
//   - Verdict: Dims {Verdict}, one per successful cycle
//   - UpstreamFailure: Dims {Source}, one per failed collaborator call
//
// Publishing failures are logged and otherwise ignored.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics. An empty namespace
// falls back to types.MetricNamespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRefresh emits the attempt counter and the latency in one call.
func (m *CloudWatchMetrics) RecordRefresh(ctx context.Context, result Result, duration time.Duration) {
	dims := []cwtypes.Dimension{dimension(types.DimResult, string(result))}
	m.put(ctx, "refresh",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricRefreshAttempt),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricRefreshLatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

// RecordVerdict counts the verdict produced by a successful cycle.
func (m *CloudWatchMetrics) RecordVerdict(ctx context.Context, kind types.VerdictKind) {
	m.put(ctx, "verdict", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricVerdict),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dimension(types.DimVerdict, string(kind))},
	})
}

// RecordUpstreamFailure counts a failed call to source ("geolocation" or
// "weather").
func (m *CloudWatchMetrics) RecordUpstreamFailure(ctx context.Context, source string) {
	m.put(ctx, "upstream failure", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricUpstreamFailure),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dimension(types.DimSource, source)},
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, what string, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.WarnContext(ctx, "failed to record "+what+" metric",
			"error", err.Error(),
			"namespace", m.namespace,
		)
	}
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
