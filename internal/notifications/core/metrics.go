package core

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"casenotify/internal/types"
)

// MetricNamespace is the CloudWatch namespace for all engine metrics.
const MetricNamespace = "CaseNotify"

// Metric and dimension names.
const (
	metricDispatch        = "NotificationDispatch"
	metricDispatchLatency = "NotificationDispatchLatency"
	metricDeferral        = "NotificationDeferred"

	dimChannel = "Channel"
	dimResult  = "Result"
	dimEvent   = "Event"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertion that CloudWatchMetrics implements NotificationMetrics.
var _ NotificationMetrics = (*CloudWatchMetrics)(nil)

// CloudWatchMetrics implements NotificationMetrics by emitting metrics to AWS
// CloudWatch. Metric publication failures are logged and swallowed; metrics
// must never fail a dispatch.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

func NewCloudWatchMetrics(client CloudWatchClient, logger types.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: MetricNamespace,
		logger:    logger,
	}
}

// RecordDispatch emits a dispatch outcome with Channel and Result dimensions.
func (m *CloudWatchMetrics) RecordDispatch(ctx context.Context, channel types.ChannelType, result types.DeliveryResult) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(metricDispatch),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(dimChannel), Value: aws.String(string(channel))},
			{Name: aws.String(dimResult), Value: aws.String(string(result))},
		},
	})
}

// RecordLatency emits the time taken to deliver on a channel, in milliseconds.
func (m *CloudWatchMetrics) RecordLatency(ctx context.Context, channel types.ChannelType, duration time.Duration) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(metricDispatchLatency),
		Value:      aws.Float64(float64(duration.Milliseconds())),
		Unit:       cwtypes.StandardUnitMilliseconds,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(dimChannel), Value: aws.String(string(channel))},
		},
	})
}

// RecordDeferral counts events parked by the business-hours gate.
func (m *CloudWatchMetrics) RecordDeferral(ctx context.Context, event types.EventType) {
	m.put(ctx, cwtypes.MetricDatum{
		MetricName: aws.String(metricDeferral),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String(dimEvent), Value: aws.String(string(event))},
		},
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, datum cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{datum},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to publish metric",
			"metric", aws.ToString(datum.MetricName),
			"error", err.Error(),
		)
	}
}
