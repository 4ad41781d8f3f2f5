// Package metrics publishes batch recompute telemetry to CloudWatch.
// Publishing is always best-effort: callers log failures and move on, a
// metrics outage never degrades the map.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"shademap/internal/types"
)

// cloudwatchAPI is the narrow slice of the CloudWatch client used here,
// extracted as an interface so tests can substitute a mock.
type cloudwatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher emits batch metrics to CloudWatch under a configured namespace.
type Publisher struct {
	client    cloudwatchAPI
	namespace string
}

var _ types.MetricPublisher = (*Publisher)(nil)

// NewPublisher creates a Publisher backed by the given CloudWatch client.
func NewPublisher(client *cloudwatch.Client, namespace string) *Publisher {
	return &Publisher{client: client, namespace: namespace}
}

// PublishBatch emits "BatchPolygons" and "BatchDurationMs" for each
// recompute, dimensioned by whether the batch was applied or discarded as
// superseded. The discard rate is the signal worth alarming on: a high rate
// means users are changing state faster than batches complete.
func (p *Publisher) PublishBatch(ctx context.Context, polygons int, duration time.Duration, applied bool) error {
	outcome := "applied"
	if !applied {
		outcome = "discarded"
	}
	dims := []cwTypes.Dimension{
		{
			Name:  aws.String("Outcome"),
			Value: aws.String(outcome),
		},
	}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwTypes.MetricDatum{
			{
				MetricName: aws.String("BatchPolygons"),
				Value:      aws.Float64(float64(polygons)),
				Unit:       cwTypes.StandardUnitCount,
				Dimensions: dims,
			},
			{
				MetricName: aws.String("BatchDurationMs"),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwTypes.StandardUnitMilliseconds,
				Dimensions: dims,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish batch metrics: %w", err)
	}
	return nil
}

// Noop is a MetricPublisher that drops everything, for deployments without
// CloudWatch access.
type Noop struct{}

var _ types.MetricPublisher = Noop{}

// PublishBatch discards the metrics.
func (Noop) PublishBatch(context.Context, int, time.Duration, bool) error { return nil }
