// Package kafka publishes report-generated events for downstream analytics.
// Publishing is optional and fire-and-forget: a failed publish is logged and
// counted, never surfaced to the page request that triggered it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

// Publisher produces report events to a Kafka topic.
// It implements web.ReportPublisher.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the report event topic.
func NewPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// PublishReport serializes and publishes one report event.
func (p *Publisher) PublishReport(ctx context.Context, report domain.Report, outcome string) error {
	msg, err := serializeToMessage(report, outcome)
	if err != nil {
		p.metrics.PublishErrors.Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish report event: %w", err)
	}
	p.metrics.ReportsPublished.Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message keyed by region.
func serializeToMessage(report domain.Report, outcome string) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.RegionName),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "outcome", Value: []byte(outcome)},
			{Key: "generated_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
