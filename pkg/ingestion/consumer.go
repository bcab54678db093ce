package ingestion

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	kafka "github.com/segmentio/kafka-go"
)

// ConsumerConfig dials the ingestion topic.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Consumer reads ingestion messages from Kafka and runs each one through a
// Pipeline, logging and continuing past per-message failures so the stream
// is never blocked (spec.md §4.5 "Failure semantics").
type Consumer struct {
	reader   *kafka.Reader
	pipeline *Pipeline
	log      logr.Logger
}

// NewConsumer builds a Consumer bound to cfg and pipeline.
func NewConsumer(cfg ConsumerConfig, pipeline *Pipeline, log logr.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &Consumer{reader: reader, pipeline: pipeline, log: log}
}

// Run reads messages until ctx is canceled, processing each one through the
// pipeline. A processing error is logged; it never stops the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.pipeline.Process(ctx, msg.Value); err != nil {
			c.log.Error(err, "ingestion: processing message failed", "offset", msg.Offset, "partition", msg.Partition)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error(err, "ingestion: committing offset failed", "offset", msg.Offset)
		}
	}
}

// Close releases the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
