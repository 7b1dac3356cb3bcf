package events

import (
	"context"
	"encoding/json"
	"fmt"

	"garment-tracker/pkg/logger"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher streams events to a topic keyed by subject id, so all events
// for one order land on the same partition in order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	log    logger.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log logger.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	log.Info("kafka publisher ready", logger.Any("brokers", brokers), logger.String("topic", topic))
	return &KafkaPublisher{client: client, topic: topic, log: log}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	rec := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(ev.Subject.String()),
		Value:     payload,
		Timestamp: ev.OccurredAt,
		Headers:   []kgo.RecordHeader{{Key: "type", Value: []byte(ev.Type)}},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("publish to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.log.Info("closing kafka publisher", logger.String("topic", p.topic))
	p.client.Close()
}
