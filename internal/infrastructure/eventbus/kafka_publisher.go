package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
)

const eventTypeHeader = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher relays events to a topic keyed by payment id, so events of
// one payment stay ordered within a partition.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt event.Event) error {
	msg, err := toMessage(evt)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.w.WriteMessages(ctx, msg), "write %s to kafka", evt.Type)
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func toMessage(evt event.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt.Payload)
	if err != nil {
		return kafka.Message{}, errors.Wrapf(err, "marshal %s payload", evt.Type)
	}

	var key []byte
	if payload, ok := evt.Payload.(event.PaymentChangedPayload); ok {
		key = []byte(payload.PaymentID)
	}

	return kafka.Message{
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(evt.Type)},
		},
	}, nil
}
