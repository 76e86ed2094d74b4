package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ryanadiyantara/librasys/internal/model"
	"github.com/ryanadiyantara/librasys/pkg/breaker"
	"github.com/ryanadiyantara/librasys/pkg/kafka"
)

// Publisher pushes loan lifecycle events onto the loan-events topic.
// Delivery is best effort, the loan workflow never fails because the
// broker is down, and a circuit breaker stops hammering a dead one.
type Publisher struct {
	producer sarama.SyncProducer
	cb       *breaker.Breaker
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, log *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		cb:       breaker.New(20, time.Second*30, 0.5, 5),
		log:      log.Named("events"),
	}
}

func (p *Publisher) Publish(_ context.Context, evt model.LoanEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.cb.Call(func() error {
		msg := &sarama.ProducerMessage{
			Topic: kafka.LoanTopic,
			Key:   sarama.StringEncoder(evt.LoanID),
			Value: sarama.ByteEncoder(data),
		}
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, model.LoanEvent) error { return nil }
