package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"OppRadar/internal/domain/models"
	domrepo "OppRadar/internal/domain/repository"
	pkgkafka "OppRadar/pkg/kafka"
)

// Alert topic thresholds: totals beyond these fan out to the high-priority
// topic as well.
const (
	alertHigh = 80
	alertLow  = 20
)

// messageProducer is the slice of pkg/kafka.Producer the publisher needs.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

var _ messageProducer = (*pkgkafka.Producer)(nil)

// KafkaOpportunityPublisher fans each admitted opportunity out to the
// all-opportunities topic, the signal topic, the symbol topic, and, for
// extreme totals, the alert topic. A failure on one topic does not stop the
// others; the joined error is returned for the caller to log.
type KafkaOpportunityPublisher struct {
	producer messageProducer
	prefix   string // e.g. "opportunities"
	alert    string // e.g. "opportunities.alert.strong"
}

// NewKafkaOpportunityPublisher creates the fan-out publisher.
func NewKafkaOpportunityPublisher(producer *pkgkafka.Producer, prefix, alertTopic string) domrepo.OpportunityPublisher {
	if prefix == "" {
		prefix = "opportunities"
	}
	if alertTopic == "" {
		alertTopic = prefix + ".alert.strong"
	}
	return &KafkaOpportunityPublisher{producer: producer, prefix: prefix, alert: alertTopic}
}

func (p *KafkaOpportunityPublisher) Publish(ctx context.Context, opp *models.TradingOpportunity) error {
	if opp == nil {
		return fmt.Errorf("opportunity is nil")
	}

	topics := []string{
		fmt.Sprintf("%s.%s.all", p.prefix, opp.Exchange),
		fmt.Sprintf("%s.%s.%s", p.prefix, opp.Exchange, strings.ToLower(string(opp.Signal))),
		fmt.Sprintf("%s.%s.%s", p.prefix, opp.Exchange, opp.Symbol),
	}
	if opp.Score.Total > alertHigh || opp.Score.Total < alertLow {
		topics = append(topics, p.alert)
	}

	key := []byte(opp.Symbol)
	var errs []error
	for _, topic := range topics {
		if err := p.producer.Publish(ctx, topic, key, opp); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

func (p *KafkaOpportunityPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopOpportunityPublisher discards opportunities. Used when Kafka is
// disabled; the store remains the durable record.
type NoopOpportunityPublisher struct{}

func (NoopOpportunityPublisher) Publish(context.Context, *models.TradingOpportunity) error {
	return nil
}

func (NoopOpportunityPublisher) Close() error { return nil }

var _ domrepo.OpportunityPublisher = NoopOpportunityPublisher{}
