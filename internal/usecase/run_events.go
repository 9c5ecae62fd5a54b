package usecase

import (
	"context"

	"SigForge/internal/domain/models"
	pkgkafka "SigForge/pkg/kafka"
	applogger "SigForge/pkg/logger"
)

// RunEventPublisher emits run events to Kafka so downstream consumers
// (alerting, dashboards) can react without polling the stores. Publishing is
// best effort: a broker failure is logged and swallowed so it never fails
// the run that produced the tables.
type RunEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewRunEventPublisher(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *RunEventPublisher {
	return &RunEventPublisher{producer: producer, topic: topic, l: l}
}

func (p *RunEventPublisher) Publish(ctx context.Context, ev models.RunEvent) {
	if p == nil || p.producer == nil {
		return
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev); err != nil {
		if p.l != nil {
			p.l.Warn("run event publish failed",
				applogger.String("symbol", ev.Symbol),
				applogger.String("date", ev.Date),
				applogger.Error(err),
			)
		}
	}
}
