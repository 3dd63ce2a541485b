package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/application/contracts"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/logging"
)

type Dispatcher struct {
	Repo         Repository
	EventBus     contracts.EventPublisher
	Logger       logging.Logger
	PollInterval time.Duration
	BatchSize    int
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce publishes one batch. Events that fail to publish stay
// unpublished and are retried on the next tick.
func (d *Dispatcher) DispatchOnce(ctx context.Context) int {
	events, err := d.Repo.FindUnpublished(ctx, d.BatchSize)
	if err != nil {
		d.Logger.Error("outbox read failed", map[string]any{"err": err})
		return 0
	}

	published := 0
	for _, evt := range events {
		var payload event.PaymentChangedPayload

		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			d.Logger.Error("outbox payload undecodable", map[string]any{
				"outbox-id": evt.ID,
				"err":       err,
			})
			continue
		}

		domainEvent := event.Event{
			Type:    evt.Type,
			Payload: payload,
		}

		if err := d.EventBus.Publish(ctx, domainEvent); err != nil {
			d.Logger.Warn("outbox publish failed", map[string]any{
				"outbox-id": evt.ID,
				"type":      evt.Type,
				"err":       err,
			})
			continue
		}

		if err := d.Repo.MarkPublished(ctx, evt.ID); err != nil {
			d.Logger.Error("outbox mark published failed", map[string]any{
				"outbox-id": evt.ID,
				"err":       err,
			})
			continue
		}
		published++
	}

	return published
}
