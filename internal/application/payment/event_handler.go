package payment

import (
	"context"

	"github.com/pkg/errors"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/logging"
)

// AuditHandler consumes relayed payment events when no external broker is
// configured and writes them to the audit log.
type AuditHandler struct {
	Logger logging.Logger
}

func (h *AuditHandler) Handle(_ context.Context, evt event.Event) error {
	payload, ok := evt.Payload.(event.PaymentChangedPayload)
	if !ok {
		return errors.Errorf("invalid payload for %s", evt.Type)
	}

	fields := map[string]any{
		"type":       evt.Type,
		"payment-id": payload.PaymentID,
		"status":     payload.Status,
		"method":     payload.PaymentMethod,
		"amount":     payload.Amount,
	}
	if payload.Reason != "" {
		fields["reason"] = payload.Reason
	}

	h.Logger.Info("payment event", fields)
	return nil
}

func AuditedEvents() []event.Type {
	return []event.Type{
		event.PaymentRegistered,
		event.PaymentSettled,
		event.PaymentFailed,
		event.PaymentReverted,
		event.PaymentUpdated,
	}
}
