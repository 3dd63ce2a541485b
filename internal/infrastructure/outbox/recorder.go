package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
)

// NewOutboxEvent encodes a domain event as an unpublished outbox row.
func NewOutboxEvent(evt event.Event) (OutboxEvent, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return OutboxEvent{}, errors.Wrapf(err, "marshal %s payload", evt.Type)
	}

	return OutboxEvent{
		ID:        uuid.NewString(),
		Type:      evt.Type,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Recorder writes events to a standalone outbox, for stores that cannot
// share a transaction with it.
type Recorder struct {
	Repo Repository
}

func (r *Recorder) Record(ctx context.Context, evt event.Event) error {
	row, err := NewOutboxEvent(evt)
	if err != nil {
		return err
	}
	return r.Repo.Save(ctx, row)
}
