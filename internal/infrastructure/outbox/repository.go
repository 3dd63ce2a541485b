package outbox

import (
	"context"
	"time"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
)

type OutboxEvent struct {
	ID        string
	Type      event.Type
	Payload   []byte
	Published bool
	CreatedAt time.Time
}

type Repository interface {
	Save(context.Context, OutboxEvent) error
	FindUnpublished(context.Context, int) ([]OutboxEvent, error)
	MarkPublished(context.Context, string) error
}
