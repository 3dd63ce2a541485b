package contracts

import (
	"context"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
)

type EventRecorder interface {
	Record(context.Context, event.Event) error
}

type EventPublisher interface {
	Publish(context.Context, event.Event) error
}
