package payment

import (
	"context"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
)

// Snapshot is the full payment set as read at Version. Payments are copies
// owned by the caller.
type Snapshot struct {
	Payments map[string]*Payment
	Version  uint64
}

type Repository interface {
	FindAll(ctx context.Context) (*Snapshot, error)
	FindByID(ctx context.Context, id string) (*Payment, error)
	// Save upserts p only if the set is still at expectedVersion, otherwise
	// it returns ErrVersionConflict. The events describing the change are
	// recorded with the write: either both land or neither does.
	Save(ctx context.Context, p *Payment, expectedVersion uint64, events ...event.Event) error
}
