package inmemory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/application/contracts"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment
	version  uint64
	recorder contracts.EventRecorder
}

// NewPaymentRepository drops the events passed to Save.
func NewPaymentRepository() *PaymentRepository {
	return NewRecordingPaymentRepository(nil)
}

// NewRecordingPaymentRepository hands the events of every write to recorder
// before the write is applied, under the same lock.
func NewRecordingPaymentRepository(recorder contracts.EventRecorder) *PaymentRepository {
	return &PaymentRepository{
		mu:       sync.RWMutex{},
		payments: make(map[string]*payment.Payment),
		recorder: recorder,
	}
}

func (r *PaymentRepository) FindAll(_ context.Context) (*payment.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := &payment.Snapshot{
		Payments: make(map[string]*payment.Payment, len(r.payments)),
		Version:  r.version,
	}
	for id, p := range r.payments {
		snap.Payments[id] = p.Clone()
	}
	return snap, nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment, expectedVersion uint64, events ...event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.version != expectedVersion {
		return payment.ErrVersionConflict
	}

	if r.recorder != nil {
		for _, evt := range events {
			if err := r.recorder.Record(ctx, evt); err != nil {
				return errors.Wrapf(err, "record %s for payment %s", evt.Type, p.ID())
			}
		}
	}

	r.payments[p.ID()] = p.Clone()
	r.version++
	return nil
}
