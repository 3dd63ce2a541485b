package payment

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/logging"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infra/metrics"
)

// Service runs payment operations against the full payment set. Mutations
// are serialized in-process, and every write is a compare-and-swap on the
// set version, retried when another writer got there first. The event
// describing each write is handed to the repository with it.
type Service struct {
	Repo       payment.Repository
	Rules      *payment.RuleEngine
	Logger     logging.Logger
	Metrics    *metrics.Counters
	MaxRetries uint64
	RetryDelay time.Duration

	mu sync.Mutex
}

// mutation inspects the snapshot and returns the payment to persist (nil for
// none), the event describing the change, and the domain error to return
// after persisting.
type mutation func(snap *payment.Snapshot) (*payment.Payment, event.Type, error)

func (s *Service) List(ctx context.Context) (map[string]payment.Record, error) {
	snap, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]payment.Record, len(snap.Payments))
	for id, p := range snap.Payments {
		out[id] = p.Serialize()
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*payment.Payment, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, id string, amount decimal.Decimal, method string) (*payment.Payment, error) {
	kind, err := payment.ParseMethod(method)
	if err != nil {
		return nil, s.rejected(err)
	}

	return s.mutate(ctx, id, func(snap *payment.Snapshot) (*payment.Payment, event.Type, error) {
		if _, exists := snap.Payments[id]; exists {
			return nil, "", errors.Wrapf(payment.ErrAlreadyExists, "payment %s", id)
		}
		p, err := payment.New(id, amount, kind)
		if err != nil {
			return nil, "", err
		}
		return p, event.PaymentRegistered, nil
	})
}

// Pay attempts settlement. A rejection by the rule engine or the method
// policy persists the payment as Failed before the ValidationError is
// returned.
func (s *Service) Pay(ctx context.Context, id string) (*payment.Payment, error) {
	return s.mutate(ctx, id, func(snap *payment.Snapshot) (*payment.Payment, event.Type, error) {
		p, err := lookup(snap, id)
		if err != nil {
			return nil, "", err
		}

		if err := s.Rules.Approve(id, p, snap.Payments); err != nil {
			return failed(p, err)
		}

		if err := p.Pay(); err != nil {
			if errors.Is(err, payment.ErrValidation) {
				return failed(p, err)
			}
			return nil, "", err
		}
		return p, event.PaymentSettled, nil
	})
}

func (s *Service) Revert(ctx context.Context, id string) (*payment.Payment, error) {
	return s.mutate(ctx, id, func(snap *payment.Snapshot) (*payment.Payment, event.Type, error) {
		p, err := lookup(snap, id)
		if err != nil {
			return nil, "", err
		}
		if err := p.Revert(); err != nil {
			return nil, "", err
		}
		return p, event.PaymentReverted, nil
	})
}

// Update checks the status before the requested method, so a payment that
// no longer allows updates always reports InvalidTransition.
func (s *Service) Update(ctx context.Context, id string, amount decimal.Decimal, method string) (*payment.Payment, error) {
	return s.mutate(ctx, id, func(snap *payment.Snapshot) (*payment.Payment, event.Type, error) {
		p, err := lookup(snap, id)
		if err != nil {
			return nil, "", err
		}
		if !p.Status().IsUpdateValid() {
			return nil, "", &payment.InvalidTransitionError{From: p.Status()}
		}

		kind, err := payment.ParseMethod(method)
		if err != nil {
			return nil, "", err
		}
		if err := p.Update(amount, kind); err != nil {
			return nil, "", err
		}
		return p, event.PaymentUpdated, nil
	})
}

func lookup(snap *payment.Snapshot, id string) (*payment.Payment, error) {
	p, ok := snap.Payments[id]
	if !ok {
		return nil, errors.Wrapf(payment.ErrNotFound, "payment %s", id)
	}
	return p, nil
}

// failed records the Failed transition when legal; an already Failed
// payment is left as is.
func failed(p *payment.Payment, cause error) (*payment.Payment, event.Type, error) {
	if err := p.Fail(); err != nil {
		return nil, "", cause
	}
	return p, event.PaymentFailed, cause
}

func (s *Service) mutate(ctx context.Context, id string, fn mutation) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		changed   *payment.Payment
		evtType   event.Type
		domainErr error
	)

	backoff := retry.WithMaxRetries(s.MaxRetries, retry.NewConstant(s.retryDelay()))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		snap, err := s.Repo.FindAll(ctx)
		if err != nil {
			return err
		}

		changed, evtType, domainErr = fn(snap)
		if changed == nil {
			return nil
		}

		if err := s.Repo.Save(ctx, changed, snap.Version, newEvent(changed, evtType, domainErr)); err != nil {
			if errors.Is(err, payment.ErrVersionConflict) {
				s.Metrics.IncConflict()
				s.Logger.Warn("payment set changed, retrying", map[string]any{
					"payment-id": id,
				})
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.Logger.Error("payment write failed", map[string]any{
			"payment-id": id,
			"err":        err,
		})
		return nil, err
	}

	if changed != nil {
		s.committed(changed, evtType, domainErr)
	}

	if domainErr != nil {
		return nil, s.rejected(domainErr)
	}
	return changed, nil
}

func newEvent(p *payment.Payment, evtType event.Type, cause error) event.Event {
	rec := p.Serialize()
	payload := event.PaymentChangedPayload{
		PaymentID:     p.ID(),
		Amount:        rec.Amount,
		Status:        rec.Status,
		PaymentMethod: rec.PaymentMethod,
	}
	if cause != nil {
		payload.Reason = cause.Error()
	}
	return event.Event{Type: evtType, Payload: payload}
}

func (s *Service) committed(p *payment.Payment, evtType event.Type, cause error) {
	s.Metrics.IncEvent(evtType)

	fields := map[string]any{
		"payment-id": p.ID(),
		"status":     p.Status().Description(),
		"method":     p.MethodName(),
		"amount":     p.Amount().String(),
	}
	if cause != nil {
		fields["reason"] = cause.Error()
	}
	s.Logger.Info(string(evtType), fields)
}

func (s *Service) rejected(err error) error {
	switch {
	case errors.Is(err, payment.ErrValidation):
		s.Metrics.IncRejected("validation")
	case errors.Is(err, payment.ErrInvalidTransition):
		s.Metrics.IncRejected("invalid_transition")
	case errors.Is(err, payment.ErrNotFound):
		s.Metrics.IncRejected("not_found")
	case errors.Is(err, payment.ErrAlreadyExists):
		s.Metrics.IncRejected("already_exists")
	}
	return err
}

func (s *Service) retryDelay() time.Duration {
	if s.RetryDelay <= 0 {
		return time.Millisecond
	}
	return s.RetryDelay
}
