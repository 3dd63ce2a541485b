package outbox_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/outbox"
)

type fakeBus struct {
	published []event.Event
	fail      bool
}

func (f *fakeBus) Publish(_ context.Context, evt event.Event) error {
	if f.fail {
		return errors.New("bus down")
	}
	f.published = append(f.published, evt)
	return nil
}

type noopLogger struct{}

func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}

func TestDispatcher_ShouldPublishAndMarkEvent(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewSQLiteRepository(setupTestDB(t))
	recorder := &outbox.Recorder{Repo: repo}

	bus := &fakeBus{}

	dispatcher := &outbox.Dispatcher{
		Repo:      repo,
		EventBus:  bus,
		Logger:    noopLogger{},
		BatchSize: 10,
	}

	err := recorder.Record(ctx, event.Event{
		Type: event.PaymentSettled,
		Payload: event.PaymentChangedPayload{
			PaymentID:     "1",
			Amount:        100,
			Status:        "PAGADO",
			PaymentMethod: "PayPal",
		},
	})
	require.NoError(t, err)

	require.Equal(t, 1, dispatcher.DispatchOnce(ctx))

	require.Len(t, bus.published, 1)
	require.Equal(t, event.PaymentSettled, bus.published[0].Type)

	payload, ok := bus.published[0].Payload.(event.PaymentChangedPayload)
	require.True(t, ok)
	require.Equal(t, "1", payload.PaymentID)
	require.Equal(t, 100.0, payload.Amount)

	events, err := repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestDispatcher_ShouldKeepEvent_WhenBusFails(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewMemoryRepository()
	recorder := &outbox.Recorder{Repo: repo}
	bus := &fakeBus{fail: true}

	dispatcher := &outbox.Dispatcher{
		Repo:      repo,
		EventBus:  bus,
		Logger:    noopLogger{},
		BatchSize: 10,
	}

	require.NoError(t, recorder.Record(ctx, event.Event{
		Type:    event.PaymentFailed,
		Payload: event.PaymentChangedPayload{PaymentID: "1", Reason: "limit"},
	}))

	require.Equal(t, 0, dispatcher.DispatchOnce(ctx))

	events, err := repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	bus.fail = false
	require.Equal(t, 1, dispatcher.DispatchOnce(ctx))
	require.Len(t, bus.published, 1)
}

func TestMemoryRepository_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewMemoryRepository()
	recorder := &outbox.Recorder{Repo: repo}

	for i := 0; i < 3; i++ {
		require.NoError(t, recorder.Record(ctx, event.Event{
			Type:    event.PaymentRegistered,
			Payload: event.PaymentChangedPayload{PaymentID: "1"},
		}))
	}

	events, err := repo.FindUnpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestMemoryRepository_DropsPublishedEvents(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewMemoryRepository()
	recorder := &outbox.Recorder{Repo: repo}
	bus := &fakeBus{}

	dispatcher := &outbox.Dispatcher{
		Repo:      repo,
		EventBus:  bus,
		Logger:    noopLogger{},
		BatchSize: 2,
	}

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, recorder.Record(ctx, event.Event{
			Type:    event.PaymentRegistered,
			Payload: event.PaymentChangedPayload{PaymentID: id},
		}))
	}

	require.Equal(t, 2, dispatcher.DispatchOnce(ctx))
	require.Equal(t, 1, repo.Len())

	require.Equal(t, 1, dispatcher.DispatchOnce(ctx))
	require.Equal(t, 0, repo.Len())

	var order []string
	for _, evt := range bus.published {
		order = append(order, evt.Payload.(event.PaymentChangedPayload).PaymentID)
	}
	require.Equal(t, []string{"1", "2", "3"}, order)
}
