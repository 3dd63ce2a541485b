package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/outbox"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/persistence/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := sqlite.RunMigrations(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	return db
}

func TestPaymentRepository_SaveAndFindAll(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPaymentRepository(setupTestDB(t))

	snap, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Empty(t, snap.Payments)
	require.Equal(t, uint64(0), snap.Version)

	p, err := payment.New("1", decimal.RequireFromString("9999.99"), payment.MethodCreditCard)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p, snap.Version))

	snap, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.Version)
	require.Len(t, snap.Payments, 1)

	got := snap.Payments["1"]
	require.Equal(t, "9999.99", got.Amount().String())
	require.Equal(t, payment.MethodCreditCard, got.Method())
	require.Equal(t, payment.StatusRegistered, got.Status())
}

func TestPaymentRepository_SaveUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPaymentRepository(setupTestDB(t))

	p, _ := payment.New("1", decimal.NewFromInt(100), payment.MethodPayPal)
	require.NoError(t, repo.Save(ctx, p, 0))

	require.NoError(t, p.Pay())
	require.NoError(t, repo.Save(ctx, p, 1))

	got, err := repo.FindByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, payment.StatusPaid, got.Status())
}

func TestPaymentRepository_StaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPaymentRepository(setupTestDB(t))

	a, _ := payment.New("a", decimal.NewFromInt(100), payment.MethodPayPal)
	b, _ := payment.New("b", decimal.NewFromInt(100), payment.MethodPayPal)

	require.NoError(t, repo.Save(ctx, a, 0))
	require.ErrorIs(t, repo.Save(ctx, b, 0), payment.ErrVersionConflict)

	_, err := repo.FindByID(ctx, "b")
	require.ErrorIs(t, err, payment.ErrNotFound)
}

func registered(id string) event.Event {
	return event.Event{
		Type:    event.PaymentRegistered,
		Payload: event.PaymentChangedPayload{PaymentID: id, Status: "REGISTRADO"},
	}
}

func TestPaymentRepository_SaveWritesOutboxInSameTransaction(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := sqlite.NewPaymentRepository(db)

	p, _ := payment.New("1", decimal.NewFromInt(100), payment.MethodPayPal)
	require.NoError(t, repo.Save(ctx, p, 0, registered("1")))

	events, err := outbox.NewSQLiteRepository(db).FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, event.PaymentRegistered, events[0].Type)
	require.JSONEq(t, `{"payment_id":"1","amount":0,"status":"REGISTRADO","payment_method":""}`, string(events[0].Payload))
}

func TestPaymentRepository_FailedOutboxInsertRollsBackPayment(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := sqlite.NewPaymentRepository(db)

	_, err := db.ExecContext(ctx, `DROP TABLE outbox_events`)
	require.NoError(t, err)

	p, _ := payment.New("1", decimal.NewFromInt(100), payment.MethodPayPal)
	require.Error(t, repo.Save(ctx, p, 0, registered("1")))

	_, err = repo.FindByID(ctx, "1")
	require.ErrorIs(t, err, payment.ErrNotFound)

	snap, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), snap.Version)
}

func TestPaymentRepository_UnencodableEventWritesNothing(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPaymentRepository(setupTestDB(t))

	p, _ := payment.New("1", decimal.NewFromInt(100), payment.MethodPayPal)
	err := repo.Save(ctx, p, 0, event.Event{Type: event.PaymentRegistered, Payload: make(chan int)})
	require.Error(t, err)

	_, err = repo.FindByID(ctx, "1")
	require.ErrorIs(t, err, payment.ErrNotFound)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, sqlite.RunMigrations(context.Background(), db))
}
