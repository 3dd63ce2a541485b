package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/outbox"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) FindAll(ctx context.Context) (*payment.Snapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, errors.Wrap(err, "begin snapshot")
	}
	defer tx.Rollback(ctx)

	var version int64
	if err := tx.QueryRow(ctx,
		"SELECT version FROM payment_set WHERE id = 1",
	).Scan(&version); err != nil {
		return nil, errors.Wrap(err, "read payment set version")
	}

	rows, err := tx.Query(ctx,
		"SELECT id, amount::text, method, status FROM payments",
	)
	if err != nil {
		return nil, errors.Wrap(err, "query payments")
	}
	defer rows.Close()

	snap := &payment.Snapshot{
		Payments: make(map[string]*payment.Payment),
		Version:  uint64(version),
	}

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		snap.Payments[p.ID()] = p
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate payments")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT id, amount::text, method, status FROM payments WHERE id = $1",
		id,
	)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Save writes the payment and its outbox messages in one transaction.
func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment, expectedVersion uint64, events ...event.Event) error {
	rows := make([]outbox.OutboxEvent, 0, len(events))
	for _, evt := range events {
		row, err := outbox.NewOutboxEvent(evt)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin save")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE payment_set SET version = version + 1 WHERE id = 1 AND version = $1",
		int64(expectedVersion),
	)
	if err != nil {
		return errors.Wrap(err, "bump payment set version")
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrVersionConflict
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO payments (id, amount, method, status)
		 VALUES ($1, $2::numeric, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			method = EXCLUDED.method,
			status = EXCLUDED.status`,
		p.ID(), p.Amount().String(), string(p.Method()), string(p.Status()),
	); err != nil {
		return errors.Wrapf(err, "upsert payment %s", p.ID())
	}

	for _, row := range rows {
		if err := insertOutbox(ctx, tx, row); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit save")
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var id, amount, method, status string
	if err := row.Scan(&id, &amount, &method, &status); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrapf(err, "parse amount of payment %s", id)
	}

	return payment.Restore(id, d, payment.MethodKind(method), payment.Status(status))
}
