package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/payment"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/outbox"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) FindAll(ctx context.Context) (*payment.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin snapshot")
	}
	defer tx.Rollback()

	var version int64
	if err := tx.QueryRowContext(ctx,
		`SELECT version FROM payment_set WHERE id = 1`,
	).Scan(&version); err != nil {
		return nil, errors.Wrap(err, "read payment set version")
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, amount, method, status
		 FROM payments`,
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

	return snap, tx.Commit()
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount, method, status
		 FROM payments
		 WHERE id = ?`,
		id,
	)

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Save writes the payment and its outbox rows in one transaction.
func (r *PaymentRepository) Save(ctx context.Context, p *payment.Payment, expectedVersion uint64, events ...event.Event) error {
	rows := make([]outbox.OutboxEvent, 0, len(events))
	for _, evt := range events {
		row, err := outbox.NewOutboxEvent(evt)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin save")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE payment_set
		 SET version = version + 1
		 WHERE id = 1 AND version = ?`,
		int64(expectedVersion),
	)
	if err != nil {
		return errors.Wrap(err, "bump payment set version")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return payment.ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (id, amount, method, status)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			amount = excluded.amount,
			method = excluded.method,
			status = excluded.status`,
		p.ID(),
		p.Amount().String(),
		string(p.Method()),
		string(p.Status()),
	); err != nil {
		return errors.Wrapf(err, "upsert payment %s", p.ID())
	}

	for _, row := range rows {
		if err := outbox.InsertSQLite(ctx, tx, row); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit save")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(s scanner) (*payment.Payment, error) {
	var (
		id     string
		amount string
		method string
		status string
	)

	if err := s.Scan(&id, &amount, &method, &status); err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrapf(err, "parse amount of payment %s", id)
	}

	return payment.Restore(id, d, payment.MethodKind(method), payment.Status(status))
}
