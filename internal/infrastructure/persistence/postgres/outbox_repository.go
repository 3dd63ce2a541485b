package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/MatLock/UdeSa-Ing-Examen/internal/domain/event"
	"github.com/MatLock/UdeSa-Ing-Examen/internal/infrastructure/outbox"
)

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *OutboxRepository) Save(ctx context.Context, evt outbox.OutboxEvent) error {
	return insertOutbox(ctx, r.pool, evt)
}

func insertOutbox(ctx context.Context, q execer, evt outbox.OutboxEvent) error {
	_, err := q.Exec(
		ctx,
		"INSERT INTO outbox_messages (id, event_type, payload, created_at) VALUES ($1, $2, $3, $4)",
		evt.ID, string(evt.Type), string(evt.Payload), evt.CreatedAt,
	)
	return errors.Wrap(err, "insert outbox message")
}

func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]outbox.OutboxEvent, error) {
	rows, err := r.pool.Query(
		ctx,
		"SELECT id::text, event_type, payload::text, created_at FROM outbox_messages WHERE processed_at IS NULL ORDER BY created_at LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query outbox messages")
	}
	defer rows.Close()

	var events []outbox.OutboxEvent
	for rows.Next() {
		var (
			evt     outbox.OutboxEvent
			typ     string
			payload string
		)
		if err := rows.Scan(&evt.ID, &typ, &payload, &evt.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan outbox message")
		}
		evt.Type = event.Type(typ)
		evt.Payload = []byte(payload)
		events = append(events, evt)
	}

	return events, rows.Err()
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	_, err := r.pool.Exec(
		ctx,
		"UPDATE outbox_messages SET processed_at=$1 WHERE id=$2",
		time.Now(), id,
	)
	return errors.Wrap(err, "mark outbox message processed")
}
