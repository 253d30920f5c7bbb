package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"amenpay/internal/infra"
)

// OutboxMessage is a status-change event staged in the same database
// transaction as the state change it describes. The relay ships staged rows
// to Kafka and stamps published_at.
type OutboxMessage struct {
	ID          uuid.UUID
	EntityType  string
	EntityID    int64
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}

const (
	EntityTypeTransaction  = "transaction"
	EntityTypeNotification = "notification"
)

// stageOutboxMessage writes the event inside the caller's transaction so the
// event and the row change commit or roll back together.
func stageOutboxMessage(ctx context.Context, tx pgx.Tx, entityType string, entityID int64, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return infra.WrapRepoErr("failed to marshal outbox payload", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_messages (id, entity_type, entity_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), entityType, entityID, eventType, body, time.Now(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to stage outbox message", err)
	}
	return nil
}

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// ProcessBatch locks up to limit unpublished messages, hands them to publish,
// and stamps the ones that went out. Locked rows are skipped so concurrent
// relays never ship the same message twice.
func (r *OutboxRepository) ProcessBatch(ctx context.Context, limit int32, publish func(ctx context.Context, msg OutboxMessage) error) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to begin outbox batch", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := tx.Query(ctx, `
		SELECT id, entity_type, entity_id, event_type, payload, created_at
		FROM outbox_messages
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to query outbox messages", err)
	}

	var messages []OutboxMessage
	for rows.Next() {
		var msg OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.EntityType, &msg.EntityID, &msg.EventType, &msg.Payload, &msg.CreatedAt); err != nil {
			rows.Close()
			return 0, infra.WrapRepoErr("failed to scan outbox message", err)
		}
		messages = append(messages, msg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, infra.WrapRepoErr("failed to read outbox messages", err)
	}

	published := 0
	for _, msg := range messages {
		if err := publish(ctx, msg); err != nil {
			// Stop at the first broker failure; unstamped rows stay staged
			// and the next poll retries from here.
			break
		}
		if _, err := tx.Exec(ctx,
			`UPDATE outbox_messages SET published_at = $1 WHERE id = $2`,
			time.Now(), msg.ID,
		); err != nil {
			return 0, infra.WrapRepoErr("failed to stamp outbox message", err)
		}
		published++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, infra.WrapRepoErr("failed to commit outbox batch", err)
	}
	return published, nil
}
