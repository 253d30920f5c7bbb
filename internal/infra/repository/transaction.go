package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"amenpay/internal/domain/transaction"
	"amenpay/internal/infra"
)

const transactionColumns = `
	id, user_id, amount, currency, status, gateway_type, reference_id,
	metadata, version, processed_at, failed_at, created_at, updated_at`

// metadataMergeRetries bounds the CAS loop for metadata-only merges.
const metadataMergeRetries = 3

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) (*transaction.Transaction, error) {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to marshal transaction metadata", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to begin transaction create", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, currency, status, gateway_type, reference_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+transactionColumns,
		t.UserID, t.Amount, t.Currency, t.Status.String(), t.GatewayType, t.ReferenceID, meta,
	)
	created, err := scanTransaction(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to create transaction", err)
	}

	if err := stageOutboxMessage(ctx, tx, EntityTypeTransaction, created.ID, "payment_created", created); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, infra.WrapRepoErr("failed to commit transaction create", err)
	}
	return created, nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id int64) (*transaction.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("transaction not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find transaction by ID", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int32) ([]*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list transactions", err)
	}
	defer rows.Close()

	var result []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan transaction", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read transactions", err)
	}
	return result, nil
}

// MarkProcessing claims the pending->processing transition with a conditional
// UPDATE. claimed=false means another delivery settled the row first; the
// caller must not treat that as an error.
func (r *TransactionRepository) MarkProcessing(ctx context.Context, id int64, processedAt time.Time, meta transaction.Metadata) (bool, error) {
	return r.claim(ctx, id, transaction.StatusProcessing, "payment_processing", `
		UPDATE transactions
		SET status = $2, processed_at = $3, metadata = metadata || $4::jsonb,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+transactionColumns,
		processedAt, meta)
}

// MarkFailed claims pending->failed. When the claim is lost (the row already
// left pending) the metadata is still merged through a version CAS so terminal
// markers like failed_permanently survive, without touching status.
func (r *TransactionRepository) MarkFailed(ctx context.Context, id int64, failedAt time.Time, meta transaction.Metadata) (bool, error) {
	claimed, err := r.claim(ctx, id, transaction.StatusFailed, "payment_failed", `
		UPDATE transactions
		SET status = $2, failed_at = $3, metadata = metadata || $4::jsonb,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+transactionColumns,
		failedAt, meta)
	if err != nil || claimed {
		return claimed, err
	}

	if err := r.mergeMetadata(ctx, id, meta); err != nil {
		return false, err
	}
	return false, nil
}

func (r *TransactionRepository) claim(ctx context.Context, id int64, status transaction.Status, eventType, query string, at time.Time, meta transaction.Metadata) (bool, error) {
	body, err := json.Marshal(meta)
	if err != nil {
		return false, infra.WrapRepoErr("failed to marshal transaction metadata", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, infra.WrapRepoErr("failed to begin transaction claim", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx, query, id, status.String(), at, body)
	updated, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, infra.WrapRepoErr("failed to claim transaction transition", err)
	}

	if err := stageOutboxMessage(ctx, tx, EntityTypeTransaction, updated.ID, eventType, updated); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, infra.WrapRepoErr("failed to commit transaction claim", err)
	}
	return true, nil
}

// mergeMetadata applies a metadata-only merge under optimistic concurrency.
// Concurrent workers merging different keys both land; a lost CAS re-reads
// and retries.
func (r *TransactionRepository) mergeMetadata(ctx context.Context, id int64, meta transaction.Metadata) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return infra.WrapRepoErr("failed to marshal transaction metadata", err)
	}

	for range metadataMergeRetries {
		var version int32
		err := r.pool.QueryRow(ctx,
			`SELECT version FROM transactions WHERE id = $1`, id).Scan(&version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return infra.WrapRepoErr("transaction not found", err, infra.KindNotFound)
			}
			return infra.WrapRepoErr("failed to read transaction version", err)
		}

		tag, err := r.pool.Exec(ctx, `
			UPDATE transactions
			SET metadata = metadata || $2::jsonb, version = version + 1, updated_at = now()
			WHERE id = $1 AND version = $3`,
			id, body, version,
		)
		if err != nil {
			return infra.WrapRepoErr("failed to merge transaction metadata", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
	}
	return infra.WrapRepoErr("metadata merge lost the version race", nil, infra.KindVersionConflict)
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		t    transaction.Transaction
		meta []byte
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.Status, &t.GatewayType,
		&t.ReferenceID, &meta, &t.Version, &t.ProcessedAt, &t.FailedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
