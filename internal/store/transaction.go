package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pulseai/apiserver/types"
)

// TransactionRepository handles persistence for transactions.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Get(ctx context.Context, id int64) (types.Transaction, error) {
	const query = `
		SELECT id, user_id, description, amount, category, type, date, created_at, updated_at
		FROM transactions
		WHERE id = $1`
	var txn types.Transaction
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Description,
		&txn.Amount,
		&txn.Category,
		&txn.Type,
		&txn.Date,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Transaction{}, ErrNotFound
		}
		return types.Transaction{}, err
	}
	return txn, nil
}

// ListByUser returns all transactions owned by a user, newest first:
// transaction date descending, ties broken by creation time descending.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID int64) ([]types.Transaction, error) {
	const query = `
		SELECT id, user_id, description, amount, category, type, date, created_at, updated_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]types.Transaction, 0)
	for rows.Next() {
		var txn types.Transaction
		if err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Description,
			&txn.Amount,
			&txn.Category,
			&txn.Type,
			&txn.Date,
			&txn.CreatedAt,
			&txn.UpdatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *TransactionRepository) Create(ctx context.Context, txn types.Transaction) (types.Transaction, error) {
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	const query = `
		INSERT INTO transactions (user_id, description, amount, category, type, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		txn.UserID,
		txn.Description,
		txn.Amount,
		txn.Category,
		txn.Type,
		txn.Date,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Scan(&txn.ID); err != nil {
		return types.Transaction{}, err
	}
	return txn, nil
}

func (r *TransactionRepository) Update(ctx context.Context, txn types.Transaction) (types.Transaction, error) {
	txn.UpdatedAt = time.Now()

	const query = `
		UPDATE transactions
		SET description = $1,
			amount = $2,
			category = $3,
			type = $4,
			date = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		txn.Description,
		txn.Amount,
		txn.Category,
		txn.Type,
		txn.Date,
		txn.UpdatedAt,
		txn.ID,
	)
	if err != nil {
		return types.Transaction{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Transaction{}, err
	}
	if affected == 0 {
		return types.Transaction{}, ErrNotFound
	}
	return txn, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM transactions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
