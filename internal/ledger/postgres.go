package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// PostgresRepository persists transactions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a Postgres-backed transaction store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const txnColumns = `id, user_id, transaction_id, amount, type, status, top_up_after, winning_after,
        payment_link, gateway_txn, game_id, spend_type, created_at`

// Create inserts a transaction. A reused transaction_id yields ErrDuplicateTransaction.
func (r *PostgresRepository) Create(ctx context.Context, txn Transaction) error {
	id, err := uuid.Parse(txn.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(txn.UserID)
	if err != nil {
		return err
	}
	var topUp, winning decimal.NullDecimal
	if txn.BalanceAfter != nil {
		topUp = decimal.NewNullDecimal(txn.BalanceAfter.TopUp)
		winning = decimal.NewNullDecimal(txn.BalanceAfter.Winning)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO transactions (id, user_id, transaction_id, amount, type, status, top_up_after, winning_after,
        payment_link, gateway_txn, game_id, spend_type, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		id, userID, txn.TransactionID, txn.Amount, string(txn.Type), string(txn.Status), topUp, winning,
		txn.PaymentLink, txn.GatewayTxn, txn.GameID, txn.SpendType, txn.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// FindByTransactionID fetches a transaction by its external identifier.
func (r *PostgresRepository) FindByTransactionID(ctx context.Context, transactionID string) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE transaction_id = $1`, transactionID)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return txn, err
}

// ListCompleted returns completed transactions for the user, oldest first.
func (r *PostgresRepository) ListCompleted(ctx context.Context, userID string) ([]Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+txnColumns+` FROM transactions
        WHERE user_id = $1 AND status = $2 ORDER BY created_at ASC, seq ASC`, uid, string(StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("query completed transactions: %w", err)
	}
	return collect(rows)
}

// LatestCompleted returns the newest completed transaction for the user.
func (r *PostgresRepository) LatestCompleted(ctx context.Context, userID string) (Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Transaction{}, err
	}
	row := r.db.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions
        WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC, seq DESC LIMIT 1`, uid, string(StatusCompleted))
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return txn, err
}

// ListByType returns up to limit transactions of the given type, newest first.
func (r *PostgresRepository) ListByType(ctx context.Context, userID string, kind Type, limit int) ([]Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+txnColumns+` FROM transactions
        WHERE user_id = $1 AND type = $2 ORDER BY created_at DESC, seq DESC LIMIT $3`, uid, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions by type: %w", err)
	}
	return collect(rows)
}

// Settle updates status and, when given, the balance snapshot.
func (r *PostgresRepository) Settle(ctx context.Context, id string, status Status, snapshot *Balances) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	var cmd pgconn.CommandTag
	if snapshot != nil {
		cmd, err = r.db.Exec(ctx, `UPDATE transactions SET status = $1, top_up_after = $2, winning_after = $3 WHERE id = $4`,
			string(status), snapshot.TopUp, snapshot.Winning, txID)
	} else {
		cmd, err = r.db.Exec(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, string(status), txID)
	}
	if err != nil {
		return fmt.Errorf("settle transaction: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachCheckout stores the gateway link and reference on a transaction.
func (r *PostgresRepository) AttachCheckout(ctx context.Context, id, paymentLink, gatewayTxn string) error {
	txID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE transactions SET payment_link = $1, gateway_txn = $2 WHERE id = $3`, paymentLink, gatewayTxn, txID)
	if err != nil {
		return fmt.Errorf("attach checkout: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ArchiveAll marks all of the users transactions archived.
func (r *PostgresRepository) ArchiveAll(ctx context.Context, userID string) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE transactions SET status = $1 WHERE user_id = $2`, string(StatusArchived), uid)
	if err != nil {
		return 0, fmt.Errorf("archive transactions: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func collect(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		id, userID     uuid.UUID
		kind, status   string
		topUp, winning decimal.NullDecimal
		txn            Transaction
	)
	err := row.Scan(&id, &userID, &txn.TransactionID, &txn.Amount, &kind, &status, &topUp, &winning,
		&txn.PaymentLink, &txn.GatewayTxn, &txn.GameID, &txn.SpendType, &txn.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	txn.ID = id.String()
	txn.UserID = userID.String()
	txn.Type = Type(kind)
	txn.Status = Status(status)
	txn.CreatedAt = txn.CreatedAt.UTC()
	if topUp.Valid && winning.Valid {
		txn.BalanceAfter = &Balances{TopUp: topUp.Decimal, Winning: winning.Decimal}
	}
	return txn, nil
}
