package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicatePhone = errors.New("phone number already registered")
)

const uniqueViolation = "23505"

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	// SetOTP stores a login challenge; a nil otp clears it.
	SetOTP(ctx context.Context, id string, otp *OTP) error
	UpdateBalances(ctx context.Context, id string, topUp, winning decimal.Decimal) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name, phone_number, email, top_up_balance, winning_balance, otp_hash, otp_expiry, created_at, updated_at`

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (id, name, phone_number, email, top_up_balance, winning_balance, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, user.Name, user.Phone, user.Email, user.TopUpBalance, user.WinningBalance, user.CreatedAt.UTC(), user.UpdatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicatePhone
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

// FindByPhone fetches a user by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone))
}

func (r *PostgresRepository) scanOne(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		otpHash   []byte
		otpExpiry *time.Time
		user      User
	)
	err := row.Scan(&id, &user.Name, &user.Phone, &user.Email, &user.TopUpBalance, &user.WinningBalance,
		&otpHash, &otpExpiry, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.String()
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	if len(otpHash) > 0 && otpExpiry != nil {
		user.OTP = &OTP{CodeHash: otpHash, Expiry: otpExpiry.UTC()}
	}
	return user, nil
}

// SetOTP stores or clears the users login challenge.
func (r *PostgresRepository) SetOTP(ctx context.Context, id string, otp *OTP) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	var (
		hash   []byte
		expiry *time.Time
	)
	if otp != nil {
		hash = otp.CodeHash
		exp := otp.Expiry.UTC()
		expiry = &exp
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET otp_hash = $1, otp_expiry = $2, updated_at = now() WHERE id = $3`, hash, expiry, userID)
	if err != nil {
		return fmt.Errorf("update otp: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBalances overwrites the cached balances.
func (r *PostgresRepository) UpdateBalances(ctx context.Context, id string, topUp, winning decimal.Decimal) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET top_up_balance = $1, winning_balance = $2, updated_at = now() WHERE id = $3`, topUp, winning, userID)
	if err != nil {
		return fmt.Errorf("update balances: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
