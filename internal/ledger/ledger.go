package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateTransaction indicates the transaction identifier is already
	// recorded for some user.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrNotFound is returned when no transaction matches a lookup.
	ErrNotFound = errors.New("transaction not found")
)

// Type classifies a monetary event.
type Type string

const (
	TypeRecharge  Type = "recharge"
	TypeWinning   Type = "winning"
	TypeDeduction Type = "deduction"
)

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusArchived  Status = "archived"
)

// Balances is a pair of top-up and winning balances.
type Balances struct {
	TopUp   decimal.Decimal
	Winning decimal.Decimal
}

// Transaction is a single ledger record for a user.
type Transaction struct {
	ID            string
	UserID        string
	TransactionID string
	Amount        decimal.Decimal
	Type          Type
	Status        Status
	// BalanceAfter is nil until the transaction has been applied.
	BalanceAfter *Balances
	PaymentLink  string
	GatewayTxn   string
	GameID       string
	SpendType    string
	CreatedAt    time.Time
}

// Snapshot returns the balance snapshot or zero balances when none was recorded.
func (t Transaction) Snapshot() Balances {
	if t.BalanceAfter == nil {
		return Balances{TopUp: decimal.Zero, Winning: decimal.Zero}
	}
	return *t.BalanceAfter
}

// Repository defines the contract implemented by transaction stores.
type Repository interface {
	Create(ctx context.Context, txn Transaction) error
	FindByTransactionID(ctx context.Context, transactionID string) (Transaction, error)
	// ListCompleted returns the users completed transactions oldest first.
	ListCompleted(ctx context.Context, userID string) ([]Transaction, error)
	// LatestCompleted returns the newest completed transaction or ErrNotFound.
	LatestCompleted(ctx context.Context, userID string) (Transaction, error)
	// ListByType returns at most limit transactions of kind, newest first.
	ListByType(ctx context.Context, userID string, kind Type, limit int) ([]Transaction, error)
	// Settle moves a transaction to status and records its snapshot.
	Settle(ctx context.Context, id string, status Status, snapshot *Balances) error
	AttachCheckout(ctx context.Context, id, paymentLink, gatewayTxn string) error
	// ArchiveAll marks every transaction of the user archived.
	ArchiveAll(ctx context.Context, userID string) (int64, error)
}
