package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/clock"
	"github.com/ludosixer/ludo_wallet/internal/ledger"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
	"github.com/ludosixer/ludo_wallet/internal/wallet"
)

const (
	SpendTopUp   = "topup"
	SpendWinning = "winning"

	idAttempts = 3
)

// Service debits in-game spending from a player's balances.
type Service struct {
	wallets *wallet.Service
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService constructs a payment service.
func NewService(wallets *wallet.Service, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{wallets: wallets, clock: clk, metrics: m, logger: logger}
}

// SpendInput captures a debit request.
type SpendInput struct {
	UserID string
	Amount decimal.Decimal
	// Type selects the debited balance; anything but "winning" means top-up.
	Type   string
	GameID string
}

// SpendResult describes the recorded deduction.
type SpendResult struct {
	TransactionID string
	Amount        decimal.Decimal
	BalanceAfter  ledger.Balances
	Timestamp     time.Time
}

// BalanceShortfall is attached to an InsufficientBalance error.
type BalanceShortfall struct {
	CurrentBalance float64 `json:"currentBalance"`
	RequiredAmount float64 `json:"requiredAmount"`
}

// Spend debits the selected balance and records a completed deduction.
func (s *Service) Spend(ctx context.Context, input SpendInput) (SpendResult, error) {
	if !input.Amount.IsPositive() {
		return SpendResult{}, apperr.InvalidAmount("Amount must be greater than 0")
	}
	spendType := SpendTopUp
	if input.Type == SpendWinning {
		spendType = SpendWinning
	}

	var result SpendResult
	err := s.wallets.WithUserLock(ctx, input.UserID, func(ctx context.Context) error {
		if _, err := s.wallets.Reconcile(ctx, input.UserID); err != nil {
			return err
		}
		current, err := s.wallets.Current(ctx, input.UserID)
		if err != nil {
			return err
		}

		available := current.TopUp
		if spendType == SpendWinning {
			available = current.Winning
		}
		if available.LessThan(input.Amount) {
			return apperr.InsufficientBalance(BalanceShortfall{
				CurrentBalance: available.InexactFloat64(),
				RequiredAmount: input.Amount.InexactFloat64(),
			})
		}

		after := current
		if spendType == SpendWinning {
			after.Winning = current.Winning.Sub(input.Amount)
		} else {
			after.TopUp = current.TopUp.Sub(input.Amount)
		}

		txn, err := s.record(ctx, input, spendType, after)
		if err != nil {
			return err
		}
		if err := s.applyToUser(ctx, input.UserID, spendType, after); err != nil {
			return err
		}

		result = SpendResult{
			TransactionID: txn.TransactionID,
			Amount:        input.Amount,
			BalanceAfter:  after,
			Timestamp:     txn.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return SpendResult{}, err
	}

	s.metrics.RecordTransaction(string(ledger.TypeDeduction), string(ledger.StatusCompleted))
	s.logger.InfoContext(ctx, "spend recorded",
		slog.String("user_id", input.UserID),
		slog.String("transaction_id", result.TransactionID),
		slog.String("amount", input.Amount.String()),
		slog.String("spend_type", spendType),
	)
	return result, nil
}

func (s *Service) record(ctx context.Context, input SpendInput, spendType string, after ledger.Balances) (ledger.Transaction, error) {
	for attempt := 0; attempt < idAttempts; attempt++ {
		now := s.clock.Now()
		snapshot := after
		txn := ledger.Transaction{
			ID:            uuid.NewString(),
			UserID:        input.UserID,
			TransactionID: spendID(now),
			Amount:        input.Amount,
			Type:          ledger.TypeDeduction,
			Status:        ledger.StatusCompleted,
			BalanceAfter:  &snapshot,
			GameID:        input.GameID,
			SpendType:     spendType,
			CreatedAt:     now,
		}
		err := s.wallets.Transactions().Create(ctx, txn)
		if err == nil {
			return txn, nil
		}
		if !errors.Is(err, ledger.ErrDuplicateTransaction) {
			return ledger.Transaction{}, apperr.Internal("could not record spend", err)
		}
	}
	return ledger.Transaction{}, apperr.Internal("could not record spend", errors.New("transaction id collision"))
}

// applyToUser writes only the debited field onto the user record.
func (s *Service) applyToUser(ctx context.Context, userID, spendType string, after ledger.Balances) error {
	user, err := s.wallets.Users().FindByID(ctx, userID)
	if err != nil {
		return apperr.Internal("could not load user", err)
	}
	topUp, winning := user.TopUpBalance, user.WinningBalance
	if spendType == SpendWinning {
		winning = after.Winning
	} else {
		topUp = after.TopUp
	}
	if err := s.wallets.Users().UpdateBalances(ctx, userID, topUp, winning); err != nil {
		return apperr.Internal("could not update balances", err)
	}
	return nil
}

func spendID(now time.Time) string {
	return fmt.Sprintf("SP%d%d", now.UnixMilli(), rand.Intn(1000))
}
