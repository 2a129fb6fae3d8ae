package funding

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/clock"
	"github.com/ludosixer/ludo_wallet/internal/ledger"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
	"github.com/ludosixer/ludo_wallet/internal/wallet"
)

// CallbackSuccess is the provider status that settles an order. It is
// matched exactly; any other value fails the order.
const CallbackSuccess = "SUCCESS"

// Options tunes the funding service.
type Options struct {
	// Deferred records recharges as pending and credits them only when the
	// payment callback reports success.
	Deferred bool
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Service records recharges and settles them from provider callbacks.
type Service struct {
	wallets  *wallet.Service
	gateway  Gateway
	deferred bool
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService prepares a funding service.
func NewService(wallets *wallet.Service, gateway Gateway, opts Options) (*Service, error) {
	if wallets == nil {
		return nil, errors.New("wallet service is required")
	}
	if gateway == nil {
		return nil, errors.New("payment gateway is required")
	}
	s := &Service{
		wallets:  wallets,
		gateway:  gateway,
		deferred: opts.Deferred,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// RechargeInput captures a top-up order.
type RechargeInput struct {
	UserID        string
	Amount        decimal.Decimal
	TransactionID string
}

// RechargeResult is the recorded order together with its payment link.
type RechargeResult struct {
	Amount       decimal.Decimal
	OrderID      string
	PaymentLink  string
	GatewayTxn   string
	Status       ledger.Status
	BalanceAfter *ledger.Balances
}

// Recharge records a top-up and asks the gateway for a payment link.
func (s *Service) Recharge(ctx context.Context, input RechargeInput) (RechargeResult, error) {
	if !input.Amount.IsPositive() {
		return RechargeResult{}, apperr.InvalidAmount("Amount must be greater than 0")
	}
	input.TransactionID = strings.TrimSpace(input.TransactionID)
	if input.TransactionID == "" {
		return RechargeResult{}, apperr.Validation("transactionId is required")
	}

	var (
		txn      ledger.Transaction
		checkout Checkout
	)
	err := s.wallets.WithUserLock(ctx, input.UserID, func(ctx context.Context) error {
		balances, err := s.wallets.Reconcile(ctx, input.UserID)
		if err != nil {
			return err
		}

		// Recorded pending first; only a created checkout lets it complete.
		txn = ledger.Transaction{
			ID:            uuid.NewString(),
			UserID:        input.UserID,
			TransactionID: input.TransactionID,
			Amount:        input.Amount,
			Type:          ledger.TypeRecharge,
			Status:        ledger.StatusPending,
			CreatedAt:     s.clock.Now(),
		}
		if err := s.wallets.Transactions().Create(ctx, txn); err != nil {
			if errors.Is(err, ledger.ErrDuplicateTransaction) {
				return apperr.Duplicate("Transaction ID already exists")
			}
			return apperr.Internal("could not record recharge", err)
		}

		checkout, err = s.gateway.CreateCheckout(ctx, CheckoutRequest{OrderID: txn.TransactionID, UserID: input.UserID, Amount: input.Amount})
		if err != nil {
			s.logger.ErrorContext(ctx, "payment link creation failed",
				slog.String("order_id", txn.TransactionID),
				slog.Any("error", err),
			)
			return apperr.Internal("Could not create payment link", err)
		}
		if err := s.wallets.Transactions().AttachCheckout(ctx, txn.ID, checkout.PaymentLink, checkout.GatewayTxn); err != nil {
			return apperr.Internal("could not store payment link", err)
		}
		txn.PaymentLink, txn.GatewayTxn = checkout.PaymentLink, checkout.GatewayTxn

		if s.deferred {
			return nil
		}
		after := ledger.Balances{TopUp: balances.TopUp.Add(input.Amount), Winning: balances.Winning}
		if err := s.wallets.Transactions().Settle(ctx, txn.ID, ledger.StatusCompleted, &after); err != nil {
			return apperr.Internal("could not settle recharge", err)
		}
		if err := s.wallets.Users().UpdateBalances(ctx, input.UserID, after.TopUp, after.Winning); err != nil {
			return apperr.Internal("could not update balances", err)
		}
		txn.Status = ledger.StatusCompleted
		txn.BalanceAfter = &after
		return nil
	})
	if err != nil {
		return RechargeResult{}, err
	}
	s.metrics.RecordTransaction(string(ledger.TypeRecharge), string(txn.Status))

	s.logger.InfoContext(ctx, "recharge recorded",
		slog.String("user_id", input.UserID),
		slog.String("order_id", txn.TransactionID),
		slog.String("amount", input.Amount.String()),
		slog.String("status", string(txn.Status)),
	)
	return RechargeResult{
		Amount:       input.Amount,
		OrderID:      txn.TransactionID,
		PaymentLink:  checkout.PaymentLink,
		GatewayTxn:   checkout.GatewayTxn,
		Status:       txn.Status,
		BalanceAfter: txn.BalanceAfter,
	}, nil
}

// CallbackInput is a provider settlement notification.
type CallbackInput struct {
	OrderID string
	Status  string
	Amount  decimal.NullDecimal
}

// PaymentCallback settles a pending order. Orders that are no longer pending
// are acknowledged unchanged.
func (s *Service) PaymentCallback(ctx context.Context, input CallbackInput) error {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return apperr.NotFound("Transaction not found")
	}
	txn, err := s.find(ctx, orderID)
	if err != nil {
		return err
	}

	var settled ledger.Status
	err = s.wallets.WithUserLock(ctx, txn.UserID, func(ctx context.Context) error {
		txn, err := s.find(ctx, orderID)
		if err != nil {
			return err
		}
		if txn.Status != ledger.StatusPending {
			s.logger.InfoContext(ctx, "callback for settled order ignored",
				slog.String("order_id", orderID),
				slog.String("status", string(txn.Status)),
			)
			return nil
		}

		if input.Status != CallbackSuccess {
			if err := s.wallets.Transactions().Settle(ctx, txn.ID, ledger.StatusFailed, nil); err != nil {
				return apperr.Internal("could not settle transaction", err)
			}
			settled = ledger.StatusFailed
			return nil
		}

		amount := txn.Amount
		if input.Amount.Valid && input.Amount.Decimal.IsPositive() {
			amount = input.Amount.Decimal
		}
		latest, err := s.wallets.LatestSnapshot(ctx, txn.UserID)
		if err != nil {
			return err
		}
		after := ledger.Balances{TopUp: latest.TopUp.Add(amount), Winning: latest.Winning}
		if err := s.wallets.Transactions().Settle(ctx, txn.ID, ledger.StatusCompleted, &after); err != nil {
			return apperr.Internal("could not settle transaction", err)
		}
		if err := s.wallets.Users().UpdateBalances(ctx, txn.UserID, after.TopUp, after.Winning); err != nil {
			return apperr.Internal("could not update balances", err)
		}
		settled = ledger.StatusCompleted
		return nil
	})
	if err != nil {
		return err
	}

	if settled != "" {
		s.metrics.RecordTransaction(string(txn.Type), string(settled))
		s.logger.InfoContext(ctx, "payment callback applied",
			slog.String("order_id", orderID),
			slog.String("status", string(settled)),
		)
	}
	return nil
}

func (s *Service) find(ctx context.Context, orderID string) (ledger.Transaction, error) {
	txn, err := s.wallets.Transactions().FindByTransactionID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return ledger.Transaction{}, apperr.NotFound("Transaction not found")
		}
		return ledger.Transaction{}, apperr.Internal("could not load transaction", err)
	}
	return txn, nil
}
