package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ludosixer/ludo_wallet/internal/apperr"
	"github.com/ludosixer/ludo_wallet/internal/identity"
	"github.com/ludosixer/ludo_wallet/internal/ledger"
	"github.com/ludosixer/ludo_wallet/internal/lock"
	"github.com/ludosixer/ludo_wallet/internal/metrics"
)

// Service derives balances from the ledger and keeps the cached user
// balances in step with it.
type Service struct {
	users   identity.Repository
	txns    ledger.Repository
	locker  lock.Locker
	metrics *metrics.Metrics
}

// NewService builds a wallet service. A nil locker serializes in-process.
func NewService(users identity.Repository, txns ledger.Repository, locker lock.Locker, m *metrics.Metrics) *Service {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	return &Service{users: users, txns: txns, locker: locker, metrics: m}
}

// Users returns the user store balances are written to.
func (s *Service) Users() identity.Repository { return s.users }

// Transactions returns the transaction store balances are derived from.
func (s *Service) Transactions() ledger.Repository { return s.txns }

// WithUserLock runs fn while holding the user's lock.
func (s *Service) WithUserLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	release, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return apperr.Internal("could not lock wallet", err)
	}
	defer release()
	return fn(ctx)
}

// Reconcile replays the user's completed transactions and stores the
// result on the user record. Callers hold the user lock.
func (s *Service) Reconcile(ctx context.Context, userID string) (ledger.Balances, error) {
	txns, err := s.txns.ListCompleted(ctx, userID)
	if err != nil {
		return ledger.Balances{}, apperr.Internal("could not load transactions", err)
	}
	balances := ledger.Fold(txns)
	if err := s.users.UpdateBalances(ctx, userID, balances.TopUp, balances.Winning); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ledger.Balances{}, apperr.NotFound("User not found")
		}
		return ledger.Balances{}, apperr.Internal("could not update balances", err)
	}
	s.metrics.RecordReconcile()
	return balances, nil
}

// Current returns the latest completed snapshot, or the cached user balances
// when the user has no completed transaction.
func (s *Service) Current(ctx context.Context, userID string) (ledger.Balances, error) {
	latest, err := s.txns.LatestCompleted(ctx, userID)
	if err == nil {
		return latest.Snapshot(), nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return ledger.Balances{}, apperr.Internal("could not load latest transaction", err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ledger.Balances{}, apperr.NotFound("User not found")
		}
		return ledger.Balances{}, apperr.Internal("could not load user", err)
	}
	return ledger.Balances{TopUp: user.TopUpBalance, Winning: user.WinningBalance}, nil
}

// LatestSnapshot returns the latest completed snapshot or zero balances.
func (s *Service) LatestSnapshot(ctx context.Context, userID string) (ledger.Balances, error) {
	latest, err := s.txns.LatestCompleted(ctx, userID)
	if errors.Is(err, ledger.ErrNotFound) {
		return Zero(), nil
	}
	if err != nil {
		return ledger.Balances{}, apperr.Internal("could not load latest transaction", err)
	}
	return latest.Snapshot(), nil
}

// Profile reconciles and reports the user's balances.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	var profile Profile
	err := s.WithUserLock(ctx, userID, func(ctx context.Context) error {
		balances, err := s.Reconcile(ctx, userID)
		if err != nil {
			return err
		}
		profile = Profile{TopUp: balances.TopUp, Winning: balances.Winning}

		latest, err := s.txns.LatestCompleted(ctx, userID)
		switch {
		case err == nil:
			profile.LastTransactionID = latest.TransactionID
		case !errors.Is(err, ledger.ErrNotFound):
			return apperr.Internal("could not load latest transaction", err)
		}
		return nil
	})
	return profile, err
}

// RechargeHistory lists the most recent recharges, newest first.
func (s *Service) RechargeHistory(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	txns, err := s.txns.ListByType(ctx, userID, ledger.TypeRecharge, HistoryLimit)
	if err != nil {
		return nil, apperr.Internal("could not load recharge history", err)
	}
	return txns, nil
}

// ResetBalance zeroes both balances and archives every transaction of the
// user, so later reconciliation also yields zero.
func (s *Service) ResetBalance(ctx context.Context, userID string) (ledger.Balances, error) {
	err := s.WithUserLock(ctx, userID, func(ctx context.Context) error {
		zero := Zero()
		if err := s.users.UpdateBalances(ctx, userID, zero.TopUp, zero.Winning); err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return apperr.NotFound("User not found")
			}
			return apperr.Internal("could not reset balances", err)
		}
		if _, err := s.txns.ArchiveAll(ctx, userID); err != nil {
			return apperr.Internal("could not archive transactions", fmt.Errorf("archive %s: %w", userID, err))
		}
		return nil
	})
	if err != nil {
		return ledger.Balances{}, err
	}
	return Zero(), nil
}
