package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedCompleted is a test helper that records completed transactions for a
// user one second apart starting at base, with running snapshots.
func SeedCompleted(ctx context.Context, repo Repository, userID string, base time.Time, entries ...Transaction) error {
	running := Balances{TopUp: decimal.Zero, Winning: decimal.Zero}
	for i, e := range entries {
		switch e.Type {
		case TypeRecharge:
			running.TopUp = running.TopUp.Add(e.Amount)
		case TypeDeduction:
			running.TopUp = running.TopUp.Sub(e.Amount)
		case TypeWinning:
			running.Winning = running.Winning.Add(e.Amount)
		}
		snap := running
		e.ID = uuid.NewString()
		e.UserID = userID
		if e.TransactionID == "" {
			e.TransactionID = fmt.Sprintf("seed-%s-%d", userID, i)
		}
		e.Status = StatusCompleted
		e.BalanceAfter = &snap
		e.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
