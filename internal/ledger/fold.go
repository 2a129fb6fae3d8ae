package ledger

import "github.com/shopspring/decimal"

// Fold replays completed transactions, oldest first, into balances starting
// from zero. Recharges credit top-up and deductions debit top-up whichever
// balance they were spent from. Winnings are not credited. Both results are
// clamped at zero.
func Fold(txns []Transaction) Balances {
	topUp := decimal.Zero
	winning := decimal.Zero
	for _, t := range txns {
		if t.Status != StatusCompleted {
			continue
		}
		switch t.Type {
		case TypeRecharge:
			topUp = topUp.Add(t.Amount)
		case TypeDeduction:
			topUp = topUp.Sub(t.Amount)
		}
	}
	return Balances{TopUp: clamp(topUp), Winning: clamp(winning)}
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
