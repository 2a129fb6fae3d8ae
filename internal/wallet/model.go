package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/ludosixer/ludo_wallet/internal/ledger"
)

// HistoryLimit caps the recharge history listing.
const HistoryLimit = 50

// Profile is the reconciled view of a player's wallet.
type Profile struct {
	TopUp   decimal.Decimal
	Winning decimal.Decimal
	// LastTransactionID is empty when the player has no completed transaction.
	LastTransactionID string
}

// Zero returns balances of zero.
func Zero() ledger.Balances {
	return ledger.Balances{TopUp: decimal.Zero, Winning: decimal.Zero}
}
