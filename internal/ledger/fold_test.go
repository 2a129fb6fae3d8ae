package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func completed(kind Type, amount string) Transaction {
	return Transaction{Type: kind, Status: StatusCompleted, Amount: d(amount)}
}

func TestFoldEmpty(t *testing.T) {
	got := Fold(nil)
	assert.True(t, got.TopUp.IsZero())
	assert.True(t, got.Winning.IsZero())
}

func TestFoldRechargesMinusDeductions(t *testing.T) {
	got := Fold([]Transaction{
		completed(TypeRecharge, "100"),
		completed(TypeRecharge, "50.25"),
		completed(TypeDeduction, "30.25"),
	})
	assert.True(t, got.TopUp.Equal(d("120")), got.TopUp.String())
	assert.True(t, got.Winning.IsZero())
}

func TestFoldIgnoresWinningsAndNonCompleted(t *testing.T) {
	got := Fold([]Transaction{
		completed(TypeRecharge, "10"),
		completed(TypeWinning, "500"),
		{Type: TypeRecharge, Status: StatusPending, Amount: d("40")},
		{Type: TypeRecharge, Status: StatusArchived, Amount: d("40")},
		{Type: TypeDeduction, Status: StatusFailed, Amount: d("5")},
	})
	assert.True(t, got.TopUp.Equal(d("10")), got.TopUp.String())
	assert.True(t, got.Winning.IsZero(), "winnings are never credited by the fold")
}

func TestFoldClampsAtZero(t *testing.T) {
	// A deduction taken against the winning balance still debits top-up in the fold.
	got := Fold([]Transaction{
		completed(TypeRecharge, "20"),
		completed(TypeDeduction, "50"),
	})
	assert.True(t, got.TopUp.IsZero(), got.TopUp.String())
	assert.False(t, got.Winning.IsNegative())
}

func TestFoldClampsOnlyAtTheEnd(t *testing.T) {
	got := Fold([]Transaction{
		completed(TypeDeduction, "50"),
		completed(TypeRecharge, "80"),
	})
	assert.True(t, got.TopUp.Equal(d("30")), got.TopUp.String())
}
