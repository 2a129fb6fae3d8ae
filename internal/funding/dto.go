package funding

import "github.com/shopspring/decimal"

// RechargeRequest is the body of a recharge call.
type RechargeRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId"`
}

// RechargeResponse is returned once the order and its payment link exist.
type RechargeResponse struct {
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	OrderID     string `json:"order_id"`
	PaymentLink string `json:"payment_link"`
	GatewayTxn  string `json:"gateway_txn"`
}

// CallbackRequest is the provider's settlement notification. Amount may be
// absent.
type CallbackRequest struct {
	OrderID string              `json:"orderId"`
	Status  string              `json:"status"`
	Amount  decimal.NullDecimal `json:"amount"`
}
