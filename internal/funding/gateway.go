package funding

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gateway creates hosted checkout links with an external payment provider.
type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error)
}

// CheckoutRequest describes the order a player is about to pay.
type CheckoutRequest struct {
	OrderID string
	UserID  string
	Amount  decimal.Decimal
}

// Checkout is the provider's answer: where to send the player and the
// provider-side reference.
type Checkout struct {
	PaymentLink string
	GatewayTxn  string
}

// IndianPayGateway builds IndianPay hosted payment links. The provider
// reports the outcome through the payment callback.
type IndianPayGateway struct {
	baseURL     string
	merchantID  string
	redirectURL string
}

// NewIndianPayGateway validates the base URL and returns a link builder.
func NewIndianPayGateway(baseURL, merchantID, redirectURL string) (*IndianPayGateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway base url %q", baseURL)
	}
	if strings.TrimSpace(merchantID) == "" {
		return nil, errors.New("gateway merchant id is required")
	}
	return &IndianPayGateway{baseURL: baseURL, merchantID: merchantID, redirectURL: redirectURL}, nil
}

// CreateCheckout returns a payment link carrying the order id and amount.
func (g *IndianPayGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (Checkout, error) {
	if req.OrderID == "" {
		return Checkout{}, errors.New("order id is required")
	}
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return Checkout{}, err
	}
	q := u.Query()
	q.Set("orderId", req.OrderID)
	q.Set("merchantId", g.merchantID)
	q.Set("amount", req.Amount.StringFixed(2))
	if g.redirectURL != "" {
		q.Set("redirectUrl", g.redirectURL)
	}
	u.RawQuery = q.Encode()

	return Checkout{PaymentLink: u.String(), GatewayTxn: uuid.NewString()}, nil
}
