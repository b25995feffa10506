package gateway

import (
	"context"
	"errors"
)

// ErrGateway marks a transport or API failure talking to the payment
// provider, distinct from an explicit decline. Callers may retry
// verification later without assuming the charge failed.
var ErrGateway = errors.New("payment gateway error")

// Order statuses as reported by the provider
const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"
)

// Order is the provider-side payment order created for one appointment.
// Amount is in the provider's minor currency unit; Receipt carries the
// appointment ID.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// IsPaid reports whether the order has settled.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// PaymentGateway abstracts the external payment provider so the reconciler
// can be exercised against a fake in tests.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}
