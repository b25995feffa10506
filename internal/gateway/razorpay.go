package gateway

import (
	"context"
	"fmt"

	"doctor-appointment-service/config"

	"github.com/razorpay/razorpay-go"
	"github.com/sirupsen/logrus"
)

type razorpayGateway struct {
	client *razorpay.Client
	log    *logrus.Logger
}

// NewRazorpayGateway creates a PaymentGateway backed by the Razorpay Orders
// API.
func NewRazorpayGateway(cfg config.PaymentConfig, log *logrus.Logger) PaymentGateway {
	return &razorpayGateway{
		client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		log:    log,
	}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		g.log.Warnf("Razorpay order create failed for receipt %s: %+v", receipt, err)
		return nil, fmt.Errorf("%w: create order: %v", ErrGateway, err)
	}

	order := orderFromBody(body)
	if order.ID == "" {
		return nil, fmt.Errorf("%w: order id missing in response", ErrGateway)
	}
	return order, nil
}

func (g *razorpayGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	body, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		g.log.Warnf("Razorpay order fetch failed for %s: %+v", orderID, err)
		return nil, fmt.Errorf("%w: fetch order %s: %v", ErrGateway, orderID, err)
	}
	return orderFromBody(body), nil
}

// orderFromBody maps the untyped Razorpay response onto Order.
func orderFromBody(body map[string]interface{}) *Order {
	return &Order{
		ID:       stringField(body, "id"),
		Amount:   int64Field(body, "amount"),
		Currency: stringField(body, "currency"),
		Receipt:  stringField(body, "receipt"),
		Status:   stringField(body, "status"),
	}
}

func stringField(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func int64Field(body map[string]interface{}, key string) int64 {
	switch v := body[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
