package dto

// Request DTOs

type CreatePaymentIntentRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
}

type VerifyPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// Response DTOs

type PaymentIntentResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
