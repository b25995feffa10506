package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"doctor-appointment-service/internal/delivery/dto"
	"doctor-appointment-service/internal/delivery/http/middleware"
	"doctor-appointment-service/internal/gateway"
	"doctor-appointment-service/internal/usecase"
	"doctor-appointment-service/pkg/response"
	"doctor-appointment-service/pkg/validator"

	"github.com/google/uuid"
)

type PaymentHandler struct {
	paymentUsecase usecase.PaymentUsecase
	validator      *validator.CustomValidator
}

func NewPaymentHandler(paymentUsecase usecase.PaymentUsecase, validator *validator.CustomValidator) *PaymentHandler {
	return &PaymentHandler{
		paymentUsecase: paymentUsecase,
		validator:      validator,
	}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var req dto.CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	intent, err := h.paymentUsecase.CreateIntent(r.Context(), principal, appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAppointmentNotFound):
			response.NotFound(w, "Appointment not found")
		case errors.Is(err, usecase.ErrUnauthorized):
			response.Forbidden(w, "Not allowed to pay for this appointment")
		case errors.Is(err, usecase.ErrInvalidStateTransition):
			response.Conflict(w, "Appointment is cancelled or completed")
		case errors.Is(err, gateway.ErrGateway):
			response.BadGateway(w, "Payment gateway unavailable, try again later")
		default:
			response.InternalServerError(w, "Failed to create payment intent")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Payment intent created successfully", intent)
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.paymentUsecase.VerifyPayment(r.Context(), principal, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAppointmentNotFound):
			response.NotFound(w, "Appointment not found")
		case errors.Is(err, usecase.ErrPaymentFailed):
			response.Error(w, http.StatusPaymentRequired, "Payment not completed", nil)
		case errors.Is(err, usecase.ErrInvalidStateTransition):
			response.Conflict(w, "Appointment is cancelled or completed")
		case errors.Is(err, gateway.ErrGateway):
			// Distinct from a decline: the charge state is unknown and the
			// client may retry verification later.
			response.BadGateway(w, "Payment gateway unavailable, retry verification later")
		default:
			response.InternalServerError(w, "Failed to verify payment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Payment verified successfully", appointment)
}
