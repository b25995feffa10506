package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"doctor-appointment-service/internal/delivery/dto"
	"doctor-appointment-service/internal/delivery/http/middleware"
	"doctor-appointment-service/internal/service"
	"doctor-appointment-service/internal/usecase"
	"doctor-appointment-service/pkg/response"
	"doctor-appointment-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewAppointmentHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var req dto.BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.bookingUsecase.Book(r.Context(), principal, &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrValidation):
			response.Error(w, http.StatusBadRequest, "Invalid slot request", nil)
		case errors.Is(err, service.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		case errors.Is(err, service.ErrDoctorUnavailable):
			response.Error(w, http.StatusBadRequest, "Doctor not available", nil)
		case errors.Is(err, service.ErrSlotUnavailable):
			response.Conflict(w, "Slot not available")
		case errors.Is(err, usecase.ErrPatientNotFound):
			response.NotFound(w, "Patient not found")
		default:
			response.InternalServerError(w, "Failed to book appointment")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Appointment booked successfully", appointment)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	appointmentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	appointment, err := h.bookingUsecase.Cancel(r.Context(), principal, appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAppointmentNotFound):
			response.NotFound(w, "Appointment not found")
		case errors.Is(err, usecase.ErrUnauthorized):
			response.Forbidden(w, "Not allowed to cancel this appointment")
		case errors.Is(err, usecase.ErrInvalidStateTransition):
			response.Conflict(w, "Appointment is already cancelled or completed")
		case errors.Is(err, usecase.ErrConflict):
			response.Conflict(w, "Appointment was modified concurrently, try again")
		default:
			response.InternalServerError(w, "Failed to cancel appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment cancelled successfully", appointment)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	appointmentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	appointment, err := h.bookingUsecase.Complete(r.Context(), principal, appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAppointmentNotFound):
			response.NotFound(w, "Appointment not found")
		case errors.Is(err, usecase.ErrUnauthorized):
			response.Forbidden(w, "Not allowed to complete this appointment")
		case errors.Is(err, usecase.ErrInvalidStateTransition):
			response.Conflict(w, "Appointment is already cancelled or completed")
		case errors.Is(err, usecase.ErrConflict):
			response.Conflict(w, "Appointment was modified concurrently, try again")
		default:
			response.InternalServerError(w, "Failed to complete appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment completed successfully", appointment)
}

func (h *AppointmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	appointments, err := h.bookingUsecase.ListForPatient(r.Context(), principal)
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	appointments, err := h.bookingUsecase.ListForDoctor(r.Context(), principal)
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.bookingUsecase.ListAll(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get appointments")
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}
