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

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
	validator     *validator.CustomValidator
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase, validator *validator.CustomValidator) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
		validator:     validator,
	}
}

func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.ListDoctors(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get doctors")
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}

func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	doctor, err := h.doctorUsecase.GetDoctor(r.Context(), doctorID)
	if err != nil {
		if errors.Is(err, service.ErrDoctorNotFound) {
			response.NotFound(w, "Doctor not found")
			return
		}
		response.InternalServerError(w, "Failed to get doctor")
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", doctor)
}

func (h *DoctorHandler) GetBookedSlots(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	slotDate := r.URL.Query().Get("date")

	slots, err := h.doctorUsecase.BookedSlots(r.Context(), doctorID, slotDate)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrValidation):
			response.Error(w, http.StatusBadRequest, "Date must be DD_MM_YYYY", nil)
		case errors.Is(err, service.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to get booked slots")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booked slots retrieved successfully", slots)
}

func (h *DoctorHandler) ChangeAvailability(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	var req dto.ChangeAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	doctor, err := h.doctorUsecase.ChangeAvailability(r.Context(), principal, doctorID, *req.Available)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnauthorized):
			response.Forbidden(w, "Not allowed to change this doctor's availability")
		case errors.Is(err, service.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to change availability")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor availability updated successfully", doctor)
}
