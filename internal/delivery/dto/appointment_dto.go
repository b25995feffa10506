package dto

import (
	"time"

	"doctor-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	SlotDate string `json:"slot_date" validate:"required,slot_date"`
	SlotTime string `json:"slot_time" validate:"required,max=20"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID            `json:"id"`
	PatientID       uuid.UUID            `json:"patient_id"`
	DoctorID        uuid.UUID            `json:"doctor_id"`
	SlotDate        string               `json:"slot_date"`
	SlotTime        string               `json:"slot_time"`
	FeeSnapshot     decimal.Decimal      `json:"fee_snapshot"`
	PatientSnapshot entity.PartySnapshot `json:"patient_snapshot"`
	DoctorSnapshot  entity.PartySnapshot `json:"doctor_snapshot"`
	Status          string               `json:"status"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
