package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type ChangeAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// Response DTOs

type DoctorResponse struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Speciality string          `json:"speciality"`
	Degree     string          `json:"degree,omitempty"`
	Experience string          `json:"experience,omitempty"`
	About      string          `json:"about,omitempty"`
	Fees       decimal.Decimal `json:"fees"`
	Available  bool            `json:"available"`
	ImageURL   string          `json:"image_url,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}

type BookedSlotsResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	SlotDate string    `json:"slot_date"`
	Times    []string  `json:"times"`
}
