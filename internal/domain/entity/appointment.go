package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusPaid      AppointmentStatus = "paid"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// allowedTransitions is the appointment state table. Completed and cancelled
// are terminal.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusBooked:    {AppointmentStatusPaid, AppointmentStatusCancelled, AppointmentStatusCompleted},
	AppointmentStatusPaid:      {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
}

// CanTransitionTo reports whether the state table permits moving from s to target.
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func (s AppointmentStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// PartySnapshot is the denormalized patient/doctor display data captured at
// booking time. It is intentionally never re-joined against live rows: the
// appointment keeps showing the parties as they were when it was booked.
type PartySnapshot struct {
	Name       string `json:"name"`
	ImageURL   string `json:"image_url,omitempty"`
	Speciality string `json:"speciality,omitempty"`
}

// Value implements driver.Valuer for JSONB storage
func (p PartySnapshot) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner
func (p *PartySnapshot) Scan(value interface{}) error {
	if value == nil {
		*p = PartySnapshot{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", value))
	}
	return json.Unmarshal(bytes, p)
}

// Appointment represents one booked slot held by a patient with a doctor.
// FeeSnapshot is the doctor's fee captured at booking time and is immutable
// afterwards; booking-time pricing is authoritative even if the doctor's
// current fee changes later.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	SlotDate        string            `gorm:"type:varchar(10);not null;index:idx_appointments_slot" json:"slot_date"`
	SlotTime        string            `gorm:"type:varchar(20);not null;index:idx_appointments_slot" json:"slot_time"`
	FeeSnapshot     decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"fee_snapshot"`
	PatientSnapshot PartySnapshot     `gorm:"type:jsonb" json:"patient_snapshot"`
	DoctorSnapshot  PartySnapshot     `gorm:"type:jsonb" json:"doctor_snapshot"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'booked';index" json:"status"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsBooked checks if the appointment is awaiting payment
func (a *Appointment) IsBooked() bool {
	return a.Status == AppointmentStatusBooked
}

// IsPaid checks if the appointment has been paid for
func (a *Appointment) IsPaid() bool {
	return a.Status == AppointmentStatusPaid
}

// IsCancelled checks if the appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// IsCompleted checks if the appointment has been completed
func (a *Appointment) IsCompleted() bool {
	return a.Status == AppointmentStatusCompleted
}
