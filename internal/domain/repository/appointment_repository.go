package repository

import (
	"doctor-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotRef identifies one booked slot, used to rebuild the ledger on startup.
type SlotRef struct {
	DoctorID uuid.UUID
	SlotDate string
	SlotTime string
}

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	FindAll(db *gorm.DB) ([]entity.Appointment, error)
	// UpdateStatusFrom applies a state transition only if the row still holds
	// the expected prior status. Returns affected rows: 1 = applied, 0 = a
	// concurrent transition won.
	UpdateStatusFrom(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error)
	// FindHeldSlots returns the slot keys of every appointment that still
	// consumes its ledger entry (everything except cancelled), batched.
	FindHeldSlots(db *gorm.DB, limit, offset int) ([]SlotRef, error)
}
