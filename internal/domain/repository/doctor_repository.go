package repository

import (
	"doctor-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error)
	FindAll(db *gorm.DB) ([]entity.Doctor, error)
	// SetAvailability flips the availability flag, returning the affected row
	// count (0 means no such doctor).
	SetAvailability(db *gorm.DB, id uuid.UUID, available bool) (int64, error)
}
