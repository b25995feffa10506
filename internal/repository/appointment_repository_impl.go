package repository

import (
	"errors"

	"doctor-appointment-service/internal/domain/entity"
	domainRepo "doctor-appointment-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindAll(db *gorm.DB) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Order("created_at DESC").Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateStatusFrom atomically applies a transition ONLY if the row still holds
// the expected prior status. Returns affected rows: 1 = applied, 0 = a
// concurrent transition changed the status first (caller treats as conflict).
func (r *appointmentRepository) UpdateStatusFrom(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) FindHeldSlots(db *gorm.DB, limit, offset int) ([]domainRepo.SlotRef, error) {
	var refs []domainRepo.SlotRef
	err := db.Model(&entity.Appointment{}).
		Select("doctor_id, slot_date, slot_time").
		Where("status <> ?", entity.AppointmentStatusCancelled).
		Order("created_at").
		Limit(limit).
		Offset(offset).
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}
