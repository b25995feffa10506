package usecase

import (
	"context"

	"doctor-appointment-service/internal/converter"
	"doctor-appointment-service/internal/delivery/dto"
	"doctor-appointment-service/internal/domain/entity"
	"doctor-appointment-service/internal/domain/repository"
	"doctor-appointment-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DoctorUsecase interface {
	ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error)
	BookedSlots(ctx context.Context, doctorID uuid.UUID, slotDate string) (*dto.BookedSlotsResponse, error)
	ChangeAvailability(ctx context.Context, principal entity.Principal, doctorID uuid.UUID, available bool) (*dto.DoctorResponse, error)
}

type doctorUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	doctorRepo repository.DoctorRepository
	ledger     *service.SlotLedger
	audit      service.AuditService
}

func NewDoctorUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	ledger *service.SlotLedger,
	audit service.AuditService,
) DoctorUsecase {
	return &doctorUsecase{
		db:         db,
		log:        log,
		doctorRepo: doctorRepo,
		ledger:     ledger,
		audit:      audit,
	}
}

func (u *doctorUsecase) ListDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	doctors, err := u.doctorRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find doctors: %+v", err)
		return nil, err
	}
	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(doctors),
		Total:   len(doctors),
	}, nil
}

func (u *doctorUsecase) GetDoctor(ctx context.Context, id uuid.UUID) (*dto.DoctorResponse, error) {
	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", id, err)
		return nil, err
	}
	if doctor == nil {
		return nil, service.ErrDoctorNotFound
	}
	return converter.DoctorToResponse(doctor), nil
}

// BookedSlots returns the booked time labels for one doctor/date, the feed
// for the booking calendar.
func (u *doctorUsecase) BookedSlots(ctx context.Context, doctorID uuid.UUID, slotDate string) (*dto.BookedSlotsResponse, error) {
	if _, err := entity.ParseSlotDate(slotDate); err != nil {
		return nil, ErrValidation
	}

	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, service.ErrDoctorNotFound
	}

	times, err := u.ledger.Booked(ctx, doctorID, slotDate)
	if err != nil {
		u.log.Warnf("Failed to read booked slots for doctor %s date %s: %+v", doctorID, slotDate, err)
		return nil, err
	}

	return &dto.BookedSlotsResponse{
		DoctorID: doctorID,
		SlotDate: slotDate,
		Times:    times,
	}, nil
}

// ChangeAvailability flips the doctor's availability flag. Allowed for the
// doctor themselves or an admin. Bookings in flight observe the new value on
// their next read.
func (u *doctorUsecase) ChangeAvailability(ctx context.Context, principal entity.Principal, doctorID uuid.UUID, available bool) (*dto.DoctorResponse, error) {
	if !principal.IsAdmin() && principal.ID != doctorID {
		return nil, ErrUnauthorized
	}

	rows, err := u.doctorRepo.SetAvailability(u.db.WithContext(ctx), doctorID, available)
	if err != nil {
		u.log.Warnf("Failed to update availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if rows == 0 {
		return nil, service.ErrDoctorNotFound
	}

	actorID := principal.ID
	if err := u.audit.LogEvent(ctx, u.db.WithContext(ctx), &actorID, entity.AuditActionDoctorAvailability, doctorID.String(), map[string]interface{}{
		"available": available,
	}); err != nil {
		u.log.Warnf("Failed to audit availability change for %s (non-fatal): %+v", doctorID, err)
	}

	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to reload doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, service.ErrDoctorNotFound
	}

	u.log.Infof("Doctor availability updated: id=%s, available=%t", doctorID, available)
	return converter.DoctorToResponse(doctor), nil
}
