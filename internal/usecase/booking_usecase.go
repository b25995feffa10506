package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"doctor-appointment-service/internal/converter"
	"doctor-appointment-service/internal/delivery/dto"
	"doctor-appointment-service/internal/domain/entity"
	"doctor-appointment-service/internal/domain/repository"
	"doctor-appointment-service/internal/service"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrPatientNotFound        = errors.New("patient not found")
	ErrUnauthorized           = errors.New("not allowed to act on this appointment")
	ErrInvalidStateTransition = errors.New("appointment state does not permit this transition")
	ErrConflict               = errors.New("appointment was modified concurrently")
	ErrValidation             = errors.New("invalid booking request")
)

const (
	// Bounded retry budget for optimistic-concurrency conflicts
	transitionMaxRetries   = 3
	transitionRetryBackoff = 50 * time.Millisecond
)

type BookingUsecase interface {
	Book(ctx context.Context, principal entity.Principal, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, principal entity.Principal, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, principal entity.Principal, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	ListForPatient(ctx context.Context, principal entity.Principal) (*dto.AppointmentListResponse, error)
	ListForDoctor(ctx context.Context, principal entity.Principal) (*dto.AppointmentListResponse, error)
	ListAll(ctx context.Context) (*dto.AppointmentListResponse, error)
}

type bookingUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	doctorRepo      repository.DoctorRepository
	patientRepo     repository.PatientRepository
	ledger          *service.SlotLedger
	audit           service.AuditService
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	patientRepo repository.PatientRepository,
	ledger *service.SlotLedger,
	audit service.AuditService,
) BookingUsecase {
	return &bookingUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		doctorRepo:      doctorRepo,
		patientRepo:     patientRepo,
		ledger:          ledger,
		audit:           audit,
	}
}

// Book reserves a slot for the calling patient and creates the appointment.
//
// Flow:
// 1. Validate the slot key
// 2. Load doctor, fail if missing or unavailable
// 3. Atomic ledger reservation (single conditional insert)
// 4. Snapshot fee and display data
// 5. Insert appointment as booked
// 6. If the insert fails -> compensate: release the reservation
func (u *bookingUsecase) Book(ctx context.Context, principal entity.Principal, req *dto.BookAppointmentRequest) (*dto.AppointmentResponse, error) {
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, ErrValidation
	}
	if _, err := entity.ParseSlotDate(req.SlotDate); err != nil {
		return nil, ErrValidation
	}
	slotTime := strings.TrimSpace(req.SlotTime)
	if slotTime == "" {
		return nil, ErrValidation
	}

	// Availability is read at call time, never cached across requests.
	doctor, err := u.doctorRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, service.ErrDoctorNotFound
	}
	if !doctor.Available {
		return nil, service.ErrDoctorUnavailable
	}

	patient, err := u.patientRepo.FindByID(u.db.WithContext(ctx), principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", principal.ID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	// The critical section: one atomic conditional insert in the ledger.
	// On any failure past this point the reservation must be compensated.
	if err := u.ledger.Reserve(ctx, doctorID, req.SlotDate, slotTime); err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		PatientID:       principal.ID,
		DoctorID:        doctorID,
		SlotDate:        req.SlotDate,
		SlotTime:        slotTime,
		FeeSnapshot:     doctor.Fees,
		PatientSnapshot: patient.Snapshot(),
		DoctorSnapshot:  doctor.Snapshot(),
		Status:          entity.AppointmentStatusBooked,
	}

	if err := u.appointmentRepo.Create(u.db.WithContext(ctx), appointment); err != nil {
		u.log.Errorf("Failed to insert appointment, compensating ledger: %+v", err)

		// COMPENSATE - free the slot since the appointment was never created.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if releaseErr := u.ledger.Release(releaseCtx, doctorID, req.SlotDate, slotTime); releaseErr != nil {
			u.log.Errorf("CRITICAL: Failed to release slot %s %s %s after insert failure: %+v",
				doctorID, req.SlotDate, slotTime, releaseErr)
		}

		return nil, err
	}

	actorID := principal.ID
	if err := u.audit.LogEvent(ctx, u.db.WithContext(ctx), &actorID, entity.AuditActionAppointmentBook, appointment.ID.String(), map[string]interface{}{
		"doctor_id": doctorID.String(),
		"slot_date": req.SlotDate,
		"slot_time": slotTime,
	}); err != nil {
		u.log.Warnf("Failed to audit booking %s (non-fatal): %+v", appointment.ID, err)
	}

	u.log.Infof("Appointment booked: id=%s, doctor=%s, slot=%s %s", appointment.ID, doctorID, req.SlotDate, slotTime)
	return converter.AppointmentToResponse(appointment), nil
}

// Cancel cancels an appointment and frees its slot. Allowed for the booking
// patient, the doctor of record, or an admin.
func (u *bookingUsecase) Cancel(ctx context.Context, principal entity.Principal, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if !principal.IsAdmin() && principal.ID != appointment.PatientID && principal.ID != appointment.DoctorID {
		return nil, ErrUnauthorized
	}

	if err := u.applyTransition(ctx, appointment, entity.AppointmentStatusCancelled); err != nil {
		return nil, err
	}

	// Free the slot. Both effects form one logical unit; a failed release is
	// logged and reconciled by the startup ledger re-sync.
	if err := u.ledger.Release(ctx, appointment.DoctorID, appointment.SlotDate, appointment.SlotTime); err != nil {
		u.log.Warnf("Failed to release slot for cancelled appointment %s (non-fatal): %+v", appointmentID, err)
	}

	actorID := principal.ID
	if err := u.audit.LogEvent(ctx, u.db.WithContext(ctx), &actorID, entity.AuditActionAppointmentCancel, appointmentID.String(), nil); err != nil {
		u.log.Warnf("Failed to audit cancellation %s (non-fatal): %+v", appointmentID, err)
	}

	appointment.Status = entity.AppointmentStatusCancelled
	u.log.Infof("Appointment cancelled: id=%s, doctor=%s", appointmentID, appointment.DoctorID)
	return converter.AppointmentToResponse(appointment), nil
}

// Complete marks an appointment completed. Allowed for the doctor of record
// or an admin; the slot stays consumed.
func (u *bookingUsecase) Complete(ctx context.Context, principal entity.Principal, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if !principal.IsAdmin() && principal.ID != appointment.DoctorID {
		return nil, ErrUnauthorized
	}

	if err := u.applyTransition(ctx, appointment, entity.AppointmentStatusCompleted); err != nil {
		return nil, err
	}

	actorID := principal.ID
	if err := u.audit.LogEvent(ctx, u.db.WithContext(ctx), &actorID, entity.AuditActionAppointmentComplete, appointmentID.String(), nil); err != nil {
		u.log.Warnf("Failed to audit completion %s (non-fatal): %+v", appointmentID, err)
	}

	appointment.Status = entity.AppointmentStatusCompleted
	u.log.Infof("Appointment completed: id=%s, doctor=%s", appointmentID, appointment.DoctorID)
	return converter.AppointmentToResponse(appointment), nil
}

// applyTransition moves the appointment to target under an optimistic guard:
// the update only lands if the status still matches what we read. A lost race
// is retried a bounded number of times with backoff, re-reading each attempt;
// exhaustion surfaces ErrConflict.
func (u *bookingUsecase) applyTransition(ctx context.Context, appointment *entity.Appointment, target entity.AppointmentStatus) error {
	id := appointment.ID
	current := appointment.Status

	backoff := retry.WithMaxRetries(transitionMaxRetries, retry.NewExponential(transitionRetryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if !current.CanTransitionTo(target) {
			return ErrInvalidStateTransition
		}

		rows, err := u.appointmentRepo.UpdateStatusFrom(u.db.WithContext(ctx), id, current, target)
		if err != nil {
			return err
		}
		if rows > 0 {
			return nil
		}

		// Someone else transitioned first; re-read and try again from the
		// fresh status.
		fresh, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
		if err != nil {
			return err
		}
		if fresh == nil {
			return ErrAppointmentNotFound
		}
		current = fresh.Status
		return retry.RetryableError(ErrConflict)
	})
}

// ListForPatient returns all appointments booked by the calling patient
func (u *bookingUsecase) ListForPatient(ctx context.Context, principal entity.Principal) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByPatientID(u.db.WithContext(ctx), principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for patient %s: %+v", principal.ID, err)
		return nil, err
	}
	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// ListForDoctor returns all appointments held with the calling doctor
func (u *bookingUsecase) ListForDoctor(ctx context.Context, principal entity.Principal) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindByDoctorID(u.db.WithContext(ctx), principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find appointments for doctor %s: %+v", principal.ID, err)
		return nil, err
	}
	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// ListAll returns every appointment (admin dashboard feed)
func (u *bookingUsecase) ListAll(ctx context.Context) (*dto.AppointmentListResponse, error) {
	appointments, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find all appointments: %+v", err)
		return nil, err
	}
	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}
