package usecase

import (
	"context"
	"errors"

	"doctor-appointment-service/internal/converter"
	"doctor-appointment-service/internal/delivery/dto"
	"doctor-appointment-service/internal/domain/entity"
	"doctor-appointment-service/internal/domain/repository"
	"doctor-appointment-service/internal/gateway"
	"doctor-appointment-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrPaymentFailed means the gateway reports the order as not settled
	ErrPaymentFailed = errors.New("payment not completed")
)

// minorUnitFactor converts the fee snapshot into the gateway's minor
// currency unit (e.g. rupees to paise).
var minorUnitFactor = decimal.NewFromInt(100)

type PaymentUsecase interface {
	CreateIntent(ctx context.Context, principal entity.Principal, appointmentID uuid.UUID) (*dto.PaymentIntentResponse, error)
	VerifyPayment(ctx context.Context, principal entity.Principal, orderID string) (*dto.AppointmentResponse, error)
}

type paymentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	gateway         gateway.PaymentGateway
	audit           service.AuditService
	currency        string
}

func NewPaymentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	paymentGateway gateway.PaymentGateway,
	audit service.AuditService,
	currency string,
) PaymentUsecase {
	return &paymentUsecase{
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		gateway:         paymentGateway,
		audit:           audit,
		currency:        currency,
	}
}

// CreateIntent opens a gateway order for the appointment fee. The amount
// comes from the booking-time fee snapshot, not the doctor's current fee,
// converted to the gateway's minor currency unit. The appointment ID rides
// along as the order receipt so verification can find its way back.
func (u *paymentUsecase) CreateIntent(ctx context.Context, principal entity.Principal, appointmentID uuid.UUID) (*dto.PaymentIntentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if !principal.IsAdmin() && principal.ID != appointment.PatientID {
		return nil, ErrUnauthorized
	}

	if appointment.IsCancelled() || appointment.IsCompleted() {
		return nil, ErrInvalidStateTransition
	}

	amount := appointment.FeeSnapshot.Mul(minorUnitFactor).IntPart()

	order, err := u.gateway.CreateOrder(ctx, amount, u.currency, appointment.ID.String())
	if err != nil {
		return nil, err
	}

	actorID := principal.ID
	if err := u.audit.LogEvent(ctx, u.db.WithContext(ctx), &actorID, entity.AuditActionPaymentIntent, appointmentID.String(), map[string]interface{}{
		"order_id": order.ID,
		"amount":   amount,
		"currency": u.currency,
	}); err != nil {
		u.log.Warnf("Failed to audit payment intent for %s (non-fatal): %+v", appointmentID, err)
	}

	u.log.Infof("Payment intent created: appointment=%s, order=%s, amount=%d %s", appointmentID, order.ID, amount, u.currency)
	return &dto.PaymentIntentResponse{
		OrderID:  order.ID,
		Amount:   amount,
		Currency: u.currency,
	}, nil
}

// VerifyPayment reconciles a gateway order against the appointment it paid
// for. Safe to call repeatedly and concurrently: a settled order marks the
// appointment paid exactly once in effect, and re-verification of an
// already-paid appointment is a no-op with the same outcome.
func (u *paymentUsecase) VerifyPayment(ctx context.Context, principal entity.Principal, orderID string) (*dto.AppointmentResponse, error) {
	order, err := u.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		// gateway.ErrGateway: the caller may retry later, the charge state
		// is unknown, not declined.
		return nil, err
	}

	if !order.IsPaid() {
		return nil, ErrPaymentFailed
	}

	appointmentID, err := uuid.Parse(order.Receipt)
	if err != nil {
		u.log.Warnf("Order %s carries malformed receipt %q", orderID, order.Receipt)
		return nil, ErrAppointmentNotFound
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	switch appointment.Status {
	case entity.AppointmentStatusPaid:
		// Already reconciled; converge without a second side effect.
		return converter.AppointmentToResponse(appointment), nil
	case entity.AppointmentStatusBooked:
		// proceed below
	default:
		return nil, ErrInvalidStateTransition
	}

	rows, err := u.appointmentRepo.UpdateStatusFrom(u.db.WithContext(ctx), appointmentID, entity.AppointmentStatusBooked, entity.AppointmentStatusPaid)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Lost the race; a concurrent verification or cancellation landed
		// first. Re-read and report whatever it produced.
		fresh, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
		if err != nil {
			return nil, err
		}
		if fresh == nil {
			return nil, ErrAppointmentNotFound
		}
		if fresh.IsPaid() {
			return converter.AppointmentToResponse(fresh), nil
		}
		return nil, ErrInvalidStateTransition
	}

	actorID := principal.ID
	if err := u.audit.LogEvent(ctx, u.db.WithContext(ctx), &actorID, entity.AuditActionPaymentVerify, appointmentID.String(), map[string]interface{}{
		"order_id": orderID,
	}); err != nil {
		u.log.Warnf("Failed to audit payment verification for %s (non-fatal): %+v", appointmentID, err)
	}

	appointment.Status = entity.AppointmentStatusPaid
	u.log.Infof("Payment verified: appointment=%s, order=%s", appointmentID, orderID)
	return converter.AppointmentToResponse(appointment), nil
}
