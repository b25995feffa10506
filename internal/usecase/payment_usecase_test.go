package usecase

import (
	"context"
	"testing"

	"doctor-appointment-service/internal/domain/entity"
	"doctor-appointment-service/internal/gateway"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	*bookingFixture
	gateway *fakeGateway
	payment PaymentUsecase
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	bf := newBookingFixture(t)
	gw := newFakeGateway()
	payment := NewPaymentUsecase(bf.db, newTestLogger(), bf.appointments, gw, bf.audit, "INR")
	return &paymentFixture{bookingFixture: bf, gateway: gw, payment: payment}
}

func (f *paymentFixture) bookAppointment(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := f.booking.Book(context.Background(), f.patient(), bookReq(f.bookingFixture))
	require.NoError(t, err)
	return resp.ID
}

func TestCreateIntentAmountAndReceipt(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	appointmentID := f.bookAppointment(t)

	intent, err := f.payment.CreateIntent(ctx, f.patient(), appointmentID)
	require.NoError(t, err)

	// Fee snapshot of 500 converts to 50000 minor units.
	assert.Equal(t, int64(50000), intent.Amount)
	assert.Equal(t, "INR", intent.Currency)
	assert.NotEmpty(t, intent.OrderID)

	order, err := f.gateway.FetchOrder(ctx, intent.OrderID)
	require.NoError(t, err)
	assert.Equal(t, appointmentID.String(), order.Receipt)

	assert.Contains(t, f.audit.events, entity.AuditActionPaymentIntent)
}

func TestCreateIntentAuthorization(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	appointmentID := f.bookAppointment(t)

	_, err := f.payment.CreateIntent(ctx, f.addPatient(), appointmentID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.payment.CreateIntent(ctx, f.admin(), appointmentID)
	assert.NoError(t, err)

	_, err = f.payment.CreateIntent(ctx, f.patient(), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCreateIntentRejectsTerminalStates(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	appointmentID := f.bookAppointment(t)
	_, err := f.booking.Cancel(ctx, f.patient(), appointmentID)
	require.NoError(t, err)
	_, err = f.payment.CreateIntent(ctx, f.patient(), appointmentID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	req := bookReq(f.bookingFixture)
	req.SlotTime = "16:00"
	resp, err := f.booking.Book(ctx, f.patient(), req)
	require.NoError(t, err)
	_, err = f.booking.Complete(ctx, f.doctor(), resp.ID)
	require.NoError(t, err)
	_, err = f.payment.CreateIntent(ctx, f.patient(), resp.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestVerifyPaymentMarksPaid(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	appointmentID := f.bookAppointment(t)

	intent, err := f.payment.CreateIntent(ctx, f.patient(), appointmentID)
	require.NoError(t, err)
	f.gateway.markPaid(intent.OrderID)

	resp, err := f.payment.VerifyPayment(ctx, f.patient(), intent.OrderID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusPaid), resp.Status)

	stored, err := f.appointments.FindByID(nil, appointmentID)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusPaid, stored.Status)
	assert.Contains(t, f.audit.events, entity.AuditActionPaymentVerify)
}

func TestVerifyPaymentUnsettledOrder(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	appointmentID := f.bookAppointment(t)

	intent, err := f.payment.CreateIntent(ctx, f.patient(), appointmentID)
	require.NoError(t, err)

	// Order never settled at the gateway.
	_, err = f.payment.VerifyPayment(ctx, f.patient(), intent.OrderID)
	assert.ErrorIs(t, err, ErrPaymentFailed)

	stored, err := f.appointments.FindByID(nil, appointmentID)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusBooked, stored.Status)
}

func TestVerifyPaymentGatewayError(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.gateway.fetchErr = gateway.ErrGateway
	_, err := f.payment.VerifyPayment(ctx, f.patient(), "order_unknown")
	assert.ErrorIs(t, err, gateway.ErrGateway)
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	appointmentID := f.bookAppointment(t)

	intent, err := f.payment.CreateIntent(ctx, f.patient(), appointmentID)
	require.NoError(t, err)
	f.gateway.markPaid(intent.OrderID)

	first, err := f.payment.VerifyPayment(ctx, f.patient(), intent.OrderID)
	require.NoError(t, err)

	second, err := f.payment.VerifyPayment(ctx, f.patient(), intent.OrderID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)

	verifications := 0
	for _, action := range f.audit.events {
		if action == entity.AuditActionPaymentVerify {
			verifications++
		}
	}
	assert.Equal(t, 1, verifications, "re-verification must not record a second event")
}

func TestVerifyPaymentAfterCancellation(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	appointmentID := f.bookAppointment(t)

	intent, err := f.payment.CreateIntent(ctx, f.patient(), appointmentID)
	require.NoError(t, err)
	f.gateway.markPaid(intent.OrderID)

	_, err = f.booking.Cancel(ctx, f.patient(), appointmentID)
	require.NoError(t, err)

	_, err = f.payment.VerifyPayment(ctx, f.patient(), intent.OrderID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestPaidAppointmentCanStillBeCancelled(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	appointmentID := f.bookAppointment(t)

	intent, err := f.payment.CreateIntent(ctx, f.patient(), appointmentID)
	require.NoError(t, err)
	f.gateway.markPaid(intent.OrderID)
	_, err = f.payment.VerifyPayment(ctx, f.patient(), intent.OrderID)
	require.NoError(t, err)

	cancelled, err := f.booking.Cancel(ctx, f.patient(), appointmentID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusCancelled), cancelled.Status)
}
