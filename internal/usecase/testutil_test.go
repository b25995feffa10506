package usecase

import (
	"context"
	"sync"
	"testing"

	"doctor-appointment-service/internal/domain/entity"
	domainRepo "doctor-appointment-service/internal/domain/repository"
	"doctor-appointment-service/internal/gateway"
	"doctor-appointment-service/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// --- in-memory repository fakes ---

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*entity.Appointment
	createErr    error
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*entity.Appointment)}
}

func (r *fakeAppointmentRepo) Create(db *gorm.DB, appointment *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	copied := *appointment
	r.appointments[appointment.ID] = &copied
	return nil
}

func (r *fakeAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok {
		return nil, nil
	}
	copied := *appointment
	return &copied, nil
}

func (r *fakeAppointmentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindAll(db *gorm.DB) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) UpdateStatusFrom(db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok || appointment.Status != from {
		return 0, nil
	}
	appointment.Status = to
	return 1, nil
}

func (r *fakeAppointmentRepo) setStatus(id uuid.UUID, status entity.AppointmentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[id].Status = status
}

func (r *fakeAppointmentRepo) FindHeldSlots(db *gorm.DB, limit, offset int) ([]domainRepo.SlotRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var refs []domainRepo.SlotRef
	for _, a := range r.appointments {
		if a.Status != entity.AppointmentStatusCancelled {
			refs = append(refs, domainRepo.SlotRef{DoctorID: a.DoctorID, SlotDate: a.SlotDate, SlotTime: a.SlotTime})
		}
	}
	if offset >= len(refs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(refs) {
		end = len(refs)
	}
	return refs[offset:end], nil
}

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*entity.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*entity.Doctor)}
}

func (r *fakeDoctorRepo) add(doctor *entity.Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[doctor.ID] = doctor
}

func (r *fakeDoctorRepo) setFees(id uuid.UUID, fees decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[id].Fees = fees
}

func (r *fakeDoctorRepo) setAvailable(id uuid.UUID, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[id].Available = available
}

func (r *fakeDoctorRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return nil, nil
	}
	copied := *doctor
	return &copied, nil
}

func (r *fakeDoctorRepo) FindAll(db *gorm.DB) ([]entity.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Doctor
	for _, d := range r.doctors {
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDoctorRepo) SetAvailability(db *gorm.DB, id uuid.UUID, available bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doctor, ok := r.doctors[id]
	if !ok {
		return 0, nil
	}
	doctor.Available = available
	return 1, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*entity.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*entity.Patient)}
}

func (r *fakePatientRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Patient, error) {
	patient, ok := r.patients[id]
	if !ok {
		return nil, nil
	}
	copied := *patient
	return &copied, nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *fakeAudit) LogEvent(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action string, appointmentID string, detail map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, action)
	return nil
}

// --- gateway fake ---

type fakeGateway struct {
	mu       sync.Mutex
	orders   map[string]*gateway.Order
	fetchErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{orders: make(map[string]*gateway.Order)}
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order := &gateway.Order{
		ID:       uuid.New().String(),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   gateway.OrderStatusCreated,
	}
	g.orders[order.ID] = order
	return order, nil
}

func (g *fakeGateway) FetchOrder(ctx context.Context, orderID string) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	order, ok := g.orders[orderID]
	if !ok {
		return nil, gateway.ErrGateway
	}
	copied := *order
	return &copied, nil
}

func (g *fakeGateway) markPaid(orderID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[orderID].Status = gateway.OrderStatusPaid
}

// --- wiring helpers ---

type bookingFixture struct {
	db           *gorm.DB
	appointments *fakeAppointmentRepo
	doctors      *fakeDoctorRepo
	patients     *fakePatientRepo
	audit        *fakeAudit
	ledger       *service.SlotLedger
	booking      BookingUsecase

	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	db := newTestDB(t)
	log := newTestLogger()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	appointments := newFakeAppointmentRepo()
	doctors := newFakeDoctorRepo()
	patients := newFakePatientRepo()
	audit := &fakeAudit{}

	doctorID := uuid.New()
	doctors.add(&entity.Doctor{
		ID:         doctorID,
		Name:       "Dr. Verma",
		Speciality: "Dermatology",
		Fees:       decimal.NewFromInt(500),
		Available:  true,
	})

	patientID := uuid.New()
	patients.patients[patientID] = &entity.Patient{ID: patientID, Name: "Asha"}

	ledger := service.NewSlotLedger(db, redisClient, log, doctors, appointments)
	booking := NewBookingUsecase(db, log, appointments, doctors, patients, ledger, audit)

	return &bookingFixture{
		db:           db,
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		audit:        audit,
		ledger:       ledger,
		booking:      booking,
		doctorID:     doctorID,
		patientID:    patientID,
	}
}

func (f *bookingFixture) patient() entity.Principal {
	return entity.Principal{ID: f.patientID, Role: entity.RolePatient}
}

func (f *bookingFixture) doctor() entity.Principal {
	return entity.Principal{ID: f.doctorID, Role: entity.RoleDoctor}
}

func (f *bookingFixture) admin() entity.Principal {
	return entity.Principal{ID: uuid.New(), Role: entity.RoleAdmin}
}

func (f *bookingFixture) addPatient() entity.Principal {
	id := uuid.New()
	f.patients.patients[id] = &entity.Patient{ID: id, Name: "Ravi"}
	return entity.Principal{ID: id, Role: entity.RolePatient}
}
