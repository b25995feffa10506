package repository

import (
	"regexp"
	"testing"

	"doctor-appointment-service/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestUpdateStatusFromGuardsOnPriorStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()
	id := uuid.New()

	query := regexp.QuoteMeta(`UPDATE "appointments" SET "status"=$1,"updated_at"=$2 WHERE id = $3 AND status = $4`)

	t.Run("applies when status matches", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(string(entity.AppointmentStatusPaid), sqlmock.AnyArg(), id.String(), string(entity.AppointmentStatusBooked)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.UpdateStatusFrom(db, id, entity.AppointmentStatusBooked, entity.AppointmentStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)
	})

	t.Run("no-op when a concurrent transition won", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(string(entity.AppointmentStatusCancelled), sqlmock.AnyArg(), id.String(), string(entity.AppointmentStatusBooked)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.UpdateStatusFrom(db, id, entity.AppointmentStatusBooked, entity.AppointmentStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()
	id := uuid.New()
	patientID := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "appointments" WHERE id = $1`)).
			WithArgs(id.String(), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "patient_id", "slot_date", "slot_time", "status"}).
				AddRow(id.String(), patientID.String(), "15_09_2026", "10:00", "booked"))

		appointment, err := repo.FindByID(db, id)
		require.NoError(t, err)
		require.NotNil(t, appointment)
		assert.Equal(t, id, appointment.ID)
		assert.Equal(t, patientID, appointment.PatientID)
		assert.Equal(t, entity.AppointmentStatusBooked, appointment.Status)
	})

	t.Run("missing row maps to nil, not an error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "appointments" WHERE id = $1`)).
			WithArgs(id.String(), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		appointment, err := repo.FindByID(db, id)
		require.NoError(t, err)
		assert.Nil(t, appointment)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindHeldSlotsExcludesCancelled(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAppointmentRepository()
	doctorID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT doctor_id, slot_date, slot_time FROM "appointments" WHERE status <> $1`)).
		WithArgs(string(entity.AppointmentStatusCancelled), 500).
		WillReturnRows(sqlmock.NewRows([]string{"doctor_id", "slot_date", "slot_time"}).
			AddRow(doctorID.String(), "15_09_2026", "10:00").
			AddRow(doctorID.String(), "15_09_2026", "10:30"))

	refs, err := repo.FindHeldSlots(db, 500, 0)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, doctorID, refs[0].DoctorID)
	assert.Equal(t, "10:30", refs[1].SlotTime)

	assert.NoError(t, mock.ExpectationsWereMet())
}
