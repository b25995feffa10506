package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctor-appointment-service/internal/domain/entity"
	"doctor-appointment-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrSlotUnavailable is returned when the requested slot is already booked
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrDoctorUnavailable is returned when the doctor is not accepting bookings
	ErrDoctorUnavailable = errors.New("doctor is not available")
	// ErrDoctorNotFound is returned when the doctor does not exist
	ErrDoctorNotFound = errors.New("doctor not found")
)

// =============================================================================
// Constants
// =============================================================================

const (
	// Redis key prefix for per-doctor slot sets
	redisSlotKeyPrefix = "slots:"

	// Batch size for startup resync - process 500 records at a time
	syncBatchSize = 500

	// Keep ledger keys around for two days past the slot date, then let
	// Redis expire them
	slotKeyRetention = 48 * time.Hour
)

// =============================================================================
// Types
// =============================================================================

// SlotLedger is the per-doctor record of currently booked (date, time) slots,
// held in Redis as one set per (doctor, date).
//
// Reserve is a single SADD: the membership check and the insert are one atomic
// command, so two concurrent bookings of the same slot can never both succeed.
// Release is SREM and therefore idempotent.
//
// Redis is the operational store; Postgres appointments are the source of
// truth. SyncOnStartup rebuilds every ledger from non-cancelled appointments
// before traffic is accepted, which also covers any crash window between a
// status write and its ledger update.
type SlotLedger struct {
	db              *gorm.DB
	redisClient     *redis.Client
	log             *logrus.Logger
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
}

// NewSlotLedger creates a SlotLedger backed by Redis and the appointment store.
func NewSlotLedger(
	db *gorm.DB,
	redisClient *redis.Client,
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	appointmentRepo repository.AppointmentRepository,
) *SlotLedger {
	return &SlotLedger{
		db:              db,
		redisClient:     redisClient,
		log:             log,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
	}
}

// slotKey builds the Redis key holding the booked time set for one doctor/date.
func slotKey(doctorID uuid.UUID, slotDate string) string {
	return fmt.Sprintf("%s%s:%s", redisSlotKeyPrefix, doctorID, slotDate)
}

// =============================================================================
// Public Methods
// =============================================================================

// Reserve atomically claims (doctorID, slotDate, slotTime). The doctor's
// availability flag is read from the database at call time, never cached.
// Returns ErrDoctorNotFound, ErrDoctorUnavailable or ErrSlotUnavailable.
func (l *SlotLedger) Reserve(ctx context.Context, doctorID uuid.UUID, slotDate, slotTime string) error {
	doctor, err := l.doctorRepo.FindByID(l.db.WithContext(ctx), doctorID)
	if err != nil {
		l.log.Warnf("Failed to load doctor %s for reservation: %+v", doctorID, err)
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}
	if !doctor.Available {
		return ErrDoctorUnavailable
	}

	key := slotKey(doctorID, slotDate)

	// SADD is the whole critical section: 1 added means we own the slot,
	// 0 means another booking holds it.
	added, err := l.redisClient.SAdd(ctx, key, slotTime).Result()
	if err != nil {
		return fmt.Errorf("reserve slot %s %s: %w", key, slotTime, err)
	}
	if added == 0 {
		return ErrSlotUnavailable
	}

	if ttl := l.keyTTL(slotDate); ttl > 0 {
		if err := l.redisClient.Expire(ctx, key, ttl).Err(); err != nil {
			l.log.Warnf("Failed to set TTL on %s (non-fatal): %+v", key, err)
		}
	}

	return nil
}

// Release frees (doctorID, slotDate, slotTime). Releasing a slot that is not
// held is a no-op, never an error.
func (l *SlotLedger) Release(ctx context.Context, doctorID uuid.UUID, slotDate, slotTime string) error {
	key := slotKey(doctorID, slotDate)
	if err := l.redisClient.SRem(ctx, key, slotTime).Err(); err != nil {
		return fmt.Errorf("release slot %s %s: %w", key, slotTime, err)
	}
	return nil
}

// Booked returns the time labels currently held for one doctor/date.
func (l *SlotLedger) Booked(ctx context.Context, doctorID uuid.UUID, slotDate string) ([]string, error) {
	times, err := l.redisClient.SMembers(ctx, slotKey(doctorID, slotDate)).Result()
	if err != nil {
		return nil, fmt.Errorf("read slots %s %s: %w", doctorID, slotDate, err)
	}
	return times, nil
}

// SyncOnStartup drops every ledger key and rebuilds them from non-cancelled
// appointments in the database, in batches of 500 with a fresh pipeline per
// batch. Should be called before accepting traffic (startup/disaster
// recovery).
func (l *SlotLedger) SyncOnStartup(ctx context.Context) error {
	l.log.Info("Starting slot ledger re-sync from database...")
	startTime := time.Now()

	if err := l.redisClient.Ping(ctx).Err(); err != nil {
		l.log.Warnf("Redis is not available, skipping sync: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	// Drop stale ledger keys first so released slots do not survive a rebuild.
	iter := l.redisClient.Scan(ctx, 0, redisSlotKeyPrefix+"*", int64(syncBatchSize)).Iterator()
	for iter.Next(ctx) {
		if err := l.redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("drop stale ledger key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan ledger keys: %w", err)
	}

	offset := 0
	totalSynced := 0

	for {
		refs, err := l.appointmentRepo.FindHeldSlots(l.db.WithContext(ctx), syncBatchSize, offset)
		if err != nil {
			l.log.Errorf("Failed to query held slots at offset %d: %+v", offset, err)
			return fmt.Errorf("query held slots at offset %d: %w", offset, err)
		}

		if len(refs) == 0 {
			if offset == 0 {
				l.log.Info("No held slots found for sync")
			}
			break
		}

		// New pipeline for THIS batch only, so memory stays bounded.
		pipe := l.redisClient.TxPipeline()
		for _, ref := range refs {
			key := slotKey(ref.DoctorID, ref.SlotDate)
			pipe.SAdd(ctx, key, ref.SlotTime)
			if ttl := l.keyTTL(ref.SlotDate); ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			l.log.Errorf("Failed to execute pipeline for batch at offset %d: %+v", offset, err)
			return fmt.Errorf("pipeline exec at offset %d: %w", offset, err)
		}

		totalSynced += len(refs)

		if len(refs) < syncBatchSize {
			break
		}
		offset += syncBatchSize

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	l.log.Infof("Slot ledger re-sync completed: %d slots synced in %v", totalSynced, time.Since(startTime))
	return nil
}

// keyTTL returns how long a ledger key should live, based on its slot date.
// Unparseable dates get no TTL rather than risking early expiry.
func (l *SlotLedger) keyTTL(slotDate string) time.Duration {
	day, err := entity.ParseSlotDate(slotDate)
	if err != nil {
		return 0
	}
	ttl := time.Until(day.Add(slotKeyRetention))
	if ttl <= 0 {
		return time.Hour
	}
	return ttl
}
