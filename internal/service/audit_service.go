package service

import (
	"context"

	"doctor-appointment-service/internal/domain/entity"
	"doctor-appointment-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records appointment lifecycle events. Failures are logged and
// swallowed by callers; the trail is best-effort and never blocks a booking.
type AuditService interface {
	LogEvent(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action string, appointmentID string, detail map[string]interface{}) error
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogEvent logs one lifecycle action against an appointment
func (s *auditService) LogEvent(ctx context.Context, tx *gorm.DB, actorID *uuid.UUID, action string, appointmentID string, detail map[string]interface{}) error {
	metadata := entity.JSON{
		"appointment_id": appointmentID,
	}
	for k, v := range detail {
		metadata[k] = v
	}

	auditLog := &entity.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
