package dto

import (
	"time"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID        int64                  `json:"id"`
	ActorID   *uuid.UUID             `json:"actor_id,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type AuditLogListResponse struct {
	AuditLogs []AuditLogResponse `json:"audit_logs"`
	Total     int                `json:"total"`
}
