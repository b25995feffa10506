package entity

import (
	"time"

	"github.com/google/uuid"
)

// Patient represents a patient profile, owned by the external identity system.
// The booking engine only reads display fields for appointment snapshots.
type Patient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	ImageURL  string    `gorm:"type:text" json:"image_url,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// Snapshot returns the display data embedded into appointments at booking time.
func (p *Patient) Snapshot() PartySnapshot {
	return PartySnapshot{
		Name:     p.Name,
		ImageURL: p.ImageURL,
	}
}
