package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Doctor represents a doctor profile. The profile itself is managed by the
// external admin surface; the booking engine reads Fees and Available.
type Doctor struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name       string          `gorm:"type:varchar(100);not null;index" json:"name"`
	Email      string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Speciality string          `gorm:"type:varchar(100);not null;index" json:"speciality"`
	Degree     string          `gorm:"type:varchar(100)" json:"degree,omitempty"`
	Experience string          `gorm:"type:varchar(50)" json:"experience,omitempty"`
	About      string          `gorm:"type:text" json:"about,omitempty"`
	Fees       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"fees"`
	Available  bool            `gorm:"not null;default:true" json:"available"`
	ImageURL   string          `gorm:"type:text" json:"image_url,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// Snapshot returns the display data embedded into appointments at booking time.
func (d *Doctor) Snapshot() PartySnapshot {
	return PartySnapshot{
		Name:       d.Name,
		ImageURL:   d.ImageURL,
		Speciality: d.Speciality,
	}
}
