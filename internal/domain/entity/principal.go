package entity

import "github.com/google/uuid"

// Role is the role of an authenticated caller
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Principal is the authenticated identity for one request, produced by the
// auth middleware from the access token. Every operation receives it
// explicitly; the engine holds no ambient session state.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsDoctor() bool {
	return p.Role == RoleDoctor
}

func (p Principal) IsPatient() bool {
	return p.Role == RolePatient
}
