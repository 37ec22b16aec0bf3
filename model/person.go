package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the entity variant a record belongs to.
type EntityType string

const (
	EntityTypePerson   EntityType = "person"
	EntityTypeLocation EntityType = "location"
)

// Valid reports whether the entity type is one of the known variants.
func (e EntityType) Valid() bool {
	return e == EntityTypePerson || e == EntityTypeLocation
}

// Person represents a canonical person record
type Person struct {
	ID          int        `json:"id"`
	RID         uuid.UUID  `json:"rid"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CanonicalText returns the normalized text representation used for embedding generation
func (p *Person) CanonicalText() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Summary returns a short human-readable description for review candidates
func (p *Person) Summary() string {
	s := p.CanonicalText()
	if p.DateOfBirth != nil {
		s += " (DOB " + p.DateOfBirth.Format("2006-01-02") + ")"
	}
	return s
}
