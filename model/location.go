package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Location represents a canonical location record (organization and address)
type Location struct {
	ID        int       `json:"id"`
	RID       uuid.UUID `json:"rid"`
	Name      string    `json:"name"` // Organization name
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CanonicalText returns the normalized text representation used for embedding generation
func (l *Location) CanonicalText() string {
	parts := []string{}
	for _, p := range []string{l.Name, l.Address, l.City, l.State, l.Zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Summary returns a short human-readable description for review candidates
func (l *Location) Summary() string {
	return l.CanonicalText()
}
