package model

import (
	"strings"
	"time"
)

// ExtractedRecord is a normalized candidate entity record produced from the
// external extraction output of one document block.
type ExtractedRecord struct {
	Type EntityType `json:"type"`

	// Person fields
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	DateOfBirth string `json:"dob,omitempty"` // YYYY-MM-DD

	// Location fields
	OrganizationName string `json:"organization_name,omitempty"`
	Address          string `json:"address,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	Zip              string `json:"zip,omitempty"`

	// Contact fields, kept for the review snapshot only
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// HasPersonKey reports whether the record carries the required person lookup key.
func (r *ExtractedRecord) HasPersonKey() bool {
	return r.FirstName != "" && r.LastName != ""
}

// HasAddressKey reports whether the record carries the address+zip location key.
func (r *ExtractedRecord) HasAddressKey() bool {
	return r.Address != "" && r.Zip != ""
}

// HasOrganizationKey reports whether the record carries the organization+city+state key.
func (r *ExtractedRecord) HasOrganizationKey() bool {
	return r.OrganizationName != "" && r.City != "" && r.State != ""
}

// Empty reports whether no usable field was extracted at all.
func (r *ExtractedRecord) Empty() bool {
	return r.FirstName == "" && r.LastName == "" && r.OrganizationName == "" &&
		r.Address == "" && r.City == "" && r.State == "" && r.Zip == ""
}

// CanonicalText returns the normalized field concatenation used as embedding input.
// The field order matches the canonical text of the stored entity variants.
func (r *ExtractedRecord) CanonicalText() string {
	var parts []string
	switch r.Type {
	case EntityTypePerson:
		for _, p := range []string{r.FirstName, r.LastName} {
			if p != "" {
				parts = append(parts, p)
			}
		}
	case EntityTypeLocation:
		for _, p := range []string{r.OrganizationName, r.Address, r.City, r.State, r.Zip} {
			if p != "" {
				parts = append(parts, p)
			}
		}
	}
	return strings.Join(parts, " ")
}

// ParsedDateOfBirth parses the date of birth, accepting YYYY-MM-DD and MM/DD/YYYY.
// Returns nil if absent or unparseable; a bad date never fails a match attempt.
func (r *ExtractedRecord) ParsedDateOfBirth() *time.Time {
	if r.DateOfBirth == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, r.DateOfBirth); err == nil {
			return &t
		}
	}
	return nil
}

// Snapshot returns the raw data snapshot persisted on review queue items.
func (r *ExtractedRecord) Snapshot() Metadata {
	m := Metadata{}
	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("first_name", r.FirstName)
	set("last_name", r.LastName)
	set("dob", r.DateOfBirth)
	set("organization_name", r.OrganizationName)
	set("address", r.Address)
	set("city", r.City)
	set("state", r.State)
	set("zip", r.Zip)
	set("phone", r.Phone)
	set("email", r.Email)
	return m
}

// RecordFromSnapshot rebuilds an ExtractedRecord from a persisted raw data snapshot.
func RecordFromSnapshot(entityType EntityType, m Metadata) *ExtractedRecord {
	get := func(key string) string {
		if v, ok := m[key].(string); ok {
			return v
		}
		return ""
	}
	return &ExtractedRecord{
		Type:             entityType,
		FirstName:        get("first_name"),
		LastName:         get("last_name"),
		DateOfBirth:      get("dob"),
		OrganizationName: get("organization_name"),
		Address:          get("address"),
		City:             get("city"),
		State:            get("state"),
		Zip:              get("zip"),
		Phone:            get("phone"),
		Email:            get("email"),
	}
}
