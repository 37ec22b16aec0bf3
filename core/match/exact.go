package match

import (
	"fmt"

	"github.com/siherrmann/resolver/database"
	"github.com/siherrmann/resolver/model"
)

// ExactMatcher performs the deterministic first-tier lookup over the entity
// stores. Persons match on case-insensitive name equality with optional date
// of birth tightening; locations on the configured key policies, tried in
// order until one yields rows.
type ExactMatcher struct {
	persons   database.PersonsDBHandlerFunctions
	locations database.LocationsDBHandlerFunctions
	config    *model.MatchConfig
}

// NewExactMatcher creates a new deterministic matcher over the entity stores
func NewExactMatcher(persons database.PersonsDBHandlerFunctions, locations database.LocationsDBHandlerFunctions, config *model.MatchConfig) *ExactMatcher {
	if config == nil {
		config = model.DefaultMatchConfig()
	}
	return &ExactMatcher{
		persons:   persons,
		locations: locations,
		config:    config,
	}
}

// Match runs the deterministic lookup for the record's entity variant.
// All returned candidates carry similarity 1.0; a record missing the required
// key fields yields zero candidates so the caller falls through to the
// semantic tier.
func (m *ExactMatcher) Match(record *model.ExtractedRecord) ([]model.ScoredCandidate, error) {
	switch record.Type {
	case model.EntityTypePerson:
		return m.matchPerson(record)
	case model.EntityTypeLocation:
		return m.matchLocation(record)
	default:
		return nil, fmt.Errorf("unknown entity type %q", record.Type)
	}
}

func (m *ExactMatcher) matchPerson(record *model.ExtractedRecord) ([]model.ScoredCandidate, error) {
	if !record.HasPersonKey() {
		return nil, nil
	}

	persons, err := m.persons.SelectPersonsExact(record.FirstName, record.LastName, record.ParsedDateOfBirth())
	if err != nil {
		return nil, err
	}

	candidates := make([]model.ScoredCandidate, 0, len(persons))
	for _, person := range persons {
		candidates = append(candidates, model.ScoredCandidate{
			EntityID:   person.ID,
			RID:        person.RID,
			Similarity: 1.0,
			Summary:    person.Summary(),
		})
	}

	return candidates, nil
}

func (m *ExactMatcher) matchLocation(record *model.ExtractedRecord) ([]model.ScoredCandidate, error) {
	// The first key with a complete field set and at least one row decides
	for _, key := range m.config.LocationKeys {
		var locations []*model.Location
		var err error

		switch key {
		case model.LocationKeyAddressZip:
			if !record.HasAddressKey() {
				continue
			}
			locations, err = m.locations.SelectLocationsByAddress(record.Address, record.Zip)
		case model.LocationKeyOrganization:
			if !record.HasOrganizationKey() {
				continue
			}
			locations, err = m.locations.SelectLocationsByOrganization(record.OrganizationName, record.City, record.State)
		default:
			return nil, fmt.Errorf("unknown location key %q", key)
		}
		if err != nil {
			return nil, err
		}

		if len(locations) > 0 {
			candidates := make([]model.ScoredCandidate, 0, len(locations))
			for _, location := range locations {
				candidates = append(candidates, model.ScoredCandidate{
					EntityID:   location.ID,
					RID:        location.RID,
					Similarity: 1.0,
					Summary:    location.Summary(),
				})
			}
			return candidates, nil
		}
	}

	return nil, nil
}
