package review

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/siherrmann/resolver/core/match"
	"github.com/siherrmann/resolver/core/pipeline"
	"github.com/siherrmann/resolver/database"
	"github.com/siherrmann/resolver/model"
)

// Manager owns the review queue state machine. Items enter as pending and
// leave through exactly one of resolve (link or create) or skip; both end
// states are terminal.
type Manager struct {
	reviews   database.ReviewsDBHandlerFunctions
	persons   database.PersonsDBHandlerFunctions
	locations database.LocationsDBHandlerFunctions
	exact     *match.ExactMatcher
	index     match.SimilarityIndex
	embedder  pipeline.EmbedFunc
}

// NewManager creates a new review queue manager
func NewManager(
	reviews database.ReviewsDBHandlerFunctions,
	persons database.PersonsDBHandlerFunctions,
	locations database.LocationsDBHandlerFunctions,
	index match.SimilarityIndex,
	embedder pipeline.EmbedFunc,
	config *model.MatchConfig,
) *Manager {
	return &Manager{
		reviews:   reviews,
		persons:   persons,
		locations: locations,
		exact:     match.NewExactMatcher(persons, locations, config),
		index:     index,
		embedder:  embedder,
	}
}

// SetEmbedder replaces the embedding function used for index learning
func (m *Manager) SetEmbedder(embedder pipeline.EmbedFunc) {
	m.embedder = embedder
}

// Enqueue persists a pending review item for an unresolved match outcome.
// Re-enqueueing for the same (document parse, entity type) pair while a
// pending item exists refreshes that item's candidate snapshot instead of
// creating a duplicate.
func (m *Manager) Enqueue(outcome *model.MatchOutcome, entityType model.EntityType, documentParseID int64, rawData model.Metadata) (*model.ReviewQueueItem, error) {
	if outcome == nil || outcome.Tier != model.MatchTierUnresolved {
		return nil, fmt.Errorf("%w: only unresolved outcomes can be enqueued", model.ErrInvalidState)
	}
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", model.ErrInvalidState, entityType)
	}
	if outcome.QueryType == model.QueryTypeMultipleResults && len(outcome.Candidates) == 0 {
		return nil, fmt.Errorf("%w: a multiple_results item requires candidates", model.ErrInvalidState)
	}
	if outcome.QueryType == model.QueryTypeNoResults && len(outcome.Candidates) > 0 {
		return nil, fmt.Errorf("%w: a no_results item cannot carry candidates", model.ErrInvalidState)
	}

	item := &model.ReviewQueueItem{
		DocumentParseID: documentParseID,
		EntityType:      entityType,
		QueryType:       outcome.QueryType,
		RawData:         rawData,
		Candidates:      outcome.Candidates,
	}

	err := m.reviews.UpsertReview(item)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ResolveByLink transitions a pending item to resolved, linking it to an
// existing entity. The link is written back onto the originating document
// parse, and if the entity had no embedding yet the index learns one from
// the item's raw data snapshot.
func (m *Manager) ResolveByLink(itemID int64, entityID int, reviewedBy string) (*model.ReviewQueueItem, error) {
	item, err := m.selectPending(itemID)
	if err != nil {
		return nil, err
	}

	err = m.checkEntityExists(item.EntityType, entityID)
	if err != nil {
		return nil, err
	}

	return m.resolve(item, entityID, reviewedBy)
}

// ResolveByCreate creates a new entity from the given record and resolves the
// pending item against it. The deterministic matcher is re-run immediately
// before insert; any hit means another caller created the entity concurrently
// and the operation fails with ErrConcurrentCreate for the caller to retry as
// a fresh match attempt.
func (m *Manager) ResolveByCreate(itemID int64, record *model.ExtractedRecord, reviewedBy string) (*model.ReviewQueueItem, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: missing entity data", model.ErrInvalidState)
	}

	item, err := m.selectPending(itemID)
	if err != nil {
		return nil, err
	}
	record.Type = item.EntityType

	// Compare-and-create guard against concurrent uploads for the same
	// not-yet-created entity
	existing, err := m.exact.Match(record)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %d exact matches for new entity data", model.ErrConcurrentCreate, len(existing))
	}

	entityID, err := m.createEntity(record)
	if err != nil {
		return nil, err
	}

	return m.resolve(item, entityID, reviewedBy)
}

// ResolveSuperseded closes the pending item for a parse slot after the slot
// was linked outside the review flow, for example by a reprocess run that
// found a match on the deterministic or semantic tier. The item is resolved
// to the linked entity with the system reviewer, so the queue never carries a
// pending item for an already linked slot. Returns nil without error when no
// pending item exists for the slot.
func (m *Manager) ResolveSuperseded(documentParseID int64, entityType model.EntityType, entityID int) (*model.ReviewQueueItem, error) {
	item, err := m.reviews.SelectPendingReviewForSlot(documentParseID, entityType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return m.resolve(item, entityID, "system")
}

// Skip transitions a pending item to skipped with no entity or index side effects
func (m *Manager) Skip(itemID int64, reason string) (*model.ReviewQueueItem, error) {
	_, err := m.selectPending(itemID)
	if err != nil {
		return nil, err
	}

	item, err := m.reviews.SkipReview(itemID, reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: review item %d", model.ErrAlreadyResolved, itemID)
	}
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListPending returns pending items oldest first. Nil filters match everything.
func (m *Manager) ListPending(entityType *model.EntityType, queryType *model.QueryType) ([]*model.ReviewQueueItem, error) {
	return m.reviews.SelectPendingReviews(entityType, queryType)
}

// Get returns a review queue item by ID
func (m *Manager) Get(itemID int64) (*model.ReviewQueueItem, error) {
	item, err := m.reviews.SelectReview(itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: review item %d", model.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a review queue item regardless of status
func (m *Manager) Delete(itemID int64) error {
	return m.reviews.DeleteReview(itemID)
}

// Stats returns aggregated queue counts
func (m *Manager) Stats() (*model.ReviewStats, error) {
	return m.reviews.SelectReviewStats()
}

func (m *Manager) selectPending(itemID int64) (*model.ReviewQueueItem, error) {
	item, err := m.reviews.SelectReview(itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: review item %d", model.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, fmt.Errorf("%w: review item %d is %s", model.ErrAlreadyResolved, itemID, item.Status)
	}
	return item, nil
}

func (m *Manager) checkEntityExists(entityType model.EntityType, entityID int) error {
	var err error
	switch entityType {
	case model.EntityTypePerson:
		_, err = m.persons.SelectPerson(entityID)
	case model.EntityTypeLocation:
		_, err = m.locations.SelectLocation(entityID)
	default:
		return fmt.Errorf("%w: unknown entity type %q", model.ErrInvalidState, entityType)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", model.ErrNotFound, entityType, entityID)
	}
	return err
}

func (m *Manager) createEntity(record *model.ExtractedRecord) (int, error) {
	switch record.Type {
	case model.EntityTypePerson:
		if !record.HasPersonKey() {
			return 0, fmt.Errorf("%w: person requires first and last name", model.ErrInvalidState)
		}
		person := &model.Person{
			FirstName:   record.FirstName,
			LastName:    record.LastName,
			DateOfBirth: record.ParsedDateOfBirth(),
		}
		err := m.persons.InsertPerson(person)
		if err != nil {
			return 0, err
		}
		return person.ID, nil
	case model.EntityTypeLocation:
		name := record.OrganizationName
		if name == "" {
			name = record.Address
		}
		if name == "" {
			return 0, fmt.Errorf("%w: location requires a name or address", model.ErrInvalidState)
		}
		location := &model.Location{
			Name:    name,
			Address: record.Address,
			City:    record.City,
			State:   record.State,
			Zip:     record.Zip,
		}
		err := m.locations.InsertLocation(location)
		if err != nil {
			return 0, err
		}
		return location.ID, nil
	default:
		return 0, fmt.Errorf("%w: unknown entity type %q", model.ErrInvalidState, record.Type)
	}
}

// resolve performs the guarded state transition and lets the index learn from
// the confirmed match. The parse back-link is written by resolve_review in the
// same transaction as the transition, so a failure never leaves a terminal
// item without its link.
func (m *Manager) resolve(item *model.ReviewQueueItem, entityID int, reviewedBy string) (*model.ReviewQueueItem, error) {
	resolved, err := m.reviews.ResolveReview(item.ID, entityID, reviewedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: review item %d", model.ErrAlreadyResolved, item.ID)
	}
	if err != nil {
		return nil, err
	}

	m.learnEmbedding(resolved, entityID)

	return resolved, nil
}

// learnEmbedding upserts an embedding for a human-confirmed match if the
// entity had none. Best effort, a failure here leaves the index to learn on a
// later resolution.
func (m *Manager) learnEmbedding(item *model.ReviewQueueItem, entityID int) {
	if m.embedder == nil || m.index == nil {
		return
	}

	hasEmbedding, err := m.index.HasEmbedding(item.EntityType, entityID)
	if err != nil || hasEmbedding {
		return
	}

	canonicalText := model.RecordFromSnapshot(item.EntityType, item.RawData).CanonicalText()
	if canonicalText == "" {
		canonicalText = m.entityCanonicalText(item.EntityType, entityID)
	}
	if canonicalText == "" {
		return
	}

	embedding, err := m.embedder(canonicalText)
	if err != nil {
		return
	}

	_ = m.index.UpsertEmbedding(item.EntityType, entityID, embedding)
}

func (m *Manager) entityCanonicalText(entityType model.EntityType, entityID int) string {
	switch entityType {
	case model.EntityTypePerson:
		person, err := m.persons.SelectPerson(entityID)
		if err != nil {
			return ""
		}
		return person.CanonicalText()
	case model.EntityTypeLocation:
		location, err := m.locations.SelectLocation(entityID)
		if err != nil {
			return ""
		}
		return location.CanonicalText()
	}
	return ""
}
