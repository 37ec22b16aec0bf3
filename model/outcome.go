package model

import "github.com/google/uuid"

// MatchTier identifies the matching stage that produced (or failed to produce) a result.
type MatchTier string

const (
	MatchTierExact      MatchTier = "exact"
	MatchTierSemantic   MatchTier = "semantic"
	MatchTierUnresolved MatchTier = "unresolved"
)

// QueryType classifies why an unresolved outcome needs review.
type QueryType string

const (
	QueryTypeNoResults       QueryType = "no_results"
	QueryTypeMultipleResults QueryType = "multiple_results"
)

// ScoredCandidate is one candidate entity with its similarity score.
// Candidates are kept in descending score order.
type ScoredCandidate struct {
	EntityID   int       `json:"entity_id"`
	RID        uuid.UUID `json:"rid,omitempty"`
	Similarity float64   `json:"similarity"`
	Summary    string    `json:"summary,omitempty"`
}

// MatchOutcome is the result of a single matching attempt.
// It is a transient value, produced fresh per attempt and never persisted directly.
type MatchOutcome struct {
	Tier            MatchTier         `json:"tier"`
	QueryType       QueryType         `json:"query_type,omitempty"` // Set for unresolved outcomes
	MatchedEntityID *int              `json:"matched_entity_id,omitempty"`
	Candidates      []ScoredCandidate `json:"candidates,omitempty"`
	Confidence      float64           `json:"confidence"`
	Warning         string            `json:"warning,omitempty"` // Collaborator failure note, never a hard error
}

// Resolved reports whether the outcome carries an auto-accepted entity.
func (o *MatchOutcome) Resolved() bool {
	return o.Tier != MatchTierUnresolved && o.MatchedEntityID != nil
}

// DocumentOutcome aggregates the per-entity results of processing one document.
type DocumentOutcome struct {
	DocumentID        int64         `json:"document_id"`
	DocumentParseID   int64         `json:"document_parse_id"`
	ParseRID          uuid.UUID     `json:"parse_rid"`
	Sender            *MatchOutcome `json:"sender,omitempty"`
	Recipient         *MatchOutcome `json:"recipient,omitempty"`
	SenderLocationID  *int          `json:"sender_location_id,omitempty"`
	RecipientPersonID *int          `json:"recipient_person_id,omitempty"`
	PendingReviews    int           `json:"pending_reviews"`
	Warnings          []string      `json:"warnings,omitempty"`
}
