package model

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the state of a review queue item.
// Transitions are one-way: pending -> resolved or pending -> skipped.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusResolved ReviewStatus = "resolved"
	ReviewStatusSkipped  ReviewStatus = "skipped"
)

// Terminal reports whether the status allows no further transitions.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewStatusResolved || s == ReviewStatusSkipped
}

// CanTransitionTo reports whether the transition to target is allowed.
func (s ReviewStatus) CanTransitionTo(target ReviewStatus) bool {
	return s == ReviewStatusPending && target.Terminal()
}

// ReviewQueueItem is a persisted, human-adjudicable ambiguous or missing match.
type ReviewQueueItem struct {
	ID              int64        `json:"id"`
	RID             uuid.UUID    `json:"rid"`
	DocumentParseID int64        `json:"document_parse_id"`
	EntityType      EntityType   `json:"entity_type"`
	QueryType       QueryType    `json:"query_type"`
	RawData         Metadata     `json:"raw_data,omitempty"` // Snapshot of the extracted fields
	// Candidates in descending score order; empty for no_results items
	Candidates []ScoredCandidate `json:"candidate_matches,omitempty"`
	Status     ReviewStatus      `json:"status"`
	// Set only on resolution via link or create
	ResolvedEntityID *int       `json:"resolved_entity_id,omitempty"`
	ReviewedBy       string     `json:"reviewed_by,omitempty"`
	SkipReason       string     `json:"skip_reason,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ReviewStats aggregates review queue counts for monitoring.
type ReviewStats struct {
	TotalPending        int                `json:"total_pending"`
	TotalResolved       int                `json:"total_resolved"`
	TotalSkipped        int                `json:"total_skipped"`
	PendingByEntityType map[EntityType]int `json:"pending_by_entity_type"`
	PendingByQueryType  map[QueryType]int  `json:"pending_by_query_type"`
	OldestPending       *time.Time         `json:"oldest_pending,omitempty"`
}
