package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewStatusTerminal(t *testing.T) {
	assert.False(t, ReviewStatusPending.Terminal())
	assert.True(t, ReviewStatusResolved.Terminal())
	assert.True(t, ReviewStatusSkipped.Terminal())
}

func TestReviewStatusCanTransitionTo(t *testing.T) {
	t.Run("Pending transitions to either terminal state", func(t *testing.T) {
		assert.True(t, ReviewStatusPending.CanTransitionTo(ReviewStatusResolved))
		assert.True(t, ReviewStatusPending.CanTransitionTo(ReviewStatusSkipped))
	})

	t.Run("Terminal states allow no transitions", func(t *testing.T) {
		assert.False(t, ReviewStatusResolved.CanTransitionTo(ReviewStatusSkipped))
		assert.False(t, ReviewStatusResolved.CanTransitionTo(ReviewStatusPending))
		assert.False(t, ReviewStatusSkipped.CanTransitionTo(ReviewStatusResolved))
	})

	t.Run("Pending is not a transition target", func(t *testing.T) {
		assert.False(t, ReviewStatusPending.CanTransitionTo(ReviewStatusPending))
	})
}

func TestMatchOutcomeResolved(t *testing.T) {
	entityID := 42

	t.Run("Resolved tiers carry an entity", func(t *testing.T) {
		exact := &MatchOutcome{Tier: MatchTierExact, MatchedEntityID: &entityID, Confidence: 1.0}
		assert.True(t, exact.Resolved())

		semantic := &MatchOutcome{Tier: MatchTierSemantic, MatchedEntityID: &entityID, Confidence: 0.82}
		assert.True(t, semantic.Resolved())
	})

	t.Run("Unresolved outcomes are never resolved", func(t *testing.T) {
		unresolved := &MatchOutcome{Tier: MatchTierUnresolved, QueryType: QueryTypeNoResults}
		assert.False(t, unresolved.Resolved())
	})

	t.Run("A tier without an entity is not resolved", func(t *testing.T) {
		outcome := &MatchOutcome{Tier: MatchTierExact}
		assert.False(t, outcome.Resolved())
	})
}
