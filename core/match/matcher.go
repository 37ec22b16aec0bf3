package match

import (
	"context"
	"fmt"

	"github.com/siherrmann/resolver/core/pipeline"
	"github.com/siherrmann/resolver/database"
	"github.com/siherrmann/resolver/model"
)

// SimilarityIndex is the semantic second-tier lookup over entity embeddings.
// Satisfied by database.EmbeddingsDBHandler; swappable for other vector
// backends.
type SimilarityIndex interface {
	UpsertEmbedding(entityType model.EntityType, entityID int, embedding []float32) error
	SelectBySimilarity(entityType model.EntityType, embedding []float32, topK int, threshold float64) ([]model.ScoredCandidate, error)
	HasEmbedding(entityType model.EntityType, entityID int) (bool, error)
}

// EntityMatcher resolves an extracted record against the entity stores with
// tier precedence exact lookup, then semantic similarity, then unresolved.
// Auto-accept happens only when a tier yields exactly one candidate.
type EntityMatcher struct {
	exact     *ExactMatcher
	index     SimilarityIndex
	embedder  pipeline.EmbedFunc
	persons   database.PersonsDBHandlerFunctions
	locations database.LocationsDBHandlerFunctions
	config    *model.MatchConfig
}

// NewEntityMatcher creates a new entity matcher.
// The embedder may be nil, in which case the semantic tier is skipped and
// zero-exact-match records go straight to review.
func NewEntityMatcher(persons database.PersonsDBHandlerFunctions, locations database.LocationsDBHandlerFunctions, index SimilarityIndex, embedder pipeline.EmbedFunc, config *model.MatchConfig) *EntityMatcher {
	if config == nil {
		config = model.DefaultMatchConfig()
	}
	return &EntityMatcher{
		exact:     NewExactMatcher(persons, locations, config),
		index:     index,
		embedder:  embedder,
		persons:   persons,
		locations: locations,
		config:    config,
	}
}

// SetEmbedder replaces the embedding function
func (m *EntityMatcher) SetEmbedder(embedder pipeline.EmbedFunc) {
	m.embedder = embedder
}

// Resolve matches one extracted record against the stored entities.
// A store error on the deterministic tier fails the call; embedding or index
// failures instead degrade the outcome to unresolved/no_results with a
// warning, so a collaborator outage routes records to review rather than
// producing a guessed match.
func (m *EntityMatcher) Resolve(ctx context.Context, record *model.ExtractedRecord) (*model.MatchOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if record == nil || !record.Type.Valid() {
		return nil, fmt.Errorf("invalid record for matching")
	}

	exactCandidates, err := m.exact.Match(record)
	if err != nil {
		return nil, err
	}

	// A unique deterministic hit is accepted without consulting the index
	if len(exactCandidates) == 1 {
		return &model.MatchOutcome{
			Tier:            model.MatchTierExact,
			MatchedEntityID: &exactCandidates[0].EntityID,
			Candidates:      exactCandidates,
			Confidence:      1.0,
		}, nil
	}

	// Multiple deterministic hits prove ambiguity, the semantic tier cannot
	// add information
	if len(exactCandidates) > 1 {
		return &model.MatchOutcome{
			Tier:       model.MatchTierUnresolved,
			QueryType:  model.QueryTypeMultipleResults,
			Candidates: exactCandidates,
		}, nil
	}

	return m.resolveSemantic(ctx, record)
}

func (m *EntityMatcher) resolveSemantic(ctx context.Context, record *model.ExtractedRecord) (*model.MatchOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canonicalText := record.CanonicalText()
	if canonicalText == "" {
		return unresolvedNoResults(""), nil
	}
	if m.embedder == nil || m.index == nil {
		return unresolvedNoResults(fmt.Sprintf("semantic tier skipped: %v", model.ErrEmbeddingUnavailable)), nil
	}

	embedding, err := m.embedder(canonicalText)
	if err != nil {
		return unresolvedNoResults(fmt.Sprintf("%v: %v", model.ErrEmbeddingUnavailable, err)), nil
	}

	candidates, err := m.index.SelectBySimilarity(record.Type, embedding, m.config.TopK, m.config.SimilarityThreshold)
	if err != nil {
		return unresolvedNoResults(fmt.Sprintf("similarity index query failed: %v", err)), nil
	}

	m.hydrateCandidates(record.Type, candidates)

	switch len(candidates) {
	case 0:
		return unresolvedNoResults(""), nil
	case 1:
		return &model.MatchOutcome{
			Tier:            model.MatchTierSemantic,
			MatchedEntityID: &candidates[0].EntityID,
			Candidates:      candidates,
			Confidence:      candidates[0].Similarity,
		}, nil
	default:
		return &model.MatchOutcome{
			Tier:       model.MatchTierUnresolved,
			QueryType:  model.QueryTypeMultipleResults,
			Candidates: candidates,
		}, nil
	}
}

// hydrateCandidates fills RID and summary for index results, which only carry
// entity IDs and scores. A failed lookup leaves the candidate unhydrated
// rather than failing the match.
func (m *EntityMatcher) hydrateCandidates(entityType model.EntityType, candidates []model.ScoredCandidate) {
	for i := range candidates {
		switch entityType {
		case model.EntityTypePerson:
			person, err := m.persons.SelectPerson(candidates[i].EntityID)
			if err != nil {
				continue
			}
			candidates[i].RID = person.RID
			candidates[i].Summary = person.Summary()
		case model.EntityTypeLocation:
			location, err := m.locations.SelectLocation(candidates[i].EntityID)
			if err != nil {
				continue
			}
			candidates[i].RID = location.RID
			candidates[i].Summary = location.Summary()
		}
	}
}

func unresolvedNoResults(warning string) *model.MatchOutcome {
	return &model.MatchOutcome{
		Tier:      model.MatchTierUnresolved,
		QueryType: model.QueryTypeNoResults,
		Warning:   warning,
	}
}
