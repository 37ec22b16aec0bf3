package database

import (
	"testing"

	"github.com/siherrmann/resolver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The tests use 3-dimensional vectors so similarities stay easy to reason about.
const testEmbeddingDim = 3

func TestEmbeddingsNewEmbeddingsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewEmbeddingsDBHandler", func(t *testing.T) {
		embeddingsDbHandler, err := NewEmbeddingsDBHandler(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewEmbeddingsDBHandler to not return an error")
		require.NotNil(t, embeddingsDbHandler, "Expected NewEmbeddingsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewEmbeddingsDBHandler with nil database", func(t *testing.T) {
		_, err := NewEmbeddingsDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating EmbeddingsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestEmbeddingsUpsert(t *testing.T) {
	database := initDB(t)

	embeddingsDbHandler, err := NewEmbeddingsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	t.Run("Upsert inserts a new embedding", func(t *testing.T) {
		err := embeddingsDbHandler.UpsertEmbedding(model.EntityTypePerson, 101, []float32{1, 0, 0})
		assert.NoError(t, err, "Expected Upsert to not return an error")

		exists, err := embeddingsDbHandler.HasEmbedding(model.EntityTypePerson, 101)
		assert.NoError(t, err, "Expected HasEmbedding to not return an error")
		assert.True(t, exists, "Expected embedding to exist after upsert")

		// Cleanup
		embeddingsDbHandler.DeleteEmbedding(model.EntityTypePerson, 101)
	})

	t.Run("Upsert replaces an existing embedding", func(t *testing.T) {
		require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypePerson, 102, []float32{1, 0, 0}))
		require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypePerson, 102, []float32{0, 1, 0}))

		// The replaced embedding should now be orthogonal to the original
		candidates, err := embeddingsDbHandler.SelectBySimilarity(model.EntityTypePerson, []float32{0, 1, 0}, 10, 0.99)
		assert.NoError(t, err)
		require.Len(t, candidates, 1, "Expected only the replaced embedding to match")
		assert.Equal(t, 102, candidates[0].EntityID, "Expected the replaced entity")

		// Cleanup
		embeddingsDbHandler.DeleteEmbedding(model.EntityTypePerson, 102)
	})
}

func TestEmbeddingsSelectBySimilarity(t *testing.T) {
	database := initDB(t)

	embeddingsDbHandler, err := NewEmbeddingsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	// Entity 201 is identical to the query, 202 orthogonal, 203 in between
	require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypeLocation, 201, []float32{1, 0, 0}))
	require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypeLocation, 202, []float32{0, 1, 0}))
	require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypeLocation, 203, []float32{1, 1, 0}))
	defer embeddingsDbHandler.DeleteEmbedding(model.EntityTypeLocation, 201)
	defer embeddingsDbHandler.DeleteEmbedding(model.EntityTypeLocation, 202)
	defer embeddingsDbHandler.DeleteEmbedding(model.EntityTypeLocation, 203)

	query := []float32{1, 0, 0}

	t.Run("Results are ordered by similarity descending", func(t *testing.T) {
		candidates, err := embeddingsDbHandler.SelectBySimilarity(model.EntityTypeLocation, query, 10, 0.0)
		assert.NoError(t, err, "Expected SelectBySimilarity to not return an error")
		require.Len(t, candidates, 3, "Expected all three embeddings above threshold 0")
		assert.Equal(t, 201, candidates[0].EntityID, "Expected the identical embedding first")
		assert.InDelta(t, 1.0, candidates[0].Similarity, 0.0001, "Expected similarity 1.0 for identical vectors")
		assert.Equal(t, 203, candidates[1].EntityID, "Expected the diagonal embedding second")
		assert.InDelta(t, 0.7071, candidates[1].Similarity, 0.001, "Expected cosine similarity of 45 degrees")
		assert.Equal(t, 202, candidates[2].EntityID, "Expected the orthogonal embedding last")
	})

	t.Run("Threshold is inclusive", func(t *testing.T) {
		// At threshold 1.0 only the identical vector survives
		candidates, err := embeddingsDbHandler.SelectBySimilarity(model.EntityTypeLocation, query, 10, 1.0)
		assert.NoError(t, err)
		require.Len(t, candidates, 1, "Expected the boundary candidate to be included")
		assert.Equal(t, 201, candidates[0].EntityID)
	})

	t.Run("Threshold filters candidates below it", func(t *testing.T) {
		candidates, err := embeddingsDbHandler.SelectBySimilarity(model.EntityTypeLocation, query, 10, 0.75)
		assert.NoError(t, err)
		require.Len(t, candidates, 1, "Expected the 0.7071 candidate to be filtered at threshold 0.75")
		assert.Equal(t, 201, candidates[0].EntityID)
	})

	t.Run("Limit caps the result count", func(t *testing.T) {
		candidates, err := embeddingsDbHandler.SelectBySimilarity(model.EntityTypeLocation, query, 2, 0.0)
		assert.NoError(t, err)
		assert.Len(t, candidates, 2, "Expected the result count to respect the limit")
	})

	t.Run("Entity types are separate index partitions", func(t *testing.T) {
		candidates, err := embeddingsDbHandler.SelectBySimilarity(model.EntityTypePerson, query, 10, 0.0)
		assert.NoError(t, err)
		assert.Empty(t, candidates, "Expected no person candidates from location embeddings")
	})

	t.Run("Ties break by entity ID ascending", func(t *testing.T) {
		require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypePerson, 301, []float32{0, 0, 1}))
		require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypePerson, 302, []float32{0, 0, 1}))
		defer embeddingsDbHandler.DeleteEmbedding(model.EntityTypePerson, 301)
		defer embeddingsDbHandler.DeleteEmbedding(model.EntityTypePerson, 302)

		candidates, err := embeddingsDbHandler.SelectBySimilarity(model.EntityTypePerson, []float32{0, 0, 1}, 10, 0.99)
		assert.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, 301, candidates[0].EntityID, "Expected the lower entity ID first on equal similarity")
		assert.Equal(t, 302, candidates[1].EntityID)
	})
}

func TestEmbeddingsDelete(t *testing.T) {
	database := initDB(t)

	embeddingsDbHandler, err := NewEmbeddingsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err)

	require.NoError(t, embeddingsDbHandler.UpsertEmbedding(model.EntityTypePerson, 401, []float32{1, 0, 0}))

	err = embeddingsDbHandler.DeleteEmbedding(model.EntityTypePerson, 401)
	assert.NoError(t, err, "Expected Delete to not return an error")

	exists, err := embeddingsDbHandler.HasEmbedding(model.EntityTypePerson, 401)
	assert.NoError(t, err)
	assert.False(t, exists, "Expected embedding to be gone after delete")
}
