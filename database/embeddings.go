package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	loadSql "github.com/siherrmann/resolver/sql"
)

// EmbeddingsDBHandlerFunctions defines the interface for the similarity index
// database operations.
type EmbeddingsDBHandlerFunctions interface {
	UpsertEmbedding(entityType model.EntityType, entityID int, embedding []float32) error
	SelectBySimilarity(entityType model.EntityType, embedding []float32, topK int, threshold float64) ([]model.ScoredCandidate, error)
	HasEmbedding(entityType model.EntityType, entityID int) (bool, error)
	DeleteEmbedding(entityType model.EntityType, entityID int) error
}

// EmbeddingsDBHandler handles the entity similarity index backed by pgvector
type EmbeddingsDBHandler struct {
	db *helper.Database
}

// NewEmbeddingsDBHandler creates a new similarity index handler.
// It initializes the database connection and loads embedding-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEmbeddingsDBHandler(db *helper.Database, embeddingDim int, force bool) (*EmbeddingsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	embeddingsDbHandler := &EmbeddingsDBHandler{
		db: db,
	}

	err := loadSql.LoadEmbeddingsSql(embeddingsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load embeddings sql", err)
	}

	err = embeddingsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EmbeddingsDBHandler")

	return embeddingsDbHandler, nil
}

// CreateTable creates the 'entity_embeddings' table in the database.
// If the table already exists, it does not create it again.
// It also creates the vector index.
func (h *EmbeddingsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_embeddings($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing entity_embeddings table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entity_embeddings")

	return nil
}

// UpsertEmbedding inserts or replaces the embedding of the given entity.
// Upsert is incremental, no re-index of existing embeddings happens.
func (h *EmbeddingsDBHandler) UpsertEmbedding(entityType model.EntityType, entityID int, embedding []float32) error {
	embeddingVector := pgvector.NewVector(embedding)
	_, err := h.db.Instance.Exec(
		`SELECT upsert_embedding($1, $2, $3)`,
		string(entityType),
		entityID,
		embeddingVector,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectBySimilarity performs the cosine similarity query over one entity
// variant. Results are ordered by similarity descending with ties broken by
// entity creation order; only candidates at or above threshold are returned.
// The query never mutates index state.
func (h *EmbeddingsDBHandler) SelectBySimilarity(entityType model.EntityType, embedding []float32, topK int, threshold float64) ([]model.ScoredCandidate, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_embeddings_by_similarity($1, $2, $3, $4)`,
		string(entityType),
		embeddingVector,
		topK,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var candidates []model.ScoredCandidate
	for rows.Next() {
		candidate := model.ScoredCandidate{}
		err := rows.Scan(
			&candidate.EntityID,
			&candidate.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		candidates = append(candidates, candidate)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}

// HasEmbedding reports whether the entity already has an embedding in the index
func (h *EmbeddingsDBHandler) HasEmbedding(entityType model.EntityType, entityID int) (bool, error) {
	var exists bool
	err := h.db.Instance.QueryRow(
		`SELECT * FROM has_embedding($1, $2)`,
		string(entityType),
		entityID,
	).Scan(&exists)
	if err != nil {
		return false, helper.NewError("scan", err)
	}
	return exists, nil
}

// DeleteEmbedding removes an entity from the similarity index
func (h *EmbeddingsDBHandler) DeleteEmbedding(entityType model.EntityType, entityID int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_embedding($1, $2)`,
		string(entityType),
		entityID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
