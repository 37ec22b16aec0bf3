package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/resolver/core/ingest"
	"github.com/siherrmann/resolver/core/match"
	"github.com/siherrmann/resolver/core/pipeline"
	"github.com/siherrmann/resolver/core/review"
	"github.com/siherrmann/resolver/database"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	loadSql "github.com/siherrmann/resolver/sql"
)

// Resolver provides a unified interface to document ingestion, entity
// matching and review adjudication
type Resolver struct {
	DB         *helper.Database
	Persons    *database.PersonsDBHandler
	Locations  *database.LocationsDBHandler
	Documents  *database.DocumentsDBHandler
	Embeddings *database.EmbeddingsDBHandler
	Reviews    *database.ReviewsDBHandler

	Matcher     *match.EntityMatcher
	Queue       *review.Manager
	Coordinator *ingest.Coordinator

	config   *model.MatchConfig
	embedder pipeline.EmbedFunc
	// Logging
	log *slog.Logger
}

// NewResolver creates a new Resolver instance with all handlers initialized.
// A nil matchConfig falls back to the defaults (threshold 0.75, top 5).
func NewResolver(dbConfig *helper.DatabaseConfiguration, matchConfig *model.MatchConfig, embeddingDim int) (*Resolver, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	if matchConfig == nil {
		matchConfig = model.DefaultMatchConfig()
	}
	err := matchConfig.Validate()
	if err != nil {
		return nil, helper.NewError("validate match config", err)
	}

	// Initialize database
	db := helper.NewDatabase("resolver", dbConfig, logger)
	err = loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in dependency order (persons and locations first,
	// parses and reviews reference them)
	// force=false to not reload if functions already exist
	persons, err := database.NewPersonsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create persons handler", err)
	}

	locations, err := database.NewLocationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create locations handler", err)
	}

	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	embeddings, err := database.NewEmbeddingsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create embeddings handler", err)
	}

	reviews, err := database.NewReviewsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create reviews handler", err)
	}

	// Core components; the embedder stays unset until SetEmbedder or
	// UseDefaultEmbedder, records then route to review instead of the
	// semantic tier
	matcher := match.NewEntityMatcher(persons, locations, embeddings, nil, matchConfig)
	queue := review.NewManager(reviews, persons, locations, embeddings, nil, matchConfig)
	coordinator := ingest.NewCoordinator(documents, matcher, queue, nil)

	return &Resolver{
		DB:          db,
		Persons:     persons,
		Locations:   locations,
		Documents:   documents,
		Embeddings:  embeddings,
		Reviews:     reviews,
		Matcher:     matcher,
		Queue:       queue,
		Coordinator: coordinator,
		config:      matchConfig,
		log:         logger,
	}, nil
}

// Close closes the database connection
func (r *Resolver) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// SetEmbedder sets the embedding function used by the semantic tier and for
// index learning on resolution
func (r *Resolver) SetEmbedder(embedder pipeline.EmbedFunc) {
	r.embedder = embedder
	r.Matcher.SetEmbedder(embedder)
	r.Queue.SetEmbedder(embedder)
}

// UseDefaultEmbedder sets up the default embedder with the all-MiniLM-L6-v2
// model (384 dimensions)
func (r *Resolver) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	r.SetEmbedder(embedder)
	return nil
}

// SetExtractor sets the field extraction function used on document text blocks
func (r *Resolver) SetExtractor(extractor pipeline.ExtractFunc) {
	r.Coordinator.SetExtractor(extractor)
}

// ProcessDocument stores the document, splits its raw text into sender,
// recipient and body blocks and resolves both entity slots. Unresolvable
// slots end up as pending review items; the returned outcome carries the
// per-slot results and the pending count.
func (r *Resolver) ProcessDocument(ctx context.Context, doc *model.Document) (*model.DocumentOutcome, error) {
	if doc.RawText == "" {
		return nil, helper.NewError("process document", fmt.Errorf("document raw text is empty"))
	}

	err := r.Documents.InsertDocument(doc)
	if err != nil {
		return nil, helper.NewError("insert document", err)
	}

	r.log.Info("Inserted document", slog.String("document_id", doc.RID.String()), slog.String("doc_type", doc.DocType))

	blocks := pipeline.SplitBlocks(doc.RawText)
	outcome, err := r.Coordinator.Process(ctx, doc.ID, blocks.SenderText, blocks.RecipientText, blocks.BodyText)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	r.log.Info("Processed document",
		slog.String("document_id", doc.RID.String()),
		slog.Int("pending_reviews", outcome.PendingReviews))

	return outcome, nil
}

// ProcessDocumentBlocks is ProcessDocument for callers that already split the
// document, for example when sender and recipient arrive from an external
// extraction service.
func (r *Resolver) ProcessDocumentBlocks(ctx context.Context, doc *model.Document, senderBlock string, recipientBlock string, bodyText string) (*model.DocumentOutcome, error) {
	err := r.Documents.InsertDocument(doc)
	if err != nil {
		return nil, helper.NewError("insert document", err)
	}

	outcome, err := r.Coordinator.Process(ctx, doc.ID, senderBlock, recipientBlock, bodyText)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	return outcome, nil
}

// ReprocessParse re-runs matching over a stored parse. Already linked slots
// are left untouched.
func (r *Resolver) ReprocessParse(ctx context.Context, parseRID uuid.UUID) (*model.DocumentOutcome, error) {
	return r.Coordinator.Reprocess(ctx, parseRID)
}

// CreatePerson inserts a person and feeds its embedding into the similarity
// index, so seeded entities are immediately matchable on the semantic tier
func (r *Resolver) CreatePerson(person *model.Person) error {
	err := r.Persons.InsertPerson(person)
	if err != nil {
		return helper.NewError("insert person", err)
	}

	return r.indexEntity(model.EntityTypePerson, person.ID, person.CanonicalText())
}

// CreateLocation inserts a location and feeds its embedding into the
// similarity index
func (r *Resolver) CreateLocation(location *model.Location) error {
	err := r.Locations.InsertLocation(location)
	if err != nil {
		return helper.NewError("insert location", err)
	}

	return r.indexEntity(model.EntityTypeLocation, location.ID, location.CanonicalText())
}

func (r *Resolver) indexEntity(entityType model.EntityType, entityID int, canonicalText string) error {
	if r.embedder == nil || canonicalText == "" {
		// No embedder configured; the index learns on first resolution instead
		return nil
	}

	embedding, err := r.embedder(canonicalText)
	if err != nil {
		r.log.Warn("Skipping index upsert", slog.String("entity_type", string(entityType)), slog.Int("entity_id", entityID), slog.String("reason", err.Error()))
		return nil
	}

	err = r.Embeddings.UpsertEmbedding(entityType, entityID, embedding)
	if err != nil {
		return helper.NewError("upsert embedding", err)
	}

	return nil
}

// PendingReviews returns pending review items oldest first. Nil filters match
// everything.
func (r *Resolver) PendingReviews(entityType *model.EntityType, queryType *model.QueryType) ([]*model.ReviewQueueItem, error) {
	return r.Queue.ListPending(entityType, queryType)
}

// GetReview returns a single review queue item
func (r *Resolver) GetReview(itemID int64) (*model.ReviewQueueItem, error) {
	return r.Queue.Get(itemID)
}

// ResolveReviewByLink resolves a pending review item against an existing entity
func (r *Resolver) ResolveReviewByLink(itemID int64, entityID int, reviewedBy string) (*model.ReviewQueueItem, error) {
	return r.Queue.ResolveByLink(itemID, entityID, reviewedBy)
}

// ResolveReviewByCreate creates a new entity from the given record and
// resolves the pending item against it
func (r *Resolver) ResolveReviewByCreate(itemID int64, record *model.ExtractedRecord, reviewedBy string) (*model.ReviewQueueItem, error) {
	return r.Queue.ResolveByCreate(itemID, record, reviewedBy)
}

// SkipReview defers a pending review item without entity side effects
func (r *Resolver) SkipReview(itemID int64, reason string) (*model.ReviewQueueItem, error) {
	return r.Queue.Skip(itemID, reason)
}

// DeleteReview removes a review queue item regardless of status
func (r *Resolver) DeleteReview(itemID int64) error {
	return r.Queue.Delete(itemID)
}

// ReviewStats returns aggregated review queue counts
func (r *Resolver) ReviewStats() (*model.ReviewStats, error) {
	return r.Queue.Stats()
}
