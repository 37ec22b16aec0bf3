package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	loadSql "github.com/siherrmann/resolver/sql"
)

// ReviewsDBHandlerFunctions defines the interface for review queue database operations.
type ReviewsDBHandlerFunctions interface {
	UpsertReview(item *model.ReviewQueueItem) error
	SelectReview(id int64) (*model.ReviewQueueItem, error)
	SelectReviewByRID(rid uuid.UUID) (*model.ReviewQueueItem, error)
	SelectPendingReviews(entityType *model.EntityType, queryType *model.QueryType) ([]*model.ReviewQueueItem, error)
	SelectPendingReviewForSlot(documentParseID int64, entityType model.EntityType) (*model.ReviewQueueItem, error)
	ResolveReview(id int64, entityID int, reviewedBy string) (*model.ReviewQueueItem, error)
	SkipReview(id int64, reason string) (*model.ReviewQueueItem, error)
	DeleteReview(id int64) error
	SelectReviewStats() (*model.ReviewStats, error)
}

// ReviewsDBHandler handles review queue database operations
type ReviewsDBHandler struct {
	db *helper.Database
}

// NewReviewsDBHandler creates a new review queue database handler.
// It initializes the database connection and loads review-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewReviewsDBHandler(db *helper.Database, force bool) (*ReviewsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	reviewsDbHandler := &ReviewsDBHandler{
		db: db,
	}

	err := loadSql.LoadReviewsSql(reviewsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load reviews sql", err)
	}

	err = reviewsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ReviewsDBHandler")

	return reviewsDbHandler, nil
}

// CreateTable creates the 'review_queue_items' table in the database.
// If the table already exists, it does not create it again.
// It also creates the partial unique index enforcing idempotent enqueue.
func (h *ReviewsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_reviews();`)
	if err != nil {
		log.Panicf("error initializing review_queue_items table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table review_queue_items")

	return nil
}

// UpsertReview inserts a pending review item. If a pending item for the same
// (document parse, entity type) pair already exists, its candidate snapshot is
// refreshed instead and no second item is created.
func (h *ReviewsDBHandler) UpsertReview(item *model.ReviewQueueItem) error {
	candidatesJson, err := json.Marshal(item.Candidates)
	if err != nil {
		return helper.NewError("marshal candidates", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_review($1, $2, $3, $4, $5)`,
		item.DocumentParseID,
		string(item.EntityType),
		string(item.QueryType),
		item.RawData,
		candidatesJson,
	)

	err = h.scanReview(row, item)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectReview retrieves a review queue item by ID
func (h *ReviewsDBHandler) SelectReview(id int64) (*model.ReviewQueueItem, error) {
	item := &model.ReviewQueueItem{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_review($1)`,
		id,
	)

	err := h.scanReview(row, item)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return item, nil
}

// SelectReviewByRID retrieves a review queue item by its public RID
func (h *ReviewsDBHandler) SelectReviewByRID(rid uuid.UUID) (*model.ReviewQueueItem, error) {
	item := &model.ReviewQueueItem{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_review_by_rid($1)`,
		rid,
	)

	err := h.scanReview(row, item)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return item, nil
}

// SelectPendingReviews retrieves all pending review queue items oldest first.
// Nil filters match everything.
func (h *ReviewsDBHandler) SelectPendingReviews(entityType *model.EntityType, queryType *model.QueryType) ([]*model.ReviewQueueItem, error) {
	var entityTypeFilter, queryTypeFilter *string
	if entityType != nil {
		filter := string(*entityType)
		entityTypeFilter = &filter
	}
	if queryType != nil {
		filter := string(*queryType)
		queryTypeFilter = &filter
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_pending_reviews($1, $2)`,
		entityTypeFilter,
		queryTypeFilter,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var items []*model.ReviewQueueItem
	for rows.Next() {
		item := &model.ReviewQueueItem{}
		err := h.scanReview(rows, item)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		items = append(items, item)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return items, nil
}

// SelectPendingReviewForSlot retrieves the pending item for one (document
// parse, entity type) pair. The pending dedup index guarantees at most one.
// Returns sql.ErrNoRows wrapped if no pending item exists for the slot.
func (h *ReviewsDBHandler) SelectPendingReviewForSlot(documentParseID int64, entityType model.EntityType) (*model.ReviewQueueItem, error) {
	item := &model.ReviewQueueItem{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_pending_review_for_slot($1, $2)`,
		documentParseID,
		string(entityType),
	)

	err := h.scanReview(row, item)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return item, nil
}

// ResolveReview transitions a pending item to resolved, records the linked
// entity and writes the link back onto the originating parse in one statement.
// Returns sql.ErrNoRows wrapped if the item is missing or already terminal.
func (h *ReviewsDBHandler) ResolveReview(id int64, entityID int, reviewedBy string) (*model.ReviewQueueItem, error) {
	item := &model.ReviewQueueItem{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM resolve_review($1, $2, $3)`,
		id,
		entityID,
		reviewedBy,
	)

	err := h.scanReview(row, item)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return item, nil
}

// SkipReview transitions a pending item to skipped with the given reason.
// Returns sql.ErrNoRows wrapped if the item is missing or already terminal.
func (h *ReviewsDBHandler) SkipReview(id int64, reason string) (*model.ReviewQueueItem, error) {
	item := &model.ReviewQueueItem{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM skip_review($1, $2)`,
		id,
		reason,
	)

	err := h.scanReview(row, item)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return item, nil
}

// DeleteReview deletes a review queue item by ID
func (h *ReviewsDBHandler) DeleteReview(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_review($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectReviewStats aggregates the grouped counts into queue statistics
func (h *ReviewsDBHandler) SelectReviewStats() (*model.ReviewStats, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_review_stats()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	stats := &model.ReviewStats{
		PendingByEntityType: map[model.EntityType]int{},
		PendingByQueryType:  map[model.QueryType]int{},
	}

	for rows.Next() {
		var status, entityType, queryType string
		var count int
		var oldest time.Time
		err := rows.Scan(&status, &entityType, &queryType, &count, &oldest)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		switch model.ReviewStatus(status) {
		case model.ReviewStatusPending:
			stats.TotalPending += count
			stats.PendingByEntityType[model.EntityType(entityType)] += count
			stats.PendingByQueryType[model.QueryType(queryType)] += count
			if stats.OldestPending == nil || oldest.Before(*stats.OldestPending) {
				oldestCopy := oldest
				stats.OldestPending = &oldestCopy
			}
		case model.ReviewStatusResolved:
			stats.TotalResolved += count
		case model.ReviewStatusSkipped:
			stats.TotalSkipped += count
		}
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return stats, nil
}

func (h *ReviewsDBHandler) scanReview(row scannable, item *model.ReviewQueueItem) error {
	var candidatesJson []byte
	err := row.Scan(
		&item.ID,
		&item.RID,
		&item.DocumentParseID,
		&item.EntityType,
		&item.QueryType,
		&item.RawData,
		&candidatesJson,
		&item.Status,
		&item.ResolvedEntityID,
		&item.ReviewedBy,
		&item.SkipReason,
		&item.ResolvedAt,
		&item.CreatedAt,
	)
	if err != nil {
		return err
	}

	err = json.Unmarshal(candidatesJson, &item.Candidates)
	if err != nil {
		return err
	}

	return nil
}
