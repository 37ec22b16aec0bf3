package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/resolver/core/match"
	"github.com/siherrmann/resolver/core/pipeline"
	"github.com/siherrmann/resolver/core/review"
	"github.com/siherrmann/resolver/database"
	"github.com/siherrmann/resolver/model"
)

// Coordinator runs the per-document resolution flow: extract each entity slot,
// resolve it through the entity matcher and either link the match onto the
// parse or enqueue it for review. It talks only to the matcher and the review
// manager, never to the exact matcher or the index directly.
type Coordinator struct {
	documents database.DocumentsDBHandlerFunctions
	matcher   *match.EntityMatcher
	queue     *review.Manager
	extractor pipeline.ExtractFunc
}

// NewCoordinator creates a new document parse coordinator.
// A nil extractor falls back to the heuristic default.
func NewCoordinator(documents database.DocumentsDBHandlerFunctions, matcher *match.EntityMatcher, queue *review.Manager, extractor pipeline.ExtractFunc) *Coordinator {
	if extractor == nil {
		extractor = pipeline.DefaultExtractor()
	}
	return &Coordinator{
		documents: documents,
		matcher:   matcher,
		queue:     queue,
		extractor: extractor,
	}
}

// SetExtractor replaces the field extraction function
func (c *Coordinator) SetExtractor(extractor pipeline.ExtractFunc) {
	c.extractor = extractor
}

// Process creates a parse for the document from its raw text blocks and
// resolves the sender (location) and recipient (person) slots. Extraction
// failure for a slot degrades that slot to a queued review item with a
// warning; the upload itself still succeeds.
func (c *Coordinator) Process(ctx context.Context, documentID int64, senderBlock string, recipientBlock string, bodyText string) (*model.DocumentOutcome, error) {
	senderRecord, senderWarning := c.extract(senderBlock, model.EntityTypeLocation)
	recipientRecord, recipientWarning := c.extract(recipientBlock, model.EntityTypePerson)

	parse := &model.DocumentParse{
		DocumentID:    documentID,
		SenderText:    senderBlock,
		RecipientText: recipientBlock,
		BodyText:      bodyText,
	}
	if senderRecord != nil {
		parse.ParsedSender = senderRecord.Snapshot()
	}
	if recipientRecord != nil {
		parse.ParsedRecipient = recipientRecord.Snapshot()
	}

	err := c.documents.InsertParse(parse)
	if err != nil {
		return nil, err
	}

	outcome := &model.DocumentOutcome{
		DocumentID:      documentID,
		DocumentParseID: parse.ID,
		ParseRID:        parse.RID,
	}

	if senderBlock != "" {
		outcome.Sender, err = c.resolveSlot(ctx, outcome, parse.ID, senderRecord, model.EntityTypeLocation, senderWarning)
		if err != nil {
			return nil, err
		}
	}
	if recipientBlock != "" {
		outcome.Recipient, err = c.resolveSlot(ctx, outcome, parse.ID, recipientRecord, model.EntityTypePerson, recipientWarning)
		if err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// Reprocess re-runs matching over a stored parse, for example after new
// entities were created or the index learned new embeddings. Slots that are
// already linked to an entity are left untouched; unresolved slots are matched
// again, refreshing any still-pending review item. A slot that now resolves
// closes its pending item against the linked entity.
func (c *Coordinator) Reprocess(ctx context.Context, parseRID uuid.UUID) (*model.DocumentOutcome, error) {
	parse, err := c.documents.SelectParseByRID(parseRID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document parse %s", model.ErrNotFound, parseRID)
	}
	if err != nil {
		return nil, err
	}

	outcome := &model.DocumentOutcome{
		DocumentID:        parse.DocumentID,
		DocumentParseID:   parse.ID,
		ParseRID:          parse.RID,
		SenderLocationID:  parse.SenderLocationID,
		RecipientPersonID: parse.RecipientPersonID,
	}

	if parse.SenderLocationID == nil && (len(parse.ParsedSender) > 0 || parse.SenderText != "") {
		record := c.storedRecord(parse.ParsedSender, parse.SenderText, model.EntityTypeLocation)
		outcome.Sender, err = c.resolveSlot(ctx, outcome, parse.ID, record, model.EntityTypeLocation, "")
		if err != nil {
			return nil, err
		}
	}
	if parse.RecipientPersonID == nil && (len(parse.ParsedRecipient) > 0 || parse.RecipientText != "") {
		record := c.storedRecord(parse.ParsedRecipient, parse.RecipientText, model.EntityTypePerson)
		outcome.Recipient, err = c.resolveSlot(ctx, outcome, parse.ID, record, model.EntityTypePerson, "")
		if err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

func (c *Coordinator) extract(block string, entityType model.EntityType) (*model.ExtractedRecord, string) {
	if block == "" {
		return nil, ""
	}
	record, err := c.extractor(block, entityType)
	if err != nil {
		return nil, fmt.Sprintf("%v for %s: %v", model.ErrExtraction, entityType, err)
	}
	return record, ""
}

// storedRecord rebuilds the slot record from the persisted snapshot, falling
// back to re-extraction from the raw block when the snapshot is empty.
func (c *Coordinator) storedRecord(snapshot model.Metadata, block string, entityType model.EntityType) *model.ExtractedRecord {
	if len(snapshot) > 0 {
		return pipeline.NormalizedRecord(entityType, snapshot)
	}
	record, err := c.extractor(block, entityType)
	if err != nil {
		return nil
	}
	return record
}

// resolveSlot matches one entity slot and links the match onto the parse or
// enqueues a review item. The returned outcome is recorded on the document
// outcome along with warnings and the pending count.
func (c *Coordinator) resolveSlot(ctx context.Context, docOutcome *model.DocumentOutcome, parseID int64, record *model.ExtractedRecord, entityType model.EntityType, extractWarning string) (*model.MatchOutcome, error) {
	var outcome *model.MatchOutcome
	rawData := model.Metadata{}

	if extractWarning != "" || record == nil {
		outcome = &model.MatchOutcome{
			Tier:      model.MatchTierUnresolved,
			QueryType: model.QueryTypeNoResults,
			Warning:   extractWarning,
		}
	} else {
		record.Type = entityType
		rawData = record.Snapshot()

		var err error
		outcome, err = c.matcher.Resolve(ctx, record)
		if err != nil {
			return nil, err
		}
	}

	if outcome.Warning != "" {
		docOutcome.Warnings = append(docOutcome.Warnings, outcome.Warning)
	}

	if outcome.Resolved() {
		switch entityType {
		case model.EntityTypePerson:
			_, err := c.documents.UpdateParseRecipientPerson(parseID, *outcome.MatchedEntityID)
			if err != nil {
				return nil, err
			}
			docOutcome.RecipientPersonID = outcome.MatchedEntityID
		case model.EntityTypeLocation:
			_, err := c.documents.UpdateParseSenderLocation(parseID, *outcome.MatchedEntityID)
			if err != nil {
				return nil, err
			}
			docOutcome.SenderLocationID = outcome.MatchedEntityID
		}

		// A reprocess run can link a slot that an earlier run left pending.
		// The stale item is closed against the linked entity, so it cannot be
		// adjudicated onto a different entity later.
		_, err := c.queue.ResolveSuperseded(parseID, entityType, *outcome.MatchedEntityID)
		if err != nil {
			return nil, err
		}

		return outcome, nil
	}

	_, err := c.queue.Enqueue(outcome, entityType, parseID, rawData)
	if err != nil {
		return nil, err
	}
	docOutcome.PendingReviews++

	return outcome, nil
}
