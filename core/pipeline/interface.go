package pipeline

import "github.com/siherrmann/resolver/model"

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// ExtractFunc turns one raw text block into a normalized entity record
// The entity type tells the extractor which field set to target
type ExtractFunc func(text string, entityType model.EntityType) (*model.ExtractedRecord, error)

// ParsedBlocks holds the raw text sections of a split document
type ParsedBlocks struct {
	SenderText    string
	RecipientText string
	BodyText      string
}
