package model

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an uploaded source document
type Document struct {
	ID       int64     `json:"id"`
	RID      uuid.UUID `json:"rid"`
	DocType  string    `json:"doc_type,omitempty"`
	FilePath string    `json:"file_path,omitempty"`
	RawText  string    `json:"raw_text,omitempty"`
	Metadata Metadata  `json:"metadata,omitempty"`
	// Matched entities, set once resolution succeeds
	SenderLocationID  *int `json:"sender_location_id,omitempty"`
	RecipientPersonID *int `json:"recipient_person_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DocumentParse holds the raw text blocks and extracted fields for one upload.
// It is created once per processed document and is immutable afterwards except
// for the back-links to resolved entities.
type DocumentParse struct {
	ID              int64     `json:"id"`
	RID             uuid.UUID `json:"rid"`
	DocumentID      int64     `json:"document_id"`
	SenderText      string    `json:"sender_text,omitempty"`
	RecipientText   string    `json:"recipient_text,omitempty"`
	BodyText        string    `json:"body_text,omitempty"`
	ParsedSender    Metadata  `json:"parsed_sender,omitempty"`
	ParsedRecipient Metadata  `json:"parsed_recipient,omitempty"`
	// Back-links set on resolution
	SenderLocationID  *int `json:"sender_location_id,omitempty"`
	RecipientPersonID *int `json:"recipient_person_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
