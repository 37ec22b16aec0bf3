package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	loadSql "github.com/siherrmann/resolver/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(document *model.Document) error
	SelectDocument(id int64) (*model.Document, error)
	InsertParse(parse *model.DocumentParse) error
	SelectParse(id int64) (*model.DocumentParse, error)
	SelectParseByRID(rid uuid.UUID) (*model.DocumentParse, error)
	SelectParsesByDocument(documentID int64) ([]*model.DocumentParse, error)
	UpdateParseSenderLocation(parseID int64, locationID int) (*model.DocumentParse, error)
	UpdateParseRecipientPerson(parseID int64, personID int) (*model.DocumentParse, error)
	DeleteDocument(id int64) error
}

// DocumentsDBHandler handles document and document parse database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' and 'document_parses' tables in the
// database. If the tables already exist, it does not create them again.
// It also creates all necessary indexes.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables documents and document_parses")

	return nil
}

// InsertDocument inserts a new document
func (h *DocumentsDBHandler) InsertDocument(document *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3, $4)`,
		document.DocType,
		document.FilePath,
		document.RawText,
		document.Metadata,
	)

	err := h.scanDocument(row, document)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by ID
func (h *DocumentsDBHandler) SelectDocument(id int64) (*model.Document, error) {
	document := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		id,
	)

	err := h.scanDocument(row, document)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return document, nil
}

// InsertParse inserts a new parse of a document
func (h *DocumentsDBHandler) InsertParse(parse *model.DocumentParse) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_parse($1, $2, $3, $4, $5, $6)`,
		parse.DocumentID,
		parse.SenderText,
		parse.RecipientText,
		parse.BodyText,
		parse.ParsedSender,
		parse.ParsedRecipient,
	)

	err := h.scanParse(row, parse)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectParse retrieves a document parse by ID
func (h *DocumentsDBHandler) SelectParse(id int64) (*model.DocumentParse, error) {
	parse := &model.DocumentParse{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_parse($1)`,
		id,
	)

	err := h.scanParse(row, parse)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return parse, nil
}

// SelectParseByRID retrieves a document parse by its public RID
func (h *DocumentsDBHandler) SelectParseByRID(rid uuid.UUID) (*model.DocumentParse, error) {
	parse := &model.DocumentParse{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_parse_by_rid($1)`,
		rid,
	)

	err := h.scanParse(row, parse)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return parse, nil
}

// SelectParsesByDocument retrieves all parses of a document in creation order
func (h *DocumentsDBHandler) SelectParsesByDocument(documentID int64) ([]*model.DocumentParse, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_parses_by_document($1)`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var parses []*model.DocumentParse
	for rows.Next() {
		parse := &model.DocumentParse{}
		err := h.scanParse(rows, parse)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		parses = append(parses, parse)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return parses, nil
}

// UpdateParseSenderLocation back-links a resolved sender location onto the
// parse and its document.
func (h *DocumentsDBHandler) UpdateParseSenderLocation(parseID int64, locationID int) (*model.DocumentParse, error) {
	parse := &model.DocumentParse{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_parse_sender_location($1, $2)`,
		parseID,
		locationID,
	)

	err := h.scanParse(row, parse)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return parse, nil
}

// UpdateParseRecipientPerson back-links a resolved recipient person onto the
// parse and its document.
func (h *DocumentsDBHandler) UpdateParseRecipientPerson(parseID int64, personID int) (*model.DocumentParse, error) {
	parse := &model.DocumentParse{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_parse_recipient_person($1, $2)`,
		parseID,
		personID,
	)

	err := h.scanParse(row, parse)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return parse, nil
}

// DeleteDocument deletes a document and all its parses by ID
func (h *DocumentsDBHandler) DeleteDocument(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scannable abstracts over sql.Row and sql.Rows for the shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

func (h *DocumentsDBHandler) scanDocument(row scannable, document *model.Document) error {
	return row.Scan(
		&document.ID,
		&document.RID,
		&document.DocType,
		&document.FilePath,
		&document.RawText,
		&document.Metadata,
		&document.SenderLocationID,
		&document.RecipientPersonID,
		&document.CreatedAt,
	)
}

func (h *DocumentsDBHandler) scanParse(row scannable, parse *model.DocumentParse) error {
	return row.Scan(
		&parse.ID,
		&parse.RID,
		&parse.DocumentID,
		&parse.SenderText,
		&parse.RecipientText,
		&parse.BodyText,
		&parse.ParsedSender,
		&parse.ParsedRecipient,
		&parse.SenderLocationID,
		&parse.RecipientPersonID,
		&parse.CreatedAt,
	)
}
