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

// PersonsDBHandlerFunctions defines the interface for Persons database operations.
type PersonsDBHandlerFunctions interface {
	InsertPerson(person *model.Person) error
	SelectPerson(id int) (*model.Person, error)
	SelectPersonByRID(rid uuid.UUID) (*model.Person, error)
	SelectPersonsExact(firstName string, lastName string, dateOfBirth *time.Time) ([]*model.Person, error)
	DeletePerson(id int) error
}

// PersonsDBHandler handles person-related database operations
type PersonsDBHandler struct {
	db *helper.Database
}

// NewPersonsDBHandler creates a new persons database handler.
// It initializes the database connection and loads person-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPersonsDBHandler(db *helper.Database, force bool) (*PersonsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	personsDbHandler := &PersonsDBHandler{
		db: db,
	}

	err := loadSql.LoadPersonsSql(personsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load persons sql", err)
	}

	err = personsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PersonsDBHandler")

	return personsDbHandler, nil
}

// CreateTable creates the 'persons' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *PersonsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_persons();`)
	if err != nil {
		log.Panicf("error initializing persons table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table persons")

	return nil
}

// InsertPerson inserts a new person
func (h *PersonsDBHandler) InsertPerson(person *model.Person) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_person($1, $2, $3, $4)`,
		person.FirstName,
		person.LastName,
		person.DateOfBirth,
		person.Metadata,
	)

	err := row.Scan(
		&person.ID,
		&person.RID,
		&person.FirstName,
		&person.LastName,
		&person.DateOfBirth,
		&person.Metadata,
		&person.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectPerson retrieves a person by ID
func (h *PersonsDBHandler) SelectPerson(id int) (*model.Person, error) {
	person := &model.Person{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_person($1)`,
		id,
	)

	err := row.Scan(
		&person.ID,
		&person.RID,
		&person.FirstName,
		&person.LastName,
		&person.DateOfBirth,
		&person.Metadata,
		&person.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return person, nil
}

// SelectPersonByRID retrieves a person by its public RID
func (h *PersonsDBHandler) SelectPersonByRID(rid uuid.UUID) (*model.Person, error) {
	person := &model.Person{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_person_by_rid($1)`,
		rid,
	)

	err := row.Scan(
		&person.ID,
		&person.RID,
		&person.FirstName,
		&person.LastName,
		&person.DateOfBirth,
		&person.Metadata,
		&person.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return person, nil
}

// SelectPersonsExact performs the deterministic person lookup on
// case-insensitive (first_name, last_name) equality.
// A non-nil dateOfBirth tightens the filter.
func (h *PersonsDBHandler) SelectPersonsExact(firstName string, lastName string, dateOfBirth *time.Time) ([]*model.Person, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_persons_exact($1, $2, $3)`,
		firstName,
		lastName,
		dateOfBirth,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var persons []*model.Person
	for rows.Next() {
		person := &model.Person{}
		err := rows.Scan(
			&person.ID,
			&person.RID,
			&person.FirstName,
			&person.LastName,
			&person.DateOfBirth,
			&person.Metadata,
			&person.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		persons = append(persons, person)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return persons, nil
}

// DeletePerson deletes a person by ID
func (h *PersonsDBHandler) DeletePerson(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_person($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
