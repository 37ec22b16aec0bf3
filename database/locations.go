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

// LocationsDBHandlerFunctions defines the interface for Locations database operations.
type LocationsDBHandlerFunctions interface {
	InsertLocation(location *model.Location) error
	SelectLocation(id int) (*model.Location, error)
	SelectLocationByRID(rid uuid.UUID) (*model.Location, error)
	SelectLocationsByAddress(address string, zip string) ([]*model.Location, error)
	SelectLocationsByOrganization(name string, city string, state string) ([]*model.Location, error)
	DeleteLocation(id int) error
}

// LocationsDBHandler handles location-related database operations
type LocationsDBHandler struct {
	db *helper.Database
}

// NewLocationsDBHandler creates a new locations database handler.
// It initializes the database connection and loads location-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewLocationsDBHandler(db *helper.Database, force bool) (*LocationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	locationsDbHandler := &LocationsDBHandler{
		db: db,
	}

	err := loadSql.LoadLocationsSql(locationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load locations sql", err)
	}

	err = locationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized LocationsDBHandler")

	return locationsDbHandler, nil
}

// CreateTable creates the 'locations' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *LocationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_locations();`)
	if err != nil {
		log.Panicf("error initializing locations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table locations")

	return nil
}

// InsertLocation inserts a new location
func (h *LocationsDBHandler) InsertLocation(location *model.Location) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_location($1, $2, $3, $4, $5, $6)`,
		location.Name,
		location.Address,
		location.City,
		location.State,
		location.Zip,
		location.Metadata,
	)

	err := row.Scan(
		&location.ID,
		&location.RID,
		&location.Name,
		&location.Address,
		&location.City,
		&location.State,
		&location.Zip,
		&location.Metadata,
		&location.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectLocation retrieves a location by ID
func (h *LocationsDBHandler) SelectLocation(id int) (*model.Location, error) {
	location := &model.Location{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_location($1)`,
		id,
	)

	err := row.Scan(
		&location.ID,
		&location.RID,
		&location.Name,
		&location.Address,
		&location.City,
		&location.State,
		&location.Zip,
		&location.Metadata,
		&location.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return location, nil
}

// SelectLocationByRID retrieves a location by its public RID
func (h *LocationsDBHandler) SelectLocationByRID(rid uuid.UUID) (*model.Location, error) {
	location := &model.Location{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_location_by_rid($1)`,
		rid,
	)

	err := row.Scan(
		&location.ID,
		&location.RID,
		&location.Name,
		&location.Address,
		&location.City,
		&location.State,
		&location.Zip,
		&location.Metadata,
		&location.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return location, nil
}

// SelectLocationsByAddress performs the deterministic location lookup on the
// (address, zip) key.
func (h *LocationsDBHandler) SelectLocationsByAddress(address string, zip string) ([]*model.Location, error) {
	return h.selectLocations(
		`SELECT * FROM select_locations_by_address($1, $2)`,
		address, zip,
	)
}

// SelectLocationsByOrganization performs the deterministic location lookup on
// the (organization name, city, state) key.
func (h *LocationsDBHandler) SelectLocationsByOrganization(name string, city string, state string) ([]*model.Location, error) {
	return h.selectLocations(
		`SELECT * FROM select_locations_by_organization($1, $2, $3)`,
		name, city, state,
	)
}

// DeleteLocation deletes a location by ID
func (h *LocationsDBHandler) DeleteLocation(id int) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_location($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *LocationsDBHandler) selectLocations(query string, args ...interface{}) ([]*model.Location, error) {
	rows, err := h.db.Instance.Query(query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var locations []*model.Location
	for rows.Next() {
		location := &model.Location{}
		err := rows.Scan(
			&location.ID,
			&location.RID,
			&location.Name,
			&location.Address,
			&location.City,
			&location.State,
			&location.Zip,
			&location.Metadata,
			&location.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		locations = append(locations, location)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return locations, nil
}
