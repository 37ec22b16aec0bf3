package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/siherrmann/resolver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationsNewLocationsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewLocationsDBHandler", func(t *testing.T) {
		locationsDbHandler, err := NewLocationsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewLocationsDBHandler to not return an error")
		require.NotNil(t, locationsDbHandler, "Expected NewLocationsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewLocationsDBHandler with nil database", func(t *testing.T) {
		_, err := NewLocationsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating LocationsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestLocationsInsert(t *testing.T) {
	database := initDB(t)

	locationsDbHandler, err := NewLocationsDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Insert location", func(t *testing.T) {
		location := &model.Location{
			Name:     "Springfield Medical Center",
			Address:  "123 Main Street",
			City:     "Springfield",
			State:    "IL",
			Zip:      "62701",
			Metadata: model.Metadata{"type": "clinic"},
		}

		err := locationsDbHandler.InsertLocation(location)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotZero(t, location.ID, "Expected inserted location to have an ID")
		assert.NotEmpty(t, location.RID, "Expected inserted location to have a RID")
		assert.WithinDuration(t, location.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")

		// Cleanup
		locationsDbHandler.DeleteLocation(location.ID)
	})
}

func TestLocationsSelect(t *testing.T) {
	database := initDB(t)

	locationsDbHandler, err := NewLocationsDBHandler(database, true)
	require.NoError(t, err)

	location := &model.Location{
		Name:    "Oakwood School",
		Address: "456 Oak Avenue",
		City:    "Springfield",
		State:   "IL",
		Zip:     "62702",
	}
	require.NoError(t, locationsDbHandler.InsertLocation(location))
	defer locationsDbHandler.DeleteLocation(location.ID)

	t.Run("Select location by ID", func(t *testing.T) {
		retrieved, err := locationsDbHandler.SelectLocation(location.ID)
		assert.NoError(t, err, "Expected Select to not return an error")
		assert.Equal(t, location.RID, retrieved.RID, "Expected RIDs to match")
		assert.Equal(t, "Oakwood School", retrieved.Name, "Expected names to match")
	})

	t.Run("Select location by RID", func(t *testing.T) {
		retrieved, err := locationsDbHandler.SelectLocationByRID(location.RID)
		assert.NoError(t, err, "Expected SelectLocationByRID to not return an error")
		assert.Equal(t, location.ID, retrieved.ID, "Expected IDs to match")
	})

	t.Run("Select missing location returns ErrNoRows", func(t *testing.T) {
		_, err := locationsDbHandler.SelectLocation(999999)
		assert.ErrorIs(t, err, sql.ErrNoRows, "Expected ErrNoRows for missing location")
	})
}

func TestLocationsSelectByAddress(t *testing.T) {
	database := initDB(t)

	locationsDbHandler, err := NewLocationsDBHandler(database, true)
	require.NoError(t, err)

	location := &model.Location{
		Name:    "Main Street Clinic",
		Address: "123 Main St",
		City:    "Springfield",
		State:   "IL",
		Zip:     "62701",
	}
	require.NoError(t, locationsDbHandler.InsertLocation(location))
	defer locationsDbHandler.DeleteLocation(location.ID)

	t.Run("Address match is case-insensitive", func(t *testing.T) {
		locations, err := locationsDbHandler.SelectLocationsByAddress("123 MAIN ST", "62701")
		assert.NoError(t, err, "Expected SelectLocationsByAddress to not return an error")
		require.Len(t, locations, 1, "Expected exactly one location to match")
		assert.Equal(t, location.ID, locations[0].ID, "Expected the inserted location")
	})

	t.Run("Zip must match exactly", func(t *testing.T) {
		locations, err := locationsDbHandler.SelectLocationsByAddress("123 Main St", "99999")
		assert.NoError(t, err)
		assert.Empty(t, locations, "Expected no match for wrong zip")
	})
}

func TestLocationsSelectByOrganization(t *testing.T) {
	database := initDB(t)

	locationsDbHandler, err := NewLocationsDBHandler(database, true)
	require.NoError(t, err)

	location1 := &model.Location{Name: "Lincoln Elementary", City: "Springfield", State: "IL"}
	location2 := &model.Location{Name: "Lincoln Elementary", City: "Springfield", State: "IL", Address: "789 Elm St", Zip: "62703"}
	require.NoError(t, locationsDbHandler.InsertLocation(location1))
	require.NoError(t, locationsDbHandler.InsertLocation(location2))
	defer locationsDbHandler.DeleteLocation(location1.ID)
	defer locationsDbHandler.DeleteLocation(location2.ID)

	t.Run("Organization match is case-insensitive", func(t *testing.T) {
		locations, err := locationsDbHandler.SelectLocationsByOrganization("lincoln elementary", "SPRINGFIELD", "il")
		assert.NoError(t, err, "Expected SelectLocationsByOrganization to not return an error")
		require.Len(t, locations, 2, "Expected both locations to match")
		assert.Equal(t, location1.ID, locations[0].ID, "Expected oldest location first")
		assert.Equal(t, location2.ID, locations[1].ID, "Expected newest location last")
	})

	t.Run("No match returns empty slice", func(t *testing.T) {
		locations, err := locationsDbHandler.SelectLocationsByOrganization("Unknown School", "Nowhere", "ZZ")
		assert.NoError(t, err)
		assert.Empty(t, locations, "Expected no locations to match")
	})
}
