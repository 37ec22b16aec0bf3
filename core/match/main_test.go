package match

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/resolver/database"
	"github.com/siherrmann/resolver/helper"
	loadSql "github.com/siherrmann/resolver/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

// initHandlers creates the stores the matcher runs against.
// Embeddings use 3 dimensions to keep similarities easy to reason about.
func initHandlers(t *testing.T) (*database.PersonsDBHandler, *database.LocationsDBHandler, *database.EmbeddingsDBHandler) {
	db := initDB(t)

	persons, err := database.NewPersonsDBHandler(db, false)
	require.NoError(t, err, "failed to create persons handler")
	locations, err := database.NewLocationsDBHandler(db, false)
	require.NoError(t, err, "failed to create locations handler")
	embeddings, err := database.NewEmbeddingsDBHandler(db, 3, false)
	require.NoError(t, err, "failed to create embeddings handler")

	return persons, locations, embeddings
}
