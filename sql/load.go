package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed persons.sql
var personsSQL string

//go:embed locations.sql
var locationsSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed embeddings.sql
var embeddingsSQL string

//go:embed reviews.sql
var reviewsSQL string

// Function lists for verification
var PersonsFunctions = []string{
	"init_persons",
	"insert_person",
	"select_person",
	"select_person_by_rid",
	"select_persons_exact",
	"delete_person",
}

var LocationsFunctions = []string{
	"init_locations",
	"insert_location",
	"select_location",
	"select_location_by_rid",
	"select_locations_by_address",
	"select_locations_by_organization",
	"delete_location",
}

var DocumentsFunctions = []string{
	"init_documents",
	"insert_document",
	"select_document",
	"insert_parse",
	"select_parse",
	"select_parse_by_rid",
	"select_parses_by_document",
	"update_parse_sender_location",
	"update_parse_recipient_person",
	"delete_document",
}

var EmbeddingsFunctions = []string{
	"init_embeddings",
	"upsert_embedding",
	"select_embeddings_by_similarity",
	"has_embedding",
	"delete_embedding",
}

var ReviewsFunctions = []string{
	"init_reviews",
	"upsert_review",
	"select_review",
	"select_review_by_rid",
	"select_pending_reviews",
	"select_pending_review_for_slot",
	"resolve_review",
	"skip_review",
	"delete_review",
	"select_review_stats",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadPersonsSql loads person-related SQL functions
func LoadPersonsSql(db *sql.DB, force bool) error {
	return loadSqlFile(db, force, personsSQL, PersonsFunctions, "persons")
}

// LoadLocationsSql loads location-related SQL functions
func LoadLocationsSql(db *sql.DB, force bool) error {
	return loadSqlFile(db, force, locationsSQL, LocationsFunctions, "locations")
}

// LoadDocumentsSql loads document-related SQL functions
func LoadDocumentsSql(db *sql.DB, force bool) error {
	return loadSqlFile(db, force, documentsSQL, DocumentsFunctions, "documents")
}

// LoadEmbeddingsSql loads similarity-index SQL functions
func LoadEmbeddingsSql(db *sql.DB, force bool) error {
	return loadSqlFile(db, force, embeddingsSQL, EmbeddingsFunctions, "embeddings")
}

// LoadReviewsSql loads review-queue SQL functions
func LoadReviewsSql(db *sql.DB, force bool) error {
	return loadSqlFile(db, force, reviewsSQL, ReviewsFunctions, "reviews")
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadPersonsSql(db, force); err != nil {
		return err
	}

	if err := LoadLocationsSql(db, force); err != nil {
		return err
	}

	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	if err := LoadEmbeddingsSql(db, force); err != nil {
		return err
	}

	if err := LoadReviewsSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadSqlFile loads one SQL file and verifies its functions exist afterwards
func loadSqlFile(db *sql.DB, force bool, sqlFile string, sqlFunctions []string, name string) error {
	if !force {
		exist, err := checkFunctions(db, sqlFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(sqlFile)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, sqlFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
