package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/resolver"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
)

const sampleLetter = `Springfield Medical Center
123 Main Street, Springfield, IL 62701
Phone: (217) 555-0134

To:
Spencer Smith
456 Oak Avenue
Springfield, IL 62702

Dear Mr. Smith,

This letter confirms your upcoming appointment on June 12th.
Please bring your insurance card and a photo ID.

Sincerely,
Springfield Medical Center`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	r, err := resolver.NewResolver(dbConfig, nil, 384)
	if err != nil {
		log.Fatalf("Failed to create resolver: %v", err)
	}
	defer r.Close()

	// Set up the default embedder (all-MiniLM-L6-v2)
	if err := r.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}

	// Seed one known person so the recipient can match
	person := &model.Person{
		FirstName: "Spencer",
		LastName:  "Smith",
	}
	if err := r.CreatePerson(person); err != nil {
		log.Fatalf("Failed to create person: %v", err)
	}
	fmt.Printf("Seeded person %s with ID %d\n", person.CanonicalText(), person.ID)

	// Process an uploaded letter
	doc := &model.Document{
		DocType: "letter",
		RawText: sampleLetter,
		Metadata: model.Metadata{
			"source": "basic_example",
		},
	}

	fmt.Println("Processing document...")
	outcome, err := r.ProcessDocument(context.Background(), doc)
	if err != nil {
		log.Fatalf("Failed to process document: %v", err)
	}

	if outcome.RecipientPersonID != nil {
		fmt.Printf("Recipient matched to person %d\n", *outcome.RecipientPersonID)
	}
	if outcome.SenderLocationID != nil {
		fmt.Printf("Sender matched to location %d\n", *outcome.SenderLocationID)
	}
	fmt.Printf("Pending reviews: %d\n", outcome.PendingReviews)

	// Adjudicate whatever could not be auto-matched
	pending, err := r.PendingReviews(nil, nil)
	if err != nil {
		log.Fatalf("Failed to list pending reviews: %v", err)
	}

	for _, item := range pending {
		fmt.Printf("Pending %s review (%s), %d candidates\n", item.EntityType, item.QueryType, len(item.Candidates))

		// Create the sender location from the extracted fields
		if item.EntityType == model.EntityTypeLocation {
			record := model.RecordFromSnapshot(item.EntityType, item.RawData)
			resolved, err := r.ResolveReviewByCreate(item.ID, record, "basic_example")
			if err != nil {
				log.Fatalf("Failed to resolve review: %v", err)
			}
			fmt.Printf("Created and linked location %d\n", *resolved.ResolvedEntityID)
		}
	}

	stats, err := r.ReviewStats()
	if err != nil {
		log.Fatalf("Failed to get review stats: %v", err)
	}
	fmt.Printf("Queue stats: %d pending, %d resolved, %d skipped\n", stats.TotalPending, stats.TotalResolved, stats.TotalSkipped)
}
