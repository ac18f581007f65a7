// upsert
//
// This script streams verse embeddings from PostgreSQL to Vertex AI Vector Search
// using the UpsertDatapoints API for streaming updates.
//
// Prerequisites:
// 1. Create and deploy the index with scripts/setup
// 2. Set environment variables (see below)
//
// Environment variables:
//   POSTGRES_URI              - PostgreSQL connection string
//   GCP_PROJECT_ID            - Your GCP project ID
//   VERTEX_LOCATION           - Region (default: us-central1)
//   VERTEX_INDEX_ID           - The index ID to update
//
// Usage:
//   go run ./scripts/upsert

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/joho/godotenv"
	"github.com/nt-language-lab-api/internal/ingest"
	"github.com/nt-language-lab-api/pkg/schema/config"
	"github.com/nt-language-lab-api/pkg/schema/db"
	"google.golang.org/api/option"
)

const (
	batchSize = 100 // Number of datapoints per upsert request
)

func main() {
	godotenv.Load()

	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		projectID = os.Getenv("VERTEX_PROJECT_ID")
	}
	if projectID == "" {
		log.Fatal("GCP_PROJECT_ID or VERTEX_PROJECT_ID environment variable is required")
	}

	location := os.Getenv("VERTEX_LOCATION")
	if location == "" {
		location = "us-central1"
	}

	indexID := os.Getenv("VERTEX_INDEX_ID")
	if indexID == "" {
		log.Fatal("VERTEX_INDEX_ID environment variable is required")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	conn, err := db.OpenPostgres(ctx, config.GetConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Create Vertex AI Index client
	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)
	client, err := aiplatform.NewIndexClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		log.Fatalf("Failed to create index client: %v", err)
	}
	defer client.Close()

	indexName := fmt.Sprintf("projects/%s/locations/%s/indexes/%s", projectID, location, indexID)

	log.Printf("Upserting embeddings to index: %s", indexName)

	var batch []*aiplatformpb.IndexDatapoint
	totalCount := 0
	batchCount := 0

	err = ingest.StreamDatapoints(ctx, conn, func(dp ingest.Datapoint) error {
		// Create datapoint with book as a restricts filter
		batch = append(batch, &aiplatformpb.IndexDatapoint{
			DatapointId:   dp.ID,
			FeatureVector: dp.Embedding,
			Restricts: []*aiplatformpb.IndexDatapoint_Restriction{
				{
					Namespace: "book",
					AllowList: []string{dp.Book},
				},
			},
		})
		totalCount++

		// Upsert when batch is full
		if len(batch) < batchSize {
			return nil
		}
		if err := upsertBatch(ctx, client, indexName, batch); err != nil {
			return err
		}
		batchCount++
		log.Printf("Upserted batch %d (%d total datapoints)", batchCount, totalCount)
		batch = batch[:0]
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to upsert embeddings: %v", err)
	}

	// Upsert remaining datapoints
	if len(batch) > 0 {
		if err := upsertBatch(ctx, client, indexName, batch); err != nil {
			log.Fatalf("Failed to upsert final batch: %v", err)
		}
		batchCount++
		log.Printf("Upserted final batch %d (%d total datapoints)", batchCount, totalCount)
	}

	log.Printf("Successfully upserted %d embeddings to Vertex AI Vector Search", totalCount)
}

func upsertBatch(ctx context.Context, client *aiplatform.IndexClient, indexName string, datapoints []*aiplatformpb.IndexDatapoint) error {
	req := &aiplatformpb.UpsertDatapointsRequest{
		Index:      indexName,
		Datapoints: datapoints,
	}

	if _, err := client.UpsertDatapoints(ctx, req); err != nil {
		return fmt.Errorf("upsert %d datapoints: %w", len(datapoints), err)
	}
	return nil
}
