// setup
//
// This script creates a Vertex AI Vector Search index and endpoint for the
// verse embeddings. The index dimensionality follows EMBEDDING_DIMENSIONS so
// that it matches the model used at ingestion.
//
// Prerequisites:
// 1. Export embeddings to JSONL: go run ./scripts/export
// 2. Upload to GCS: gsutil cp embeddings.jsonl gs://YOUR_BUCKET/embeddings/
// 3. Set environment variables (see below)
//
// Environment variables:
//   GCP_PROJECT_ID       - Your GCP project ID
//   VERTEX_LOCATION      - Region (default: us-central1)
//   GCS_BUCKET_URI       - Cloud Storage URI with embeddings (e.g., gs://bucket/embeddings)
//   INDEX_DISPLAY_NAME   - Display name for the index (default: nt-verses)
//   EMBEDDING_DIMENSIONS - Vector size of the ingested embeddings (default: 384)
//
// Usage:
//   go run ./scripts/setup -create-index
//
// After this script completes, note the Index ID and Endpoint ID and add them to your .env:
//   VERTEX_INDEX_ENDPOINT_ID=<endpoint_id>
//   VERTEX_DEPLOYED_INDEX_ID=<deployed_index_id>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"github.com/joho/godotenv"
	"github.com/nt-language-lab-api/internal/repository/vertex"
	"github.com/nt-language-lab-api/pkg/schema/config"
	"google.golang.org/api/option"
)

func main() {
	createIndex := flag.Bool("create-index", false, "Create a new index")
	createEndpoint := flag.Bool("create-endpoint", false, "Create a new endpoint")
	deployIndex := flag.Bool("deploy", false, "Deploy index to endpoint")
	indexID := flag.String("index-id", "", "Index ID (for deploy)")
	endpointID := flag.String("endpoint-id", "", "Endpoint ID (for deploy)")
	flag.Parse()

	godotenv.Load()
	dimensions := config.GetConfig().EmbeddingDimensions

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

	gcsBucketURI := os.Getenv("GCS_BUCKET_URI")
	displayName := os.Getenv("INDEX_DISPLAY_NAME")
	if displayName == "" {
		displayName = "nt-verses"
	}

	ctx := context.Background()
	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", location)
	parent := fmt.Sprintf("projects/%s/locations/%s", projectID, location)

	if *createIndex {
		if gcsBucketURI == "" {
			log.Fatal("GCS_BUCKET_URI is required for index creation")
		}
		createNewIndex(ctx, endpoint, parent, displayName, gcsBucketURI, dimensions)
	} else if *createEndpoint {
		createNewEndpoint(ctx, endpoint, parent, displayName)
	} else if *deployIndex {
		if *indexID == "" || *endpointID == "" {
			log.Fatal("--index-id and --endpoint-id are required for deployment")
		}
		deployIndexToEndpoint(ctx, endpoint, parent, *indexID, *endpointID, displayName)
	} else {
		fmt.Println("Vertex AI Vector Search Setup")
		fmt.Println("=============================")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  1. Create index:    go run ./scripts/setup -create-index")
		fmt.Println("  2. Create endpoint: go run ./scripts/setup -create-endpoint")
		fmt.Println("  3. Deploy:          go run ./scripts/setup -deploy -index-id=XXX -endpoint-id=YYY")
		fmt.Println()
		fmt.Println("Current configuration:")
		fmt.Printf("  Project ID:     %s\n", projectID)
		fmt.Printf("  Location:       %s\n", location)
		fmt.Printf("  GCS Bucket URI: %s\n", gcsBucketURI)
		fmt.Printf("  Display Name:   %s\n", displayName)
		fmt.Printf("  Dimensions:     %d\n", dimensions)
	}
}

func createNewIndex(ctx context.Context, endpoint, parent, displayName, gcsBucketURI string, dimensions int) {
	log.Printf("Creating Vertex AI Vector Search index...")
	log.Printf("  Parent: %s", parent)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  GCS URI: %s", gcsBucketURI)
	log.Printf("  Dimensions: %d", dimensions)

	req, err := vertex.CreateIndexRequest(parent, displayName, gcsBucketURI, dimensions)
	if err != nil {
		log.Fatalf("Invalid index configuration: %v", err)
	}

	client, err := aiplatform.NewIndexClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		log.Fatalf("Failed to create index client: %v", err)
	}
	defer client.Close()

	op, err := client.CreateIndex(ctx, req)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}

	log.Printf("Index creation started. Operation: %s", op.Name())
	log.Println("This may take 30-60 minutes. Waiting for index creation to complete...")

	index, err := op.Wait(ctx)
	if err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}

	log.Printf("Index created: %s (id %s)", index.Name, vertex.ResourceID(index.Name))
	log.Println("Next step: go run ./scripts/setup -create-endpoint")
}

func createNewEndpoint(ctx context.Context, endpoint, parent, displayName string) {
	log.Printf("Creating Vertex AI Vector Search endpoint under %s...", parent)

	client, err := aiplatform.NewIndexEndpointClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		log.Fatalf("Failed to create endpoint client: %v", err)
	}
	defer client.Close()

	op, err := client.CreateIndexEndpoint(ctx, vertex.CreateEndpointRequest(parent, displayName))
	if err != nil {
		log.Fatalf("Failed to create endpoint: %v", err)
	}

	log.Printf("Endpoint creation started. Operation: %s", op.Name())

	indexEndpoint, err := op.Wait(ctx)
	if err != nil {
		log.Fatalf("Endpoint creation failed: %v", err)
	}

	endpointID := vertex.ResourceID(indexEndpoint.Name)
	log.Printf("Endpoint created: %s (id %s)", indexEndpoint.Name, endpointID)
	log.Printf("  Public Domain: %s", indexEndpoint.PublicEndpointDomainName)
	log.Printf("Next step: go run ./scripts/setup -deploy -index-id=<INDEX_ID> -endpoint-id=%s", endpointID)
}

func deployIndexToEndpoint(ctx context.Context, endpoint, parent, indexID, endpointID, displayName string) {
	log.Printf("Deploying index %s to endpoint %s...", indexID, endpointID)

	client, err := aiplatform.NewIndexEndpointClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		log.Fatalf("Failed to create endpoint client: %v", err)
	}
	defer client.Close()

	deployedIndexID := vertex.DeployedIndexID(displayName, time.Now())
	op, err := client.DeployIndex(ctx, vertex.DeployIndexRequest(parent, indexID, endpointID, deployedIndexID))
	if err != nil {
		log.Fatalf("Failed to deploy index: %v", err)
	}

	log.Printf("Deployment started. Operation: %s", op.Name())
	log.Println("This may take 20-30 minutes. Waiting...")

	if _, err := op.Wait(ctx); err != nil {
		log.Fatalf("Deployment failed: %v", err)
	}

	log.Println("Index deployed. Add these to your .env file:")
	log.Printf("  VECTOR_BACKEND=vertex")
	log.Printf("  VERTEX_INDEX_ENDPOINT_ID=%s", endpointID)
	log.Printf("  VERTEX_DEPLOYED_INDEX_ID=%s", deployedIndexID)
}
