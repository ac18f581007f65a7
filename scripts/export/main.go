// export
//
// This script exports verse embeddings from PostgreSQL to a JSONL file
// formatted for Vertex AI Vector Search.
//
// Usage:
//   go run ./scripts/export -output embeddings.jsonl
//
// The output format is one JSON object per line:
//   {"id": "John.3.16", "embedding": [0.1, 0.2, ...], "restricts": [{"namespace": "book", "allow": ["John"]}]}
//
// After running this script:
// 1. Upload the file to Cloud Storage:
//    gsutil cp embeddings.jsonl gs://YOUR_BUCKET/embeddings/
//
// 2. Create the Vertex AI index with scripts/setup

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/nt-language-lab-api/internal/ingest"
	"github.com/nt-language-lab-api/pkg/schema/config"
	"github.com/nt-language-lab-api/pkg/schema/db"
)

// DataPoint represents a single embedding for Vertex AI Vector Search
type DataPoint struct {
	ID        string     `json:"id"`
	Embedding []float32  `json:"embedding"`
	Restricts []Restrict `json:"restricts,omitempty"`
}

// Restrict defines a token-based filter
type Restrict struct {
	Namespace string   `json:"namespace"`
	Allow     []string `json:"allow"`
}

func main() {
	outputFile := flag.String("output", "embeddings.jsonl", "Output JSONL file path")
	flag.Parse()

	// Load environment variables
	godotenv.Load()

	ctx := context.Background()

	// Connect to PostgreSQL
	conn, err := db.OpenPostgres(ctx, config.GetConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Open output file
	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	log.Printf("Exporting embeddings to %s...\n", *outputFile)

	encoder := json.NewEncoder(f)
	count := 0
	perBook := map[string]int{}

	err = ingest.StreamDatapoints(ctx, conn, func(dp ingest.Datapoint) error {
		perBook[dp.Book]++
		count++
		// book restrict lets queries filter by OSIS code
		return encoder.Encode(DataPoint{
			ID:        dp.ID,
			Embedding: dp.Embedding,
			Restricts: []Restrict{
				{
					Namespace: "book",
					Allow:     []string{dp.Book},
				},
			},
		})
	})
	if err != nil {
		log.Fatalf("Export failed after %d embeddings: %v", count, err)
	}

	log.Printf("Successfully exported %d embeddings from %d books to %s\n", count, len(perBook), *outputFile)
	log.Println("\nNext steps:")
	log.Println("1. Upload to Cloud Storage:")
	log.Printf("   gsutil cp %s gs://YOUR_BUCKET/embeddings/\n", *outputFile)
	log.Println("\n2. Create Vertex AI index (go run ./scripts/setup -create-index)")
}
