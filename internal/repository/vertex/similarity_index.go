package vertex

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/repository"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Ensure SimilarityIndex implements repository.SimilarityIndex
var _ repository.SimilarityIndex = (*SimilarityIndex)(nil)

// Config holds Vertex AI Vector Search configuration
type Config struct {
	ProjectID            string // GCP project ID
	Location             string // e.g., "us-central1"
	IndexEndpointID      string // Deployed index endpoint ID
	DeployedIndexID      string // The deployed index ID within the endpoint
	PublicEndpointDomain string // Public endpoint domain for queries (e.g., "123.us-central1-456.vdb.vertexai.goog")
	Dimensions           int    // Dimensionality the index was created with
}

// SimilarityIndex implements repository.SimilarityIndex using Vertex AI Vector Search.
// Datapoint ids are canonical verse ids; records are hydrated from the verse repository.
type SimilarityIndex struct {
	config      Config
	matchClient *aiplatform.MatchClient
}

// NewSimilarityIndex creates a new Vertex AI similarity index client
func NewSimilarityIndex(ctx context.Context, config Config) (*SimilarityIndex, error) {
	// For public endpoints, use the public domain; otherwise use regional endpoint
	var endpoint string
	if config.PublicEndpointDomain != "" {
		endpoint = fmt.Sprintf("%s:443", config.PublicEndpointDomain)
	} else {
		endpoint = fmt.Sprintf("%s-aiplatform.googleapis.com:443", config.Location)
	}

	matchClient, err := aiplatform.NewMatchClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("create match client: %w", err)
	}

	return &SimilarityIndex{
		config:      config,
		matchClient: matchClient,
	}, nil
}

// Close closes the Vertex AI client
func (r *SimilarityIndex) Close() error {
	if r.matchClient != nil {
		return r.matchClient.Close()
	}
	return nil
}

// QueryBySimilarity runs FindNeighbors against the deployed index
func (r *SimilarityIndex) QueryBySimilarity(ctx context.Context, embedding []float32, topK int) ([]models.ScoredID, error) {
	if err := repository.ValidateTopK(topK); err != nil {
		return nil, err
	}
	if err := repository.CheckDimensions(len(embedding), r.config.Dimensions); err != nil {
		return nil, err
	}
	if err := repository.CheckFinite(embedding); err != nil {
		return nil, err
	}

	resp, err := r.matchClient.FindNeighbors(ctx, r.findNeighborsRequest(embedding, topK))
	if err != nil {
		return nil, mapFindNeighborsError(err)
	}
	return scoredNeighbors(resp), nil
}

// mapFindNeighborsError separates a rejected query vector from transport failures
func mapFindNeighborsError(err error) error {
	if status.Code(err) == codes.InvalidArgument {
		return fmt.Errorf("find neighbors: %w: %v", repository.ErrDimensionMismatch, err)
	}
	return repository.Unavailable("find neighbors", err)
}

func (r *SimilarityIndex) findNeighborsRequest(embedding []float32, topK int) *aiplatformpb.FindNeighborsRequest {
	indexEndpoint := fmt.Sprintf(
		"projects/%s/locations/%s/indexEndpoints/%s",
		r.config.ProjectID,
		r.config.Location,
		r.config.IndexEndpointID,
	)

	return &aiplatformpb.FindNeighborsRequest{
		IndexEndpoint:   indexEndpoint,
		DeployedIndexId: r.config.DeployedIndexID,
		Queries: []*aiplatformpb.FindNeighborsRequest_Query{
			{
				Datapoint: &aiplatformpb.IndexDatapoint{
					FeatureVector: embedding,
				},
				NeighborCount: int32(topK),
			},
		},
	}
}

// scoredNeighbors converts cosine distances into similarity scores, best first
func scoredNeighbors(resp *aiplatformpb.FindNeighborsResponse) []models.ScoredID {
	if resp == nil || len(resp.NearestNeighbors) == 0 {
		return []models.ScoredID{}
	}

	neighbors := resp.NearestNeighbors[0].Neighbors
	results := make([]models.ScoredID, 0, len(neighbors))
	for _, neighbor := range neighbors {
		if neighbor.GetDatapoint() == nil {
			continue
		}
		results = append(results, models.ScoredID{
			VerseID: neighbor.Datapoint.DatapointId,
			Score:   1 - float64(neighbor.Distance),
		})
	}

	repository.SortScored(results)
	return results
}
