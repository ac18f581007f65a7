package vertex

import (
	"fmt"
	"strings"
	"time"

	aiplatformpb "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// CreateIndexRequest builds a streaming-update cosine index sized for the
// embedding model. contentsURI may point at an exported JSONL directory.
func CreateIndexRequest(parent, displayName, contentsURI string, dimensions int) (*aiplatformpb.CreateIndexRequest, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", dimensions)
	}

	metadata, err := structpb.NewStruct(map[string]interface{}{
		"contentsDeltaUri": contentsURI,
		"config": map[string]interface{}{
			"dimensions":                dimensions,
			"approximateNeighborsCount": 150,
			"distanceMeasureType":       "COSINE_DISTANCE",
			"algorithmConfig": map[string]interface{}{
				"treeAhConfig": map[string]interface{}{
					"leafNodeEmbeddingCount":   1000,
					"leafNodesToSearchPercent": 5,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build index metadata: %w", err)
	}

	return &aiplatformpb.CreateIndexRequest{
		Parent: parent,
		Index: &aiplatformpb.Index{
			DisplayName:       displayName,
			Description:       "Greek/Spanish New Testament verse embeddings for concept search",
			Metadata:          structpb.NewStructValue(metadata),
			IndexUpdateMethod: aiplatformpb.Index_STREAM_UPDATE,
		},
	}, nil
}

// CreateEndpointRequest builds a public index endpoint
func CreateEndpointRequest(parent, displayName string) *aiplatformpb.CreateIndexEndpointRequest {
	return &aiplatformpb.CreateIndexEndpointRequest{
		Parent: parent,
		IndexEndpoint: &aiplatformpb.IndexEndpoint{
			DisplayName:           displayName + "-endpoint",
			Description:           "Public endpoint for New Testament verse concept search",
			PublicEndpointEnabled: true,
		},
	}
}

// DeployIndexRequest deploys indexID to endpointID with automatic resources
func DeployIndexRequest(parent, indexID, endpointID, deployedIndexID string) *aiplatformpb.DeployIndexRequest {
	return &aiplatformpb.DeployIndexRequest{
		IndexEndpoint: fmt.Sprintf("%s/indexEndpoints/%s", parent, endpointID),
		DeployedIndex: &aiplatformpb.DeployedIndex{
			Id:    deployedIndexID,
			Index: fmt.Sprintf("%s/indexes/%s", parent, indexID),
			AutomaticResources: &aiplatformpb.AutomaticResources{
				MinReplicaCount: 1,
				MaxReplicaCount: 2,
			},
		},
	}
}

// DeployedIndexID derives a deployment id from the display name.
// Vertex requires a leading letter and only letters, digits and underscores.
func DeployedIndexID(displayName string, now time.Time) string {
	sanitized := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, displayName)
	return fmt.Sprintf("deployed_%s_%d", sanitized, now.Unix())
}

// ResourceID returns the last component of a resource name such as
// projects/X/locations/Y/indexes/Z
func ResourceID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
