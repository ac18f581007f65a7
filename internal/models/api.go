package models

// ConceptSearchRequest is the request for concept search
type ConceptSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// ConceptSearchResponse is the response for concept search
type ConceptSearchResponse struct {
	Query   string        `json:"query"`
	Results []ScoredVerse `json:"results"`
}

// VerseResponse is the response for a reference lookup
type VerseResponse struct {
	Reference string      `json:"reference"`
	Verse     VerseRecord `json:"verse"`
}

// CompareRequest asks for a linguistic comparison of a single verse
type CompareRequest struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

// CompareResponse carries the verse and, when generation is enabled, the analysis
type CompareResponse struct {
	Reference         string      `json:"reference"`
	Verse             VerseRecord `json:"verse"`
	GenerationEnabled bool        `json:"generation_enabled"`
	Analysis          string      `json:"analysis,omitempty"`
}

// StoreHealthResponse is the response for the store health check
type StoreHealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Verses  int    `json:"verses"`
}
