package models

// VerseRecord is one canonical New Testament verse with its Greek and Spanish text
type VerseRecord struct {
	ID        string    `json:"id" db:"verse_id"`
	Book      string    `json:"book" db:"book"`
	Chapter   int       `json:"chapter" db:"chapter"`
	Verse     int       `json:"verse" db:"verse"`
	Greek     string    `json:"greek" db:"greek"`
	Spanish   string    `json:"spanish" db:"spanish"`
	Embedding []float32 `json:"-" db:"-"`
}

// ScoredID is a verse id returned by a similarity index, best match first
type ScoredID struct {
	VerseID string  `json:"verse_id"`
	Score   float64 `json:"score"`
}

// ScoredVerse is a hydrated verse with its similarity score
type ScoredVerse struct {
	VerseRecord
	Score float64 `json:"score"`
}
