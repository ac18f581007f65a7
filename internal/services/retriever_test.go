package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nt-language-lab-api/internal/models"
	"github.com/nt-language-lab-api/internal/repository"
)

// fakeStore is an in-memory VerseStore with exact cosine ranking
type fakeStore struct {
	mu         sync.Mutex
	records    map[string]models.VerseRecord
	extraIDs   []models.ScoredID // index entries with no record
	err        error
	similarity int
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.VerseRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("get verse %s: %w", id, repository.ErrNotFound)
	}
	return &r, nil
}

func (f *fakeStore) GetManyByIDs(_ context.Context, ids []string) ([]models.VerseRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.VerseRecord{}
	for _, id := range ids {
		if r, ok := f.records[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) QueryBySimilarity(_ context.Context, q []float32, topK int) ([]models.ScoredID, error) {
	f.mu.Lock()
	f.similarity++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := repository.ValidateTopK(topK); err != nil {
		return nil, err
	}
	var out []models.ScoredID
	for id, r := range f.records {
		if err := repository.CheckDimensions(len(q), len(r.Embedding)); err != nil {
			return nil, err
		}
		out = append(out, models.ScoredID{VerseID: id, Score: cosine(q, r.Embedding)})
	}
	out = append(out, f.extraIDs...)
	repository.SortScored(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// keywordEmbedder maps a few Spanish keywords onto fixed axes
type keywordEmbedder struct {
	err   error
	calls int
}

func (e *keywordEmbedder) EmbedQuery(_ context.Context, q string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	q = strings.ToLower(q)
	vec := []float32{0.01, 0.01, 0.01}
	if strings.Contains(q, "amor") || strings.Contains(q, "mundo") {
		vec[0] += 1
	}
	if strings.Contains(q, "genealogía") {
		vec[2] += 1
	}
	return vec, nil
}

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func newCorpus() *fakeStore {
	return &fakeStore{records: map[string]models.VerseRecord{
		"John.3.16": {ID: "John.3.16", Book: "Juan", Chapter: 3, Verse: 16,
			Greek:   "Οὕτως γὰρ ἠγάπησεν ὁ θεὸς τὸν κόσμον",
			Spanish: "Porque de tal manera amó Dios al mundo", Embedding: []float32{1, 0.1, 0}},
		"Rom.5.8": {ID: "Rom.5.8", Book: "Romanos", Chapter: 5, Verse: 8,
			Greek:   "συνίστησιν δὲ τὴν ἑαυτοῦ ἀγάπην εἰς ἡμᾶς ὁ θεὸς",
			Spanish: "Mas Dios muestra su amor para con nosotros", Embedding: []float32{0.8, 0.6, 0}},
		"1John.4.9": {ID: "1John.4.9", Book: "1 Juan", Chapter: 4, Verse: 9,
			Greek:   "ἐν τούτῳ ἐφανερώθη ἡ ἀγάπη τοῦ θεοῦ",
			Spanish: "En esto se mostró el amor de Dios para con nosotros", Embedding: []float32{0.7, 0.7, 0.1}},
		"Matt.1.1": {ID: "Matt.1.1", Book: "Mateo", Chapter: 1, Verse: 1,
			Greek:   "Βίβλος γενέσεως Ἰησοῦ Χριστοῦ",
			Spanish: "Libro de la genealogía de Jesucristo", Embedding: []float32{0, 0.1, 1}},
		"Gal.2.20": {ID: "Gal.2.20", Book: "Gálatas", Chapter: 2, Verse: 20,
			Greek:   "",
			Spanish: "Con Cristo estoy juntamente crucificado", Embedding: []float32{0.3, 0.9, 0.3}},
	}}
}

func TestLookupByReference(t *testing.T) {
	store := newCorpus()
	r := NewRetriever(store, &keywordEmbedder{}, 10, nil)

	v, err := r.LookupByReference(context.Background(), "Juan", 3, 16)
	require.NoError(t, err)
	assert.Equal(t, "Juan", v.Book)
	assert.Equal(t, 3, v.Chapter)
	assert.Equal(t, 16, v.Verse)
	assert.Equal(t, 0, store.similarity, "reference lookup never ranks")
}

func TestLookupByReference_CaseAndAccentInsensitive(t *testing.T) {
	r := NewRetriever(newCorpus(), &keywordEmbedder{}, 10, nil)

	want, err := r.LookupByReference(context.Background(), "Juan", 3, 16)
	require.NoError(t, err)
	for _, book := range []string{"juan", "JUAN", "Júan", "jn", "John"} {
		got, err := r.LookupByReference(context.Background(), book, 3, 16)
		require.NoError(t, err, book)
		assert.Equal(t, want, got, book)
	}

	gal, err := r.LookupByReference(context.Background(), "galatas", 2, 20)
	require.NoError(t, err)
	assert.Equal(t, "Gal.2.20", gal.ID)
	assert.Empty(t, gal.Greek)
}

func TestLookupByReference_NotFound(t *testing.T) {
	r := NewRetriever(newCorpus(), &keywordEmbedder{}, 10, nil)

	v, err := r.LookupByReference(context.Background(), "Juan", 3, 99)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidReference)
}

func TestLookupByReference_InvalidReference(t *testing.T) {
	r := NewRetriever(newCorpus(), &keywordEmbedder{}, 10, nil)

	cases := []struct {
		book           string
		chapter, verse int
	}{
		{"Génesis", 1, 1},
		{"", 3, 16},
		{"Juan", 0, 16},
		{"Juan", 3, -1},
	}
	for _, c := range cases {
		_, err := r.LookupByReference(context.Background(), c.book, c.chapter, c.verse)
		assert.ErrorIs(t, err, ErrInvalidReference, "%s %d:%d", c.book, c.chapter, c.verse)
		assert.NotErrorIs(t, err, repository.ErrNotFound)
	}
}

func TestLookupByReference_StoreUnavailable(t *testing.T) {
	store := newCorpus()
	store.err = repository.Unavailable("get verse", errors.New("connection refused"))
	r := NewRetriever(store, &keywordEmbedder{}, 10, nil)

	_, err := r.LookupByReference(context.Background(), "Juan", 3, 16)
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestSearchByConcept(t *testing.T) {
	r := NewRetriever(newCorpus(), &keywordEmbedder{}, 10, nil)

	got, err := r.SearchByConcept(context.Background(), "amor de Dios al mundo", 5)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 5)
	assert.Equal(t, "John.3.16", got[0].ID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.NotEmpty(t, got[0].Spanish, "results are hydrated")
}

func TestSearchByConcept_LimitsResults(t *testing.T) {
	r := NewRetriever(newCorpus(), &keywordEmbedder{}, 10, nil)

	got, err := r.SearchByConcept(context.Background(), "amor", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchByConcept_DefaultTopK(t *testing.T) {
	r := NewRetriever(newCorpus(), &keywordEmbedder{}, 3, nil)

	got, err := r.SearchByConcept(context.Background(), "amor", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearchByConcept_InvalidQuery(t *testing.T) {
	embedder := &keywordEmbedder{}
	r := NewRetriever(newCorpus(), embedder, 10, nil)

	for _, q := range []string{"", "   ", "\t\n"} {
		got, err := r.SearchByConcept(context.Background(), q, 5)
		assert.ErrorIs(t, err, ErrInvalidQuery)
		assert.Nil(t, got)
	}

	_, err := r.SearchByConcept(context.Background(), strings.Repeat("a", MaxQueryLength+1), 5)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	for _, k := range []int{-1, repository.MaxTopK + 1} {
		_, err := r.SearchByConcept(context.Background(), "amor", k)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}
	assert.Equal(t, 0, embedder.calls, "invalid queries are rejected before embedding")
}

func TestSearchByConcept_Deterministic(t *testing.T) {
	r := NewRetriever(newCorpus(), &keywordEmbedder{}, 10, nil)

	first, err := r.SearchByConcept(context.Background(), "amor de Dios al mundo", 5)
	require.NoError(t, err)
	second, err := r.SearchByConcept(context.Background(), "amor de Dios al mundo", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchByConcept_DropsStaleIndexEntries(t *testing.T) {
	store := newCorpus()
	store.extraIDs = []models.ScoredID{{VerseID: "Acts.99.1", Score: 0.999}}
	logger := &recordingLogger{}
	r := NewRetriever(store, &keywordEmbedder{}, 10, logger)

	got, err := r.SearchByConcept(context.Background(), "amor de Dios al mundo", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, v := range got {
		assert.NotEqual(t, "Acts.99.1", v.ID)
	}
	require.Len(t, logger.lines, 1)
	assert.Contains(t, logger.lines[0], "Acts.99.1")
}

func TestSearchByConcept_CollapsesDuplicateIndexEntries(t *testing.T) {
	store := newCorpus()
	store.extraIDs = []models.ScoredID{
		{VerseID: "John.3.16", Score: 0.01},
		{VerseID: "Rom.5.8", Score: 0.02},
	}
	r := NewRetriever(store, &keywordEmbedder{}, 10, nil)

	got, err := r.SearchByConcept(context.Background(), "amor de Dios al mundo", 10)
	require.NoError(t, err)
	require.Len(t, got, 5)

	seen := map[string]int{}
	for _, v := range got {
		seen[v.ID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "verse %s returned more than once", id)
	}
	assert.Equal(t, "John.3.16", got[0].ID)
	assert.Greater(t, got[0].Score, 0.01, "first-ranked entry wins")
}

func TestSearchByConcept_EmptyIndex(t *testing.T) {
	r := NewRetriever(&fakeStore{records: map[string]models.VerseRecord{}}, &keywordEmbedder{}, 10, nil)

	got, err := r.SearchByConcept(context.Background(), "amor", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchByConcept_PropagatesFailures(t *testing.T) {
	t.Run("store unavailable", func(t *testing.T) {
		store := newCorpus()
		store.err = repository.Unavailable("find neighbors", errors.New("deadline exceeded"))
		_, err := NewRetriever(store, &keywordEmbedder{}, 10, nil).SearchByConcept(context.Background(), "amor", 5)
		assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		store := newCorpus()
		for id, r := range store.records {
			r.Embedding = append(r.Embedding, 0)
			store.records[id] = r
		}
		_, err := NewRetriever(store, &keywordEmbedder{}, 10, nil).SearchByConcept(context.Background(), "amor", 5)
		assert.ErrorIs(t, err, repository.ErrDimensionMismatch)
	})

	t.Run("embedding failure", func(t *testing.T) {
		embedder := &keywordEmbedder{err: errors.New("connection refused")}
		_, err := NewRetriever(newCorpus(), embedder, 10, nil).SearchByConcept(context.Background(), "amor", 5)
		assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	})
}

func TestNewRetriever_DefaultTopKBounds(t *testing.T) {
	assert.Equal(t, DefaultTopK, NewRetriever(nil, nil, 0, nil).defaultTopK)
	assert.Equal(t, DefaultTopK, NewRetriever(nil, nil, 1000, nil).defaultTopK)
	assert.Equal(t, 25, NewRetriever(nil, nil, 25, nil).defaultTopK)
}
